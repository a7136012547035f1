package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// ListParams controls pagination and sorting of the order listing.
type ListParams struct {
	Page    int
	PerPage int
	SortBy  string
	SortDir string // "asc" or "desc"
}

// allowedSortFields whitelists ORDER BY columns. Anything else is rejected
// before it reaches SQL.
var allowedSortFields = map[string]bool{
	"SalesOrderID": true, "RevisionNumber": true,
	"OrderDate": true, "DueDate": true, "ShipDate": true,
	"Status": true, "OnlineOrderFlag": true,
	"SalesOrderNumber": true, "PurchaseOrderNumber": true, "AccountNumber": true,
	"CustomerID": true, "SalesPersonID": true, "TerritoryID": true,
	"BillToAddressID": true, "ShipToAddressID": true, "ShipMethodID": true,
	"CreditCardID": true, "CreditCardApprovalCode": true, "CurrencyRateID": true,
	"SubTotal": true, "TaxAmt": true, "Freight": true, "TotalDue": true,
}

// Normalize applies sort defaults and validates ranges and the sort
// whitelist. Page and PerPage must be set by the caller; zero is rejected
// like any other out-of-range value.
func (p *ListParams) Normalize() error {
	if p.Page < 1 {
		return common.WrapError(common.ErrInvalidInput, "page must be greater than or equal to 1")
	}
	if p.PerPage < 1 {
		return common.WrapError(common.ErrInvalidInput, "per_page must be greater than or equal to 1")
	}
	if p.PerPage > 100 {
		return common.WrapError(common.ErrInvalidInput, "per_page cannot exceed 100")
	}
	if p.SortBy == "" {
		p.SortBy = "SalesOrderID"
	}
	if !allowedSortFields[p.SortBy] {
		return common.WrapError(common.ErrInvalidInput, fmt.Sprintf("invalid sort_by field %q", p.SortBy))
	}
	p.SortDir = strings.ToLower(p.SortDir)
	if p.SortDir == "" {
		p.SortDir = "asc"
	}
	if p.SortDir != "asc" && p.SortDir != "desc" {
		return common.WrapError(common.ErrInvalidInput, "order must be 'asc' or 'desc'")
	}
	return nil
}

// Pagination is the listing metadata returned alongside a page of orders.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// SalesOrders persists and reads order headers and their line items.
type SalesOrders interface {
	Create(ctx context.Context, order *entity.SalesOrder, items []entity.SalesOrderItem) (*entity.SalesOrder, []entity.SalesOrderItem, error)
	GetByID(ctx context.Context, id int64) (*entity.SalesOrder, []entity.SalesOrderItem, error)
	List(ctx context.Context, params ListParams) ([]entity.SalesOrder, Pagination, error)
	Update(ctx context.Context, id int64, fields map[string]any) (*entity.SalesOrder, error)
	Delete(ctx context.Context, id int64) error
}

// EditableOrderColumns lists the header columns a partial update may set, in
// the order the SET clause is built. SalesOrderID is excluded.
var EditableOrderColumns = []string{
	"RevisionNumber", "OrderDate", "DueDate", "ShipDate",
	"Status", "OnlineOrderFlag", "SalesOrderNumber", "PurchaseOrderNumber", "AccountNumber",
	"CustomerID", "SalesPersonID", "TerritoryID", "BillToAddressID", "ShipToAddressID",
	"ShipMethodID", "CreditCardID", "CreditCardApprovalCode", "CurrencyRateID",
	"SubTotal", "TaxAmt", "Freight", "TotalDue",
}

func editableOrderColumn(name string) bool {
	for _, col := range EditableOrderColumns {
		if col == name {
			return true
		}
	}
	return false
}

// PgSalesOrders is the Postgres-backed SalesOrders.
type PgSalesOrders struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPgSalesOrders(pool *pgxpool.Pool, logger *slog.Logger) *PgSalesOrders {
	if logger == nil {
		logger = slog.Default()
	}
	return &PgSalesOrders{pool: pool, logger: logger}
}

const orderColumns = `"SalesOrderID", "RevisionNumber", "OrderDate", "DueDate", "ShipDate",
	"Status", "OnlineOrderFlag", "SalesOrderNumber", "PurchaseOrderNumber", "AccountNumber",
	"CustomerID", "SalesPersonID", "TerritoryID", "BillToAddressID", "ShipToAddressID",
	"ShipMethodID", "CreditCardID", "CreditCardApprovalCode", "CurrencyRateID",
	"SubTotal", "TaxAmt", "Freight", "TotalDue"`

func scanOrder(row pgx.Row) (*entity.SalesOrder, error) {
	var o entity.SalesOrder
	err := row.Scan(
		&o.SalesOrderID, &o.RevisionNumber, &o.OrderDate, &o.DueDate, &o.ShipDate,
		&o.Status, &o.OnlineOrderFlag, &o.SalesOrderNumber, &o.PurchaseOrderNumber, &o.AccountNumber,
		&o.CustomerID, &o.SalesPersonID, &o.TerritoryID, &o.BillToAddressID, &o.ShipToAddressID,
		&o.ShipMethodID, &o.CreditCardID, &o.CreditCardApprovalCode, &o.CurrencyRateID,
		&o.SubTotal, &o.TaxAmt, &o.Freight, &o.TotalDue,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts the header and its line items in one transaction and returns
// the stored rows with their generated identifiers.
func (r *PgSalesOrders) Create(ctx context.Context, order *entity.SalesOrder, items []entity.SalesOrderItem) (*entity.SalesOrder, []entity.SalesOrderItem, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO "SalesOrderHeader" (
			"RevisionNumber", "OrderDate", "DueDate", "ShipDate",
			"Status", "OnlineOrderFlag", "SalesOrderNumber", "PurchaseOrderNumber", "AccountNumber",
			"CustomerID", "SalesPersonID", "TerritoryID", "BillToAddressID", "ShipToAddressID",
			"ShipMethodID", "CreditCardID", "CreditCardApprovalCode", "CurrencyRateID",
			"SubTotal", "TaxAmt", "Freight", "TotalDue"
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		RETURNING `+orderColumns,
		order.RevisionNumber, order.OrderDate, order.DueDate, order.ShipDate,
		order.Status, order.OnlineOrderFlag, order.SalesOrderNumber, order.PurchaseOrderNumber, order.AccountNumber,
		order.CustomerID, order.SalesPersonID, order.TerritoryID, order.BillToAddressID, order.ShipToAddressID,
		order.ShipMethodID, order.CreditCardID, order.CreditCardApprovalCode, order.CurrencyRateID,
		order.SubTotal, order.TaxAmt, order.Freight, order.TotalDue,
	)
	stored, err := scanOrder(row)
	if err != nil {
		return nil, nil, err
	}

	storedItems := make([]entity.SalesOrderItem, 0, len(items))
	for _, it := range items {
		var detailID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO "SalesOrderDetail" (
				"SalesOrderID", "CarrierTrackingNumber", "OrderQty", "ProductID",
				"SpecialOfferID", "UnitPrice", "UnitPriceDiscount", "LineTotal"
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING "SalesOrderDetailID"`,
			stored.SalesOrderID, it.CarrierTrackingNumber, it.OrderQty, it.ProductID,
			it.SpecialOfferID, it.UnitPrice, it.UnitPriceDiscount, it.LineTotal,
		).Scan(&detailID)
		if err != nil {
			return nil, nil, err
		}
		it.SalesOrderDetailID = detailID
		it.SalesOrderID = stored.SalesOrderID
		storedItems = append(storedItems, it)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	r.logger.Info("orders.create.ok", "sales_order_id", stored.SalesOrderID, "line_items", len(storedItems))
	return stored, storedItems, nil
}

func (r *PgSalesOrders) GetByID(ctx context.Context, id int64) (*entity.SalesOrder, []entity.SalesOrderItem, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM "SalesOrderHeader" WHERE "SalesOrderID" = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, common.WrapError(common.ErrNotFound, fmt.Sprintf("sales order %d", id))
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT "SalesOrderDetailID", "SalesOrderID", "CarrierTrackingNumber", "OrderQty",
		       "ProductID", "SpecialOfferID", "UnitPrice", "UnitPriceDiscount", "LineTotal"
		FROM "SalesOrderDetail"
		WHERE "SalesOrderID" = $1
		ORDER BY "SalesOrderDetailID"`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var items []entity.SalesOrderItem
	for rows.Next() {
		var it entity.SalesOrderItem
		if err := rows.Scan(
			&it.SalesOrderDetailID, &it.SalesOrderID, &it.CarrierTrackingNumber, &it.OrderQty,
			&it.ProductID, &it.SpecialOfferID, &it.UnitPrice, &it.UnitPriceDiscount, &it.LineTotal,
		); err != nil {
			return nil, nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return order, items, nil
}

// Update applies the provided columns to an existing header and returns the
// updated row. An empty patch reads the row back unchanged.
func (r *PgSalesOrders) Update(ctx context.Context, id int64, fields map[string]any) (*entity.SalesOrder, error) {
	for col := range fields {
		if !editableOrderColumn(col) {
			return nil, common.WrapError(common.ErrInvalidInput, fmt.Sprintf("field %q cannot be updated", col))
		}
	}

	var row pgx.Row
	if len(fields) == 0 {
		row = r.pool.QueryRow(ctx, `
			SELECT `+orderColumns+` FROM "SalesOrderHeader" WHERE "SalesOrderID" = $1`, id)
	} else {
		set := make([]string, 0, len(fields))
		args := make([]any, 0, len(fields)+1)
		for _, col := range EditableOrderColumns {
			v, ok := fields[col]
			if !ok {
				continue
			}
			args = append(args, v)
			set = append(set, fmt.Sprintf("%q = $%d", col, len(args)))
		}
		args = append(args, id)
		q := fmt.Sprintf(`UPDATE "SalesOrderHeader" SET %s WHERE "SalesOrderID" = $%d RETURNING %s`,
			strings.Join(set, ", "), len(args), orderColumns)
		row = r.pool.QueryRow(ctx, q, args...)
	}

	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.WrapError(common.ErrNotFound, fmt.Sprintf("sales order %d", id))
	}
	if err != nil {
		return nil, err
	}
	r.logger.Info("orders.update.ok", "sales_order_id", id, "fields", len(fields))
	return order, nil
}

func (r *PgSalesOrders) List(ctx context.Context, params ListParams) ([]entity.SalesOrder, Pagination, error) {
	if err := params.Normalize(); err != nil {
		return nil, Pagination{}, err
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM "SalesOrderHeader"`).Scan(&total); err != nil {
		return nil, Pagination{}, err
	}

	offset := (params.Page - 1) * params.PerPage
	// Sort column and direction are validated against the whitelist above.
	q := fmt.Sprintf(`SELECT %s FROM "SalesOrderHeader" ORDER BY %q %s LIMIT $1 OFFSET $2`,
		orderColumns, params.SortBy, strings.ToUpper(params.SortDir))
	rows, err := r.pool.Query(ctx, q, params.PerPage, offset)
	if err != nil {
		return nil, Pagination{}, err
	}
	defer rows.Close()

	orders := make([]entity.SalesOrder, 0, params.PerPage)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, Pagination{}, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, Pagination{}, err
	}

	totalPages := int64(0)
	if total > 0 {
		totalPages = (total + int64(params.PerPage) - 1) / int64(params.PerPage)
	}
	return orders, Pagination{
		Page:       params.Page,
		PerPage:    params.PerPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    int64(params.Page) < totalPages,
		HasPrev:    params.Page > 1,
	}, nil
}

func (r *PgSalesOrders) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM "SalesOrderDetail" WHERE "SalesOrderID" = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM "SalesOrderHeader" WHERE "SalesOrderID" = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.WrapError(common.ErrNotFound, fmt.Sprintf("sales order %d", id))
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Info("orders.delete.ok", "sales_order_id", id)
	return nil
}
