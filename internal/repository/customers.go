package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// Directory answers the lookups customer resolution needs. Not-found is
// reported as (nil, nil), never as an error.
type Directory interface {
	// FindIndividual returns the individual whose first and last name contain
	// the given fragments, case-insensitively. Ties break on the lowest
	// BusinessEntityID.
	FindIndividual(ctx context.Context, firstName, lastName string) (*entity.IndividualDetail, error)

	// FindStore returns the store whose name contains the given fragment,
	// case-insensitively. Ties break on the lowest BusinessEntityID.
	FindStore(ctx context.Context, name string) (*entity.StoreDetail, error)

	// CustomerByPersonID returns the customer record referencing the given
	// individual, if any.
	CustomerByPersonID(ctx context.Context, businessEntityID int64) (*entity.Customer, error)

	// CustomerByStoreID returns the customer record referencing the given
	// store, if any.
	CustomerByStoreID(ctx context.Context, businessEntityID int64) (*entity.Customer, error)
}

// PgDirectory is the Postgres-backed Directory.
type PgDirectory struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPgDirectory(pool *pgxpool.Pool, logger *slog.Logger) *PgDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &PgDirectory{pool: pool, logger: logger}
}

const individualColumns = `"BusinessEntityID", "FirstName", "MiddleName", "LastName",
	"AddressType", "AddressLine1", "AddressLine2", "City",
	"StateProvinceName", "PostalCode", "CountryRegionName"`

func (d *PgDirectory) FindIndividual(ctx context.Context, firstName, lastName string) (*entity.IndividualDetail, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+individualColumns+`
		FROM "IndividualCustomers"
		WHERE "FirstName" ILIKE '%' || $1 || '%'
		  AND "LastName" ILIKE '%' || $2 || '%'
		ORDER BY "BusinessEntityID"
		LIMIT 1`, firstName, lastName)

	var ind entity.IndividualDetail
	err := row.Scan(
		&ind.BusinessEntityID, &ind.FirstName, &ind.MiddleName, &ind.LastName,
		&ind.AddressType, &ind.AddressLine1, &ind.AddressLine2, &ind.City,
		&ind.StateProvinceName, &ind.PostalCode, &ind.CountryRegionName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ind, nil
}

const storeColumns = `"BusinessEntityID", "Name",
	"AddressType", "AddressLine1", "AddressLine2", "City",
	"StateProvinceName", "PostalCode", "CountryRegionName"`

func (d *PgDirectory) FindStore(ctx context.Context, name string) (*entity.StoreDetail, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+storeColumns+`
		FROM "StoreCustomers"
		WHERE "Name" ILIKE '%' || $1 || '%'
		ORDER BY "BusinessEntityID"
		LIMIT 1`, name)

	var st entity.StoreDetail
	err := row.Scan(
		&st.BusinessEntityID, &st.Name,
		&st.AddressType, &st.AddressLine1, &st.AddressLine2, &st.City,
		&st.StateProvinceName, &st.PostalCode, &st.CountryRegionName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (d *PgDirectory) CustomerByPersonID(ctx context.Context, businessEntityID int64) (*entity.Customer, error) {
	return d.customerBy(ctx, `"PersonID"`, businessEntityID)
}

func (d *PgDirectory) CustomerByStoreID(ctx context.Context, businessEntityID int64) (*entity.Customer, error) {
	return d.customerBy(ctx, `"StoreID"`, businessEntityID)
}

func (d *PgDirectory) customerBy(ctx context.Context, column string, id int64) (*entity.Customer, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT "CustomerID", "PersonID", "StoreID", "TerritoryID", "AccountNumber"
		FROM "Customers"
		WHERE `+column+` = $1
		ORDER BY "CustomerID"
		LIMIT 1`, id)

	var c entity.Customer
	err := row.Scan(&c.CustomerID, &c.PersonID, &c.StoreID, &c.TerritoryID, &c.AccountNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
