package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

// Service produces XLSX bytes for stored sales orders.
type Service struct {
	orders repository.SalesOrders
	logger *slog.Logger
}

func NewService(orders repository.SalesOrders, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{orders: orders, logger: logger}
}

// ExportOrderXLSX returns a workbook with an order's header fields and one
// row per line item.
func (s *Service) ExportOrderXLSX(ctx context.Context, orderID int64) ([]byte, error) {
	start := time.Now()

	order, items, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("query sales order: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Sales Order"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet excelize creates.
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	headerFields := []struct {
		label string
		value any
	}{
		{"SalesOrderID", order.SalesOrderID},
		{"SalesOrderNumber", strOrEmpty(order.SalesOrderNumber)},
		{"OrderDate", dateOrEmpty(order.OrderDate)},
		{"DueDate", dateOrEmpty(order.DueDate)},
		{"ShipDate", dateOrEmpty(order.ShipDate)},
		{"Status", numOrEmpty(order.Status)},
		{"PurchaseOrderNumber", strOrEmpty(order.PurchaseOrderNumber)},
		{"AccountNumber", strOrEmpty(order.AccountNumber)},
		{"CustomerID", order.CustomerID},
		{"TerritoryID", order.TerritoryID},
		{"SubTotal", floatOrEmpty(order.SubTotal)},
		{"TaxAmt", floatOrEmpty(order.TaxAmt)},
		{"Freight", floatOrEmpty(order.Freight)},
		{"TotalDue", floatOrEmpty(order.TotalDue)},
	}
	row := 1
	for _, hf := range headerFields {
		write(1, row, hf.label)
		write(2, row, hf.value)
		row++
	}
	row++

	itemHeaders := []string{
		"SalesOrderDetailID", "OrderQty", "ProductID",
		"UnitPrice", "UnitPriceDiscount", "LineTotal", "CarrierTrackingNumber",
	}
	for i, h := range itemHeaders {
		write(i+1, row, h)
	}
	row++
	for _, it := range items {
		write(1, row, it.SalesOrderDetailID)
		write(2, row, numOrEmpty(it.OrderQty))
		write(3, row, numOrEmpty(it.ProductID))
		write(4, row, floatOrEmpty(it.UnitPrice))
		write(5, row, floatOrEmpty(it.UnitPriceDiscount))
		write(6, row, floatOrEmpty(it.LineTotal))
		write(7, row, strOrEmpty(it.CarrierTrackingNumber))
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"sales_order_id", orderID,
		"line_items", len(items),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func numOrEmpty(n *int64) any {
	if n == nil {
		return ""
	}
	return *n
}

func floatOrEmpty(f *float64) any {
	if f == nil {
		return ""
	}
	return *f
}
