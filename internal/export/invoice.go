package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// InvoiceXLSX builds a workbook straight from an extraction result, without
// requiring the order to be persisted first. Same layout as the stored-order
// export: header label/value block, blank row, line item table.
func InvoiceXLSX(inv entity.ExtractedInvoice) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Extracted Invoice"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, err
	}
	if index, _ := f.GetSheetIndex(sheet); index != -1 {
		f.SetActiveSheet(index)
	}
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	h := inv.Header
	headerFields := []struct {
		label string
		value any
	}{
		{"ExtractedCustomerName", strOrEmpty(inv.ExtractedCustomerName)},
		{"SalesOrderNumber", strOrEmpty(h.SalesOrderNumber)},
		{"OrderDate", strOrEmpty(h.OrderDate)},
		{"DueDate", strOrEmpty(h.DueDate)},
		{"ShipDate", strOrEmpty(h.ShipDate)},
		{"PurchaseOrderNumber", strOrEmpty(h.PurchaseOrderNumber)},
		{"AccountNumber", strOrEmpty(h.AccountNumber)},
		{"CustomerID", numOrEmpty(h.CustomerID)},
		{"TerritoryID", numOrEmpty(h.TerritoryID)},
		{"SubTotal", floatOrEmpty(h.SubTotal)},
		{"TaxAmt", floatOrEmpty(h.TaxAmt)},
		{"Freight", floatOrEmpty(h.Freight)},
		{"TotalDue", floatOrEmpty(h.TotalDue)},
	}
	row := 1
	for _, hf := range headerFields {
		write(1, row, hf.label)
		write(2, row, hf.value)
		row++
	}
	row++

	itemHeaders := []string{
		"OrderQty", "ProductID", "ProductDescription",
		"UnitPrice", "UnitPriceDiscount", "LineTotal", "CarrierTrackingNumber",
	}
	for i, col := range itemHeaders {
		write(i+1, row, col)
	}
	row++
	for _, it := range inv.LineItems {
		write(1, row, intOrEmpty(it.OrderQty))
		write(2, row, numOrEmpty(it.ProductID))
		write(3, row, strOrEmpty(it.ProductDescription))
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
	return buf.Bytes(), nil
}

func intOrEmpty(n *int) any {
	if n == nil {
		return ""
	}
	return *n
}
