package entity

import "time"

// SalesOrder is the persisted order header. Unlike OrderHeader it carries a
// generated SalesOrderID, typed dates, and the mandatory customer/territory
// references filled in by resolution or by the caller.
type SalesOrder struct {
	SalesOrderID           int64      `json:"SalesOrderID"`
	RevisionNumber         *int64     `json:"RevisionNumber"`
	OrderDate              *time.Time `json:"OrderDate"`
	DueDate                *time.Time `json:"DueDate"`
	ShipDate               *time.Time `json:"ShipDate"`
	Status                 *int64     `json:"Status"`
	OnlineOrderFlag        *bool      `json:"OnlineOrderFlag"`
	SalesOrderNumber       *string    `json:"SalesOrderNumber"`
	PurchaseOrderNumber    *string    `json:"PurchaseOrderNumber"`
	AccountNumber          *string    `json:"AccountNumber"`
	CustomerID             int64      `json:"CustomerID"`
	SalesPersonID          *int64     `json:"SalesPersonID"`
	TerritoryID            int64      `json:"TerritoryID"`
	BillToAddressID        *int64     `json:"BillToAddressID"`
	ShipToAddressID        *int64     `json:"ShipToAddressID"`
	ShipMethodID           *int64     `json:"ShipMethodID"`
	CreditCardID           *int64     `json:"CreditCardID"`
	CreditCardApprovalCode *string    `json:"CreditCardApprovalCode"`
	CurrencyRateID         *int64     `json:"CurrencyRateID"`
	SubTotal               *float64   `json:"SubTotal"`
	TaxAmt                 *float64   `json:"TaxAmt"`
	Freight                *float64   `json:"Freight"`
	TotalDue               *float64   `json:"TotalDue"`
}

// SalesOrderItem is a persisted order line.
type SalesOrderItem struct {
	SalesOrderDetailID    int64    `json:"SalesOrderDetailID"`
	SalesOrderID          int64    `json:"SalesOrderID"`
	CarrierTrackingNumber *string  `json:"CarrierTrackingNumber"`
	OrderQty              *int64   `json:"OrderQty"`
	ProductID             *int64   `json:"ProductID"`
	SpecialOfferID        *int64   `json:"SpecialOfferID"`
	UnitPrice             *float64 `json:"UnitPrice"`
	UnitPriceDiscount     *float64 `json:"UnitPriceDiscount"`
	LineTotal             *float64 `json:"LineTotal"`
}
