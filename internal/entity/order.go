package entity

// OrderHeader carries the order-level fields of an extracted invoice. Every
// field is independently optional: nil means the model could not determine it,
// which is a valid state rather than an error.
type OrderHeader struct {
	SalesOrderNumber       *string  `json:"SalesOrderNumber"`
	OrderDate              *string  `json:"OrderDate"` // ISO date, as extracted
	DueDate                *string  `json:"DueDate"`
	ShipDate               *string  `json:"ShipDate"`
	Status                 *int     `json:"Status"`
	OnlineOrderFlag        *bool    `json:"OnlineOrderFlag"`
	PurchaseOrderNumber    *string  `json:"PurchaseOrderNumber"`
	AccountNumber          *string  `json:"AccountNumber"`
	SalesPersonID          *int64   `json:"SalesPersonID"`
	BillToAddressID        *int64   `json:"BillToAddressID"`
	ShipToAddressID        *int64   `json:"ShipToAddressID"`
	ShipMethodID           *int64   `json:"ShipMethodID"`
	CreditCardID           *int64   `json:"CreditCardID"`
	CreditCardApprovalCode *string  `json:"CreditCardApprovalCode"`
	CurrencyRateID         *int64   `json:"CurrencyRateID"`
	SubTotal               *float64 `json:"SubTotal"`
	TaxAmt                 *float64 `json:"TaxAmt"`
	Freight                *float64 `json:"Freight"`
	TotalDue               *float64 `json:"TotalDue"`
	CustomerID             *int64   `json:"CustomerID"`
	TerritoryID            *int64   `json:"TerritoryID"`
}

// OrderLineItem is one row of an invoice. Order within the parent slice is
// extraction order, not guaranteed to match document row order.
type OrderLineItem struct {
	OrderQty              *int     `json:"OrderQty"`
	ProductID             *int64   `json:"ProductID"`
	ProductDescription    *string  `json:"ProductDescription"`
	SpecialOfferID        *int64   `json:"SpecialOfferID"`
	UnitPrice             *float64 `json:"UnitPrice"`
	UnitPriceDiscount     *float64 `json:"UnitPriceDiscount"`
	LineTotal             *float64 `json:"LineTotal"`
	CarrierTrackingNumber *string  `json:"CarrierTrackingNumber"`
}

// ExtractedInvoice is the sanitized shape of a model reply: the three
// top-level keys the prompt demands. Missing keys decode to zero values.
type ExtractedInvoice struct {
	Header                OrderHeader     `json:"header"`
	LineItems             []OrderLineItem `json:"line_items"`
	ExtractedCustomerName *string         `json:"extracted_customer_name"`
}
