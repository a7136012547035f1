package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) for the
// extraction reply as a generic map. It is advisory only: the parser never
// rejects a reply for schema deviations, it just surfaces them in logs.
func BuildInvoiceJSONSchema() map[string]any {
	nullable := func(t string) map[string]any {
		return map[string]any{"type": []string{t, "null"}}
	}
	headerProps := map[string]any{
		"SalesOrderNumber":       nullable("string"),
		"OrderDate":              nullable("string"),
		"DueDate":                nullable("string"),
		"ShipDate":               nullable("string"),
		"Status":                 nullable("integer"),
		"OnlineOrderFlag":        nullable("boolean"),
		"PurchaseOrderNumber":    nullable("string"),
		"AccountNumber":          nullable("string"),
		"SalesPersonID":          nullable("number"),
		"BillToAddressID":        nullable("integer"),
		"ShipToAddressID":        nullable("integer"),
		"ShipMethodID":           nullable("integer"),
		"CreditCardID":           nullable("number"),
		"CreditCardApprovalCode": nullable("string"),
		"CurrencyRateID":         nullable("number"),
		"SubTotal":               nullable("number"),
		"TaxAmt":                 nullable("number"),
		"Freight":                nullable("number"),
		"TotalDue":               nullable("number"),
		"CustomerID":             nullable("integer"),
		"TerritoryID":            nullable("integer"),
	}
	lineItemProps := map[string]any{
		"OrderQty":              nullable("integer"),
		"ProductID":             nullable("integer"),
		"ProductDescription":    nullable("string"),
		"SpecialOfferID":        nullable("integer"),
		"UnitPrice":             nullable("number"),
		"UnitPriceDiscount":     nullable("number"),
		"LineTotal":             nullable("number"),
		"CarrierTrackingNumber": nullable("string"),
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"header": map[string]any{
				"type":       []string{"object", "null"},
				"properties": headerProps,
			},
			"line_items": map[string]any{
				"type": []string{"array", "null"},
				"items": map[string]any{
					"type":       "object",
					"properties": lineItemProps,
				},
			},
			"extracted_customer_name": nullable("string"),
		},
	}
}

// ValidateAdvisory validates a sanitized reply payload against the invoice
// schema. Callers log the returned error and proceed; a deviation is never a
// pipeline failure.
func ValidateAdvisory(payload []byte) error {
	b, err := json.Marshal(BuildInvoiceJSONSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("invoice.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("invoice.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("reply does not match advisory schema: %w", err)
	}
	return nil
}
