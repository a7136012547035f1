package llm

// SystemPrompt frames every extraction call.
const SystemPrompt = "You are a data extraction expert. Extract structured data from invoices and sales documents and return only valid JSON."

// basePrompt instructs the model to emit a single JSON object with exactly
// three top-level keys. The field inventory mirrors the sales-order schema;
// CustomerID/TerritoryID stay null because they are matched from the
// directory after extraction.
const basePrompt = `Extract all relevant information from this invoice/sales document and return it as a JSON object with the exact structure below.

The JSON output must have exactly three top-level keys:
1. "header" - the SalesOrderHeader fields
2. "line_items" - array of SalesOrderDetail objects
3. "extracted_customer_name" - the customer name as it appears on the document (string or null), used for directory matching

For fields that cannot be determined from the document, use null.

"header" fields:
- SalesOrderNumber (string, optional)
- OrderDate (string in ISO format YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS, optional)
- DueDate (ISO date string, optional)
- ShipDate (ISO date string, optional)
- Status (integer, optional)
- OnlineOrderFlag (boolean, optional)
- PurchaseOrderNumber (string, optional)
- AccountNumber (string, optional)
- SalesPersonID (number, optional)
- BillToAddressID (integer, optional)
- ShipToAddressID (integer, optional)
- ShipMethodID (integer, optional)
- CreditCardID (number, optional)
- CreditCardApprovalCode (string, optional)
- CurrencyRateID (number, optional)
- SubTotal (number, optional)
- TaxAmt (number, optional)
- Freight (number, optional)
- TotalDue (number, optional)
- CustomerID (set to null - matched from the directory)
- TerritoryID (set to null - matched from the directory)

"line_items" fields for each row:
- OrderQty (integer, optional)
- ProductID (set to null - product matching not implemented)
- ProductDescription (string, optional; also known as the Product Name)
- SpecialOfferID (integer, optional)
- UnitPrice (number, optional)
- UnitPriceDiscount (number, optional)
- LineTotal (number, optional)
- CarrierTrackingNumber (string, optional)

Extraction guidelines:
- Extract dates in ISO format
- Extract all monetary values as numbers (not strings)
- Extract quantities as integers
- Extract the customer/billing name into "extracted_customer_name"
- Extract every line item from the invoice table

Return ONLY valid JSON, no additional text, markdown formatting, or commentary.`

// PageTextPrompt asks the vision model for a plain-text transcription of one
// rasterized page. Used by Tier-2 text recovery, not extraction.
const PageTextPrompt = "Extract all text from this image. Return only the raw text content, preserving the layout as closely as possible. Do not add any commentary."

// BuildTextPrompt appends the recovered document text to the fixed prompt.
func BuildTextPrompt(text string) string {
	return basePrompt + "\n\nDocument text:\n" + text
}

// BuildVisionPrompt is the fixed prompt for calls that attach the document
// image instead of text.
func BuildVisionPrompt() string {
	return basePrompt
}
