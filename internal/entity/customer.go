package entity

// Customer is the core directory record linking a person or store detail to
// territory and account data. Exactly one of PersonID/StoreID references a
// detail record.
type Customer struct {
	CustomerID    int64   `json:"CustomerID"`
	PersonID      *int64  `json:"PersonID"`
	StoreID       *int64  `json:"StoreID"`
	TerritoryID   int64   `json:"TerritoryID"`
	AccountNumber *string `json:"AccountNumber"`
}

// IndividualDetail holds the person-specific attributes of a customer.
type IndividualDetail struct {
	BusinessEntityID  int64   `json:"BusinessEntityID"`
	FirstName         *string `json:"FirstName"`
	MiddleName        *string `json:"MiddleName"`
	LastName          *string `json:"LastName"`
	AddressType       *string `json:"AddressType"`
	AddressLine1      *string `json:"AddressLine1"`
	AddressLine2      *string `json:"AddressLine2"`
	City              *string `json:"City"`
	StateProvinceName *string `json:"StateProvinceName"`
	PostalCode        *string `json:"PostalCode"`
	CountryRegionName *string `json:"CountryRegionName"`
}

// StoreDetail holds the organization-specific attributes of a customer.
type StoreDetail struct {
	BusinessEntityID  int64   `json:"BusinessEntityID"`
	Name              *string `json:"Name"`
	AddressType       *string `json:"AddressType"`
	AddressLine1      *string `json:"AddressLine1"`
	AddressLine2      *string `json:"AddressLine2"`
	City              *string `json:"City"`
	StateProvinceName *string `json:"StateProvinceName"`
	PostalCode        *string `json:"PostalCode"`
	CountryRegionName *string `json:"CountryRegionName"`
}

// MatchKind tags which detail variant a resolution landed on.
type MatchKind string

const (
	MatchNone       MatchKind = "none"
	MatchIndividual MatchKind = "individual"
	MatchStore      MatchKind = "store"
)

// CustomerDetail is the tagged either-individual-or-store variant. Kind
// selects which pointer is set; consumers switch on Kind rather than probing
// for nils.
type CustomerDetail struct {
	Kind       MatchKind         `json:"kind"`
	Individual *IndividualDetail `json:"individual,omitempty"`
	Store      *StoreDetail      `json:"store,omitempty"`
}

// MatchResult is the outcome of resolving a candidate name. A zero Customer
// with Kind MatchNone is a normal outcome, not an error.
type MatchResult struct {
	Customer *Customer      `json:"customer"`
	Detail   CustomerDetail `json:"customer_detail"`
}

// Matched reports whether resolution found a customer record.
func (m MatchResult) Matched() bool {
	return m.Customer != nil
}
