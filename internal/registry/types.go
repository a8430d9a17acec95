// Package registry is the client gateway to the on-chain property share
// registry: stateless reads over current contract state and guarded
// mutations wrapped in the submit / wait-for-finality lifecycle.
package registry

import "digipay-backend/internal/ledger"

// Property is the ledger-owned property record. The id is ordinal, assigned
// at creation and never reused; wei-denominated fields travel as strings.
type Property struct {
	ID            uint64         `json:"id"`
	Name          string         `json:"name"`
	Location      string         `json:"location"`
	Description   string         `json:"description"`
	ImageURI      string         `json:"imageUri"`
	TotalShares   uint64         `json:"totalShares"`
	PricePerShare *ledger.BigInt `json:"pricePerShare"`
	RentalYield   uint64         `json:"rentalYield"`
	PropertyOwner string         `json:"propertyOwner"`
	IsActive      bool           `json:"isActive"`
}

// ListParams are the creation arguments for listProperty. TotalShares and
// the owner are fixed at creation.
type ListParams struct {
	Name          string         `json:"name"`
	Location      string         `json:"location"`
	Description   string         `json:"description"`
	ImageURI      string         `json:"imageUri"`
	TotalShares   uint64         `json:"totalShares"`
	PricePerShare *ledger.BigInt `json:"pricePerShare"`
	RentalYield   uint64         `json:"rentalYield"`
}

// UpdateParams are the owner-mutable fields for updateProperty.
type UpdateParams struct {
	Name          string         `json:"name"`
	Location      string         `json:"location"`
	Description   string         `json:"description"`
	ImageURI      string         `json:"imageUri"`
	PricePerShare *ledger.BigInt `json:"pricePerShare"`
	RentalYield   uint64         `json:"rentalYield"`
	IsActive      bool           `json:"isActive"`
}

// Mutation is the settled outcome of a write. It exists only after finality
// was observed; there is no "probably succeeded" shape.
type Mutation struct {
	Success bool            `json:"success"`
	Hash    ledger.TxHash   `json:"hash"`
	Receipt *ledger.Receipt `json:"receipt"`
}
