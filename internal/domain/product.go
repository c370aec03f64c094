package domain

import "github.com/shopspring/decimal"

// Product is the catalog projection this service reads for seller
// attribution. Catalog CRUD lives elsewhere.
type Product struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Seller string          `json:"seller"`
	Price  decimal.Decimal `json:"price"`
}
