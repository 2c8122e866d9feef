package model

import "time"

// Product types match the catalog's fixed enumeration.
const (
	ProductTypeFood          = "food"
	ProductTypeClothing      = "clothing"
	ProductTypeService       = "service"
	ProductTypeSanitary      = "sanitary"
	ProductTypeEntertainment = "entertainment"
	ProductTypeOther         = "other"
)

// ProductTypes lists every valid product type.
var ProductTypes = []string{
	ProductTypeFood,
	ProductTypeClothing,
	ProductTypeService,
	ProductTypeSanitary,
	ProductTypeEntertainment,
	ProductTypeOther,
}

// ValidProductType reports whether t is one of the fixed product types.
func ValidProductType(t string) bool {
	for _, v := range ProductTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Product is a catalog product owned by a provider. Price is stored in the
// smallest currency unit. Deleted products keep their row with IsDeleted set;
// every read path filters them out explicitly.
type Product struct {
	ID         int64     `json:"id"`
	ProviderID int64     `json:"provider_id"`
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	Info       string    `json:"info"`
	Price      int64     `json:"price"`
	Stock      int64     `json:"stock"`
	IsActive   bool      `json:"is_active"`
	IsDeleted  bool      `json:"is_deleted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Package is a composite of products. TotalPrice is derived: it must equal
// the sum of the current member product prices after every membership or
// member-price mutation settles.
type Package struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	TargetGroup string    `json:"target_group"`
	TotalPrice  int64     `json:"total_price"`
	IsActive    bool      `json:"is_active"`
	ScoreSum    int64     `json:"score_sum"`
	ScoreCount  int64     `json:"score_count"`
	ProductIDs  []int64   `json:"product_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StockChange captures one product's stock before and after a bulk delta.
type StockChange struct {
	ProductID int64
	OldStock  int64
	NewStock  int64
}
