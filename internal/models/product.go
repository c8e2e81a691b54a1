package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Price holds the wholesale and retail price of a product.
type Price struct {
	CostPrice    decimal.Decimal `json:"costPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
}

// Product is a listing owned by a seller within one of their shops.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    Ref      `json:"category"`
	Subcategory *Ref     `json:"subcategory,omitempty"`
	Shop        Ref      `json:"shop"`
	Seller      Ref      `json:"seller"`
	Stock       int      `json:"stock"`
	Price       Price    `json:"price"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images,omitempty"`
	Certificate string   `json:"certificate,omitempty"`
	IsActive    bool     `json:"isActive"`
}

// UnmarshalJSON maps the backend "_id" key onto ID.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var doc struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*p = Product(doc.plain)
	if p.ID == "" {
		p.ID = doc.MongoID
	}
	return nil
}

// ProductPayload is the structured part of a create-product request. It is
// sent JSON-encoded inside the "product" multipart field.
type ProductPayload struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Seller      string   `json:"seller"`
	Shop        string   `json:"shop"`
	Stock       int      `json:"stock"`
	Price       Price    `json:"price"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Subcategory *string  `json:"subcategory"`
}

// MarshalJSON writes both prices as JSON numbers.
func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CostPrice    json.Number `json:"costPrice"`
		SellingPrice json.Number `json:"sellingPrice"`
	}{
		CostPrice:    json.Number(p.CostPrice.String()),
		SellingPrice: json.Number(p.SellingPrice.String()),
	})
}
