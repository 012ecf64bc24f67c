package domain

// Product is the read model the cart core gets from the product directory.
type Product struct {
	ID         string    `bson:"_id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	Price      float64   `bson:"price" json:"price"`
	IsActive   bool      `bson:"is_active" json:"isActive"`
	CategoryID string    `bson:"category_id,omitempty" json:"categoryId,omitempty"`
	Inventory  StockInfo `bson:"inventory" json:"inventory"`
}

// StockInfo contains stock information for a product
type StockInfo struct {
	Quantity int `bson:"quantity" json:"quantity"` // on hand
	Reserved int `bson:"reserved" json:"reserved"` // held by unconfirmed carts and orders
}

// Available returns the available stock (on hand - reserved)
func (s StockInfo) Available() int {
	return s.Quantity - s.Reserved
}
