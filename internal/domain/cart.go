package domain

import "time"

const (
	MaxCartItems    = 50
	MaxItemQuantity = 10

	// CartTTL is measured from the last mutation, not from creation.
	CartTTL = 24 * time.Hour
)

type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusConverted CartStatus = "converted"
	CartStatusAbandoned CartStatus = "abandoned"
	CartStatusExpired   CartStatus = "expired"
	CartStatusMerged    CartStatus = "merged"
)

func (s CartStatus) String() string {
	return string(s)
}

type Totals struct {
	Subtotal float64 `bson:"subtotal" json:"subtotal"`
	Tax      float64 `bson:"tax" json:"tax"`
	Total    float64 `bson:"total" json:"total"`
}

type Cart struct {
	ID        string     `bson:"_id" json:"id"`
	SessionID string     `bson:"session_id" json:"sessionId"`
	Items     []CartItem `bson:"items" json:"items"`
	Status    CartStatus `bson:"status" json:"status"`
	Totals    Totals     `bson:"totals" json:"totals"`
	Version   int64      `bson:"version" json:"version"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
}

type CartItem struct {
	ID        string    `bson:"id" json:"id"`
	ProductID string    `bson:"product_id" json:"productId"`
	VariantID string    `bson:"variant_id,omitempty" json:"variantId,omitempty"`
	Name      string    `bson:"name,omitempty" json:"name,omitempty"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	UnitPrice float64   `bson:"unit_price" json:"unitPrice"`
	AddedAt   time.Time `bson:"added_at" json:"addedAt"`
}

func (c *Cart) IsActive() bool {
	return c.Status == CartStatusActive
}

// IsExpiredAt reports whether an active cart has outlived CartTTL at now.
// Carts already marked expired also report true.
func (c *Cart) IsExpiredAt(now time.Time) bool {
	if c.Status == CartStatusExpired {
		return true
	}
	return c.Status == CartStatusActive && now.Sub(c.UpdatedAt) > CartTTL
}

// FindItem returns the index of the line with the given item id, or -1.
func (c *Cart) FindItem(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// FindLine returns the index of the line for product+variant, or -1.
func (c *Cart) FindLine(productID, variantID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].VariantID == variantID {
			return i
		}
	}
	return -1
}

func ValidQuantity(q int) bool {
	return q >= 1 && q <= MaxItemQuantity
}
