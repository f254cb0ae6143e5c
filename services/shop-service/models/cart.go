package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ProductID string  `json:"product_id" dynamodbav:"product_id" bson:"product_id"`
	Name      string  `json:"name" dynamodbav:"name" bson:"name"`
	Price     float64 `json:"price" dynamodbav:"price" bson:"price"`
	ImageURL  string  `json:"image_url,omitempty" dynamodbav:"image_url,omitempty" bson:"image_url,omitempty"`
	Quantity  int     `json:"quantity" dynamodbav:"quantity" bson:"quantity"`
}

// Subtotal is price × quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(i.Price).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart holds at most one line per product id, each with quantity >= 1.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewCart(userID string) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}}
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add puts one more unit of p in the cart, merging with an existing line.
func (c *Cart) Add(p Product) {
	if i := c.indexOf(p.ID); i >= 0 {
		c.Items[i].Quantity++
		return
	}
	c.Items = append(c.Items, CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		ImageURL:  p.PrimaryImage(),
		Quantity:  1,
	})
}

// Remove drops the line for productID; absent ids are a no-op.
func (c *Cart) Remove(productID string) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// SetQuantity replaces the quantity of an existing line. n <= 0 removes it.
// It reports whether the product was in the cart.
func (c *Cart) SetQuantity(productID string, n int) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	if n <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	}
	c.Items[i].Quantity = n
	return true
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalDecimal is Σ price × quantity, rounded to cents.
func (c *Cart) TotalDecimal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total.Round(2)
}

func (c *Cart) Total() float64 {
	return c.TotalDecimal().InexactFloat64()
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Summary renders "Ring A (2), Ring B (1)" for order emails.
func (c *Cart) Summary() string {
	return SummarizeItems(c.Items)
}

func SummarizeItems(items []CartItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s (%d)", it.Name, it.Quantity))
	}
	return strings.Join(parts, ", ")
}
