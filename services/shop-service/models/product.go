package models

import "time"

type Product struct {
	ID          string     `json:"id" dynamodbav:"id" bson:"_id,omitempty"`
	Name        string     `json:"name" dynamodbav:"name" bson:"name"`
	Price       float64    `json:"price" dynamodbav:"price" bson:"price"`
	Description string     `json:"description" dynamodbav:"description" bson:"description"`
	Category    string     `json:"category,omitempty" dynamodbav:"category,omitempty" bson:"category,omitempty"`
	ImageURLs   []string   `json:"image_urls" dynamodbav:"image_urls" bson:"image_urls"`
	CreatedAt   time.Time  `json:"created_at" dynamodbav:"created_at" bson:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" dynamodbav:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// PrimaryImage is the first image, or "" when the product has none.
func (p *Product) PrimaryImage() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

// AdjacentImage steps step positions from current through the image list,
// wrapping at both ends. An unknown current starts from the primary image.
func (p *Product) AdjacentImage(current string, step int) string {
	n := len(p.ImageURLs)
	if n == 0 {
		return ""
	}
	idx := 0
	for i, u := range p.ImageURLs {
		if u == current {
			idx = i
			break
		}
	}
	return p.ImageURLs[((idx+step)%n+n)%n]
}

type ProductForm struct {
	Name        string  `json:"name" form:"name" label:"Name" validate:"required"`
	Price       float64 `json:"price" form:"price" label:"Price" validate:"required,gt=0"`
	Description string  `json:"description" form:"description" label:"Description"`
	Category    string  `json:"category" form:"category" label:"Category"`
}
