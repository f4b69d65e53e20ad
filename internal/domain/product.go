package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document field names, shared by the JSON and BSON encodings.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldPrice       = "price"
	FieldCategory    = "category"
	FieldDescription = "description"
	FieldCreatedAt   = "createdAt"
)

// ProjectableFields lists the fields a client may request in a projection, in render order.
var ProjectableFields = []string{FieldName, FieldPrice, FieldCategory, FieldDescription, FieldCreatedAt}

// Product is a single catalog document. The same shape backs both the
// "products" and "items" collections.
type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Price       float64            `json:"price" bson:"price"`
	Category    string             `json:"category" bson:"category"`
	Description string             `json:"description" bson:"description"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// Patch holds the mutable fields of an update; nil fields are left untouched.
type Patch struct {
	Name        *string
	Price       *float64
	Category    *string
	Description *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Category == nil && p.Description == nil
}

// Fields returns the patch as a field-name keyed map.
func (p Patch) Fields() map[string]interface{} {
	m := make(map[string]interface{}, 4)
	if p.Name != nil {
		m[FieldName] = *p.Name
	}
	if p.Price != nil {
		m[FieldPrice] = *p.Price
	}
	if p.Category != nil {
		m[FieldCategory] = *p.Category
	}
	if p.Description != nil {
		m[FieldDescription] = *p.Description
	}
	return m
}

// Apply merges the patch into a copy of doc.
func (p Patch) Apply(doc Product) Product {
	if p.Name != nil {
		doc.Name = *p.Name
	}
	if p.Price != nil {
		doc.Price = *p.Price
	}
	if p.Category != nil {
		doc.Category = *p.Category
	}
	if p.Description != nil {
		doc.Description = *p.Description
	}
	return doc
}

// Value returns the named field, or nil for an unknown name.
func (p Product) Value(field string) interface{} {
	switch field {
	case FieldID:
		return p.ID
	case FieldName:
		return p.Name
	case FieldPrice:
		return p.Price
	case FieldCategory:
		return p.Category
	case FieldDescription:
		return p.Description
	case FieldCreatedAt:
		return p.CreatedAt
	}
	return nil
}

// Project renders only the requested fields plus the id.
func (p Product) Project(fields []string) map[string]interface{} {
	view := map[string]interface{}{FieldID: p.ID}
	for _, f := range fields {
		if v := p.Value(f); v != nil {
			view[f] = v
		}
	}
	return view
}

// IsProjectable reports whether a client may name field in a projection.
func IsProjectable(field string) bool {
	for _, f := range ProjectableFields {
		if f == field {
			return true
		}
	}
	return false
}

// NewProduct stamps the creation time with the millisecond precision the
// document store keeps, so a read returns exactly what was written.
func NewProduct(name string, price float64, category, description string) Product {
	return Product{
		Name:        name,
		Price:       price,
		Category:    category,
		Description: description,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
}
