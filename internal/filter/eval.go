package filter

import (
	"sort"
	"strings"

	"github.com/talkincode/productapi/internal/domain"
)

// Matches reports whether doc satisfies the filter criteria.
func (s Spec) Matches(doc domain.Product) bool {
	c := s.Filter
	if c.Category != nil && doc.Category != *c.Category {
		return false
	}
	if c.MinPrice != nil && doc.Price < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && doc.Price > *c.MaxPrice {
		return false
	}
	return true
}

// Apply filters, orders and pages docs, which must already be in insertion
// order. The sort is stable so equal keys keep that order.
func (s Spec) Apply(docs []domain.Product) []domain.Product {
	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		if s.Matches(d) {
			out = append(out, d)
		}
	}
	if s.Sort != nil {
		o := *s.Sort
		sort.SliceStable(out, func(i, j int) bool {
			c := compare(out[i], out[j], o.Field)
			if o.Descending {
				return c > 0
			}
			return c < 0
		})
	}
	if s.Skip > 0 {
		if s.Skip >= int64(len(out)) {
			return out[:0]
		}
		out = out[s.Skip:]
	}
	if s.Limit > 0 && s.Limit < int64(len(out)) {
		out = out[:s.Limit]
	}
	return out
}

func compare(a, b domain.Product, field string) int {
	switch field {
	case domain.FieldPrice:
		switch {
		case a.Price < b.Price:
			return -1
		case a.Price > b.Price:
			return 1
		}
		return 0
	case domain.FieldName:
		return strings.Compare(a.Name, b.Name)
	case domain.FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}
