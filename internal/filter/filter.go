// Package filter turns list query parameters into a backend-neutral Spec
// and evaluates that Spec in process for stores without a query engine.
package filter

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/talkincode/productapi/internal/domain"
)

// MaxLimit caps the page size a client may request.
const MaxLimit = 1000

// Query parameter names.
const (
	ParamCategory = "category"
	ParamMinPrice = "minPrice"
	ParamMaxPrice = "maxPrice"
	ParamSort     = "sort"
	ParamFields   = "fields"
	ParamSkip     = "skip"
	ParamLimit    = "limit"
)

// Criteria are equality and range conditions; nil members do not constrain.
type Criteria struct {
	Category *string
	MinPrice *float64
	MaxPrice *float64
}

// IsEmpty reports whether every document matches.
func (c Criteria) IsEmpty() bool {
	return c.Category == nil && c.MinPrice == nil && c.MaxPrice == nil
}

// Order is a single-field ordering.
type Order struct {
	Field      string
	Descending bool
}

// Spec is the structured description of a list request.
type Spec struct {
	Filter     Criteria
	Sort       *Order
	Projection []string
	Skip       int64
	Limit      int64
}

// sortTokens maps the recognised sort parameter values to orderings.
var sortTokens = map[string]Order{
	"price":         {Field: domain.FieldPrice},
	"priceDesc":     {Field: domain.FieldPrice, Descending: true},
	"name":          {Field: domain.FieldName},
	"nameDesc":      {Field: domain.FieldName, Descending: true},
	"createdAt":     {Field: domain.FieldCreatedAt},
	"createdAtDesc": {Field: domain.FieldCreatedAt, Descending: true},
}

// Build parses list query parameters. Numeric parameters are strict: a value
// that does not parse is an error rather than being dropped. An unknown sort
// token means natural order.
func Build(q url.Values) (Spec, error) {
	var spec Spec

	if v := strings.TrimSpace(q.Get(ParamCategory)); v != "" {
		spec.Filter.Category = &v
	}

	var err error
	if spec.Filter.MinPrice, err = parsePrice(q, ParamMinPrice); err != nil {
		return Spec{}, err
	}
	if spec.Filter.MaxPrice, err = parsePrice(q, ParamMaxPrice); err != nil {
		return Spec{}, err
	}

	if o, ok := sortTokens[strings.TrimSpace(q.Get(ParamSort))]; ok {
		spec.Sort = &o
	}

	if spec.Projection, err = parseFields(q.Get(ParamFields)); err != nil {
		return Spec{}, err
	}

	if spec.Skip, err = parseCount(q, ParamSkip); err != nil {
		return Spec{}, err
	}
	if spec.Limit, err = parseCount(q, ParamLimit); err != nil {
		return Spec{}, err
	}
	if spec.Limit > MaxLimit {
		spec.Limit = MaxLimit
	}
	return spec, nil
}

func parsePrice(q url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, domain.NewQueryError("%s must be a number", name)
	}
	return &v, nil
}

func parseCount(q url.Values, name string) (int64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, domain.NewQueryError("%s must be a non-negative integer", name)
	}
	return v, nil
}

func parseFields(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var fields []string
	seen := map[string]bool{}
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" || f == domain.FieldID || seen[f] {
			continue
		}
		if !domain.IsProjectable(f) {
			return nil, domain.NewQueryError("unknown field %q", f)
		}
		seen[f] = true
		fields = append(fields, f)
	}
	return fields, nil
}
