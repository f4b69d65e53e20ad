package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseID(t *testing.T) {
	id, err := ParseID("697b4dea52290e814b30eb76")
	require.NoError(t, err)
	assert.Equal(t, "697b4dea52290e814b30eb76", id.Hex())

	upper, err := ParseID("697B4DEA52290E814B30EB76")
	require.NoError(t, err)
	assert.Equal(t, id, upper)

	for _, raw := range []string{
		"",
		"123",
		"697b4dea52290e814b30eb7",
		"697b4dea52290e814b30eb766",
		"697b4dea52290e814b30eb7z",
		"not-a-valid-object-id!!",
		"abcdefghijkl",
	} {
		_, err := ParseID(raw)
		assert.ErrorIs(t, err, ErrInvalidIdentifier, raw)
	}
}

func TestPatch(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())

	price := 12.0
	p := Patch{Price: &price}
	assert.False(t, p.IsEmpty())
	assert.Equal(t, map[string]interface{}{FieldPrice: 12.0}, p.Fields())

	doc := Product{Name: "Widget", Price: 10, Category: "Tools"}
	out := p.Apply(doc)
	assert.Equal(t, 12.0, out.Price)
	assert.Equal(t, "Widget", out.Name)
	assert.Equal(t, 10.0, doc.Price, "apply works on a copy")
}

func TestProject(t *testing.T) {
	doc := Product{ID: primitive.NewObjectID(), Name: "Phone", Price: 999, Category: "Electronics"}
	view := doc.Project([]string{FieldName, FieldPrice})
	assert.Len(t, view, 3)
	assert.Equal(t, doc.ID, view[FieldID])
	assert.Equal(t, "Phone", view[FieldName])
	assert.Equal(t, 999.0, view[FieldPrice])
	assert.NotContains(t, view, FieldCategory)

	assert.True(t, IsProjectable(FieldCreatedAt))
	assert.False(t, IsProjectable("secret"))
}

func TestInputError(t *testing.T) {
	err := NewValidationError("%s is required", "name")
	assert.Equal(t, "name is required", err.Error())
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrInvalidQuery)

	var in *InputError
	require.True(t, errors.As(NewQueryError("bad"), &in))
	assert.ErrorIs(t, in, ErrInvalidQuery)
}

func TestNewProductStampsCreatedAt(t *testing.T) {
	p := NewProduct("Widget", 10, "Tools", "")
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, 0, p.CreatedAt.Nanosecond()%1e6)
	assert.True(t, p.ID.IsZero())
}
