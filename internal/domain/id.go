package domain

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseID converts an external identifier into the store's native ObjectID.
// Only the 24 character hexadecimal form is accepted.
func ParseID(raw string) (primitive.ObjectID, error) {
	if len(raw) != 24 {
		return primitive.NilObjectID, errors.Wrapf(ErrInvalidIdentifier, "%q", raw)
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, errors.Wrapf(ErrInvalidIdentifier, "%q", raw)
	}
	return id, nil
}
