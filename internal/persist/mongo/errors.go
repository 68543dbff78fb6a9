package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fusiongo/server/internal/persist"
)

// mapErr translates driver failures into the persist error taxonomy,
// keeping the operation name in the message.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, persist.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %v: %w", op, err, persist.ErrDuplicateKey)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %v: %w", op, err, persist.ErrConnectivity)
	}
	return fmt.Errorf("%s: %w", op, err)
}
