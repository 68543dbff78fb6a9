package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fusiongo/server/internal/persist"
)

// SQLSTATE classes the store cares about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	classConnection         = "08"
)

// mapErr translates pgx failures into the persist error taxonomy, keeping
// the operation name in the message.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, persist.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return fmt.Errorf("%s (%s): %w", op, pgErr.ConstraintName, persist.ErrDuplicateKey)
		case pgErr.Code == codeForeignKeyViolation:
			return fmt.Errorf("%s (%s): %w", op, pgErr.ConstraintName, persist.ErrIntegrity)
		case strings.HasPrefix(pgErr.Code, classConnection):
			return fmt.Errorf("%s: %v: %w", op, err, persist.ErrConnectivity)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %v: %w", op, err, persist.ErrConnectivity)
	}
	return fmt.Errorf("%s: %w", op, err)
}
