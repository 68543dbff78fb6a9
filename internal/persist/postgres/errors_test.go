package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fusiongo/server/internal/persist"
)

func TestMapErr(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, persist.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, persist.ErrDuplicateKey},
		{"fk violation", &pgconn.PgError{Code: "23503"}, persist.ErrIntegrity},
		{"connection failure", &pgconn.PgError{Code: "08006"}, persist.ErrConnectivity},
		{"deadline", context.DeadlineExceeded, persist.ErrConnectivity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapErr("op", tt.in)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("mapErr(nil) = %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("mapErr(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMapErrPreservesUnknown(t *testing.T) {
	base := errors.New("syntax error")
	got := mapErr("op", base)
	if !errors.Is(got, base) {
		t.Errorf("unknown error not wrapped: %v", got)
	}
	for _, sentinel := range []error{
		persist.ErrNotFound, persist.ErrDuplicateKey,
		persist.ErrIntegrity, persist.ErrConnectivity,
	} {
		if errors.Is(got, sentinel) {
			t.Errorf("unknown error mapped to %v", sentinel)
		}
	}
}
