package dashboard

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestClassifyAnnotatesPostgresErrors(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}

	err := classify(fmt.Errorf("query: %w", pgErr))

	require.ErrorContains(t, err, "postgres 42P01")
	var got *pgconn.PgError
	require.True(t, errors.As(err, &got))
	require.Equal(t, "42P01", got.Code)
}

func TestClassifyPassesThroughOtherErrors(t *testing.T) {
	base := errors.New("connection refused")
	require.Equal(t, base, classify(base))
}
