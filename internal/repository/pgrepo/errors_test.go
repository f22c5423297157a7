package pgrepo

import (
	"context"
	"errors"
	"testing"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestConvertErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: domain.ErrRecordNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: domain.ErrDuplicateKey},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, want: domain.ErrTransient},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: domain.ErrTransient},
		{name: "connection failure", err: &pgconn.PgError{Code: "08006"}, want: domain.ErrTransient},
		{name: "admin shutdown", err: &pgconn.PgError{Code: "57P01"}, want: domain.ErrTransient},
		{name: "deadline", err: context.DeadlineExceeded, want: domain.ErrTransient},
		{name: "check violation", err: &pgconn.PgError{Code: "23514"}, want: domain.ErrUnknown},
		{name: "arbitrary", err: errors.New("boom"), want: domain.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertErr(tt.err, "doing %s", "work")
			assert.ErrorIs(t, got, tt.want)
			assert.Contains(t, got.Error(), "[repository/doing work]")
		})
	}

	assert.NoError(t, convertErr(nil, "nothing"))
}
