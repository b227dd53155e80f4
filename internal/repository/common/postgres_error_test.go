package common

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/Taichi-iskw/voice-support/internal/errors"
)

func TestHandlePostgreSQLError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil", nil, ""},
		{"no rows", pgx.ErrNoRows, apperrors.CodeNotFound},
		{"plain error", errors.New("boom"), apperrors.CodeInternal},
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "chat_messages_pkey"}, apperrors.CodeConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, apperrors.CodeDependency},
		{"not null", &pgconn.PgError{Code: "23502", ColumnName: "transcript"}, apperrors.CodeInvalidArg},
		{"check", &pgconn.PgError{Code: "23514", ConstraintName: "chat_messages_role_check"}, apperrors.CodeInvalidArg},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, apperrors.CodeInternal},
		{"connection", &pgconn.PgError{Code: "08006"}, apperrors.CodeInternal},
		{"unknown", &pgconn.PgError{Code: "XX000"}, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HandlePostgreSQLError(tt.err, "op")
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
