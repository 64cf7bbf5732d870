package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"asc", "ASC"},
		{"ASC", "ASC"},
		{"  Asc  ", "ASC"},
		{"desc", "DESC"},
		{"DESC", "DESC"},
		{"", "DESC"},
		{"ascending", "DESC"},
		{"1; DROP TABLE orders", "DESC"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateSortOrder(tt.in), "input %q", tt.in)
	}
}

func TestValidateSortField(t *testing.T) {
	allowed := AuditLogSortFields

	t.Run("accepts whitelisted fields", func(t *testing.T) {
		assert.Equal(t, "created_at", ValidateSortField("created_at", allowed, "created_at"))
		assert.Equal(t, "action", ValidateSortField("action", allowed, "created_at"))
		assert.Equal(t, "response_status", ValidateSortField(" response_status ", allowed, "created_at"))
	})

	t.Run("falls back on empty or unknown fields", func(t *testing.T) {
		assert.Equal(t, "created_at", ValidateSortField("", allowed, "created_at"))
		assert.Equal(t, "created_at", ValidateSortField("error_message", allowed, "created_at"))
		assert.Equal(t, "created_at", ValidateSortField("created_at; DELETE FROM audit_logs", allowed, "created_at"))
	})
}
