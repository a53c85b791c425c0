package smmapi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"autosmm.ru/smm-bot/internal/common"
)

func TestValidateServiceID(t *testing.T) {
	tests := []struct {
		name string
		id   int64
		ok   bool
	}{
		{"минимум", 1, true},
		{"максимум", MaxServiceID, true},
		{"ноль", 0, false},
		{"отрицательный", -5, false},
		{"за пределом", MaxServiceID + 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServiceID(tt.id)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, common.ErrServiceIDRange)
			}
		})
	}
}

func TestValidateQuantity(t *testing.T) {
	tests := []struct {
		name string
		q    int64
		ok   bool
	}{
		{"минимум", 1, true},
		{"максимум", MaxQuantity, true},
		{"ноль", 0, false},
		{"отрицательное", -1, false},
		{"за пределом", MaxQuantity + 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuantity(tt.q)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, common.ErrQuantityRange)
			}
		})
	}
}

func TestValidateAPIKey(t *testing.T) {
	require.NoError(t, ValidateAPIKey("abcDEF123_-"))
	require.NoError(t, ValidateAPIKey(strings.Repeat("x", 10)))

	require.ErrorIs(t, ValidateAPIKey("short"), common.ErrInvalidAPIKey)
	require.ErrorIs(t, ValidateAPIKey("with space 123"), common.ErrInvalidAPIKey)
	require.ErrorIs(t, ValidateAPIKey("ключключключ"), common.ErrInvalidAPIKey)
}

func TestValidateURL(t *testing.T) {
	require.NoError(t, ValidateURL("https://smm.example/api/v2"))
	require.NoError(t, ValidateURL("http://localhost:8080"))

	require.ErrorIs(t, ValidateURL(""), common.ErrInvalidURL)
	require.ErrorIs(t, ValidateURL("ftp://smm.example"), common.ErrInvalidURL)
	require.ErrorIs(t, ValidateURL("https://"), common.ErrInvalidURL)
	require.ErrorIs(t, ValidateURL("не url"), common.ErrInvalidURL)
}
