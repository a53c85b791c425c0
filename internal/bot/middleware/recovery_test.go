package middleware

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecoverFromPanic(t *testing.T) {
	require.NotPanics(t, func() {
		defer RecoverFromPanic("test")
		panic("boom")
	})
}
