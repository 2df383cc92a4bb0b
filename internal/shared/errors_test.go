package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvalidCredentialsCarryUnauthorized(t *testing.T) {
	// A failed login must surface as 401, so the credential sentinel has
	// to unwrap to the unauthorized one the HTTP layer maps.
	require.ErrorIs(t, ErrInvalidCredentials, ErrUnauthorized)
	require.NotErrorIs(t, ErrInvalidCredentials, ErrForbidden)
}
