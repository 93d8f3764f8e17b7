package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{fmt.Errorf("ws handshake: %w", ErrInvalidToken), KindAuthentication},
		{ErrUnauthenticated, KindAuthentication},
		{fmt.Errorf("register: %w", ErrDuplicateEmail), KindValidation},
		{ErrEmptyText, KindValidation},
		{ErrInvalidCredentials, KindValidation},
		{fmt.Errorf("delete: %w", ErrMessageNotFound), KindNotFound},
		{ErrForbidden, KindForbidden},
		{errors.New("connection refused"), KindPersistence},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, KindOf(tc.err), tc.err.Error())
	}
}

func TestPublic_HidesStorageDetails(t *testing.T) {
	require.Equal(t, "storage unavailable", Public(errors.New("dial tcp 10.0.0.1:5432: refused")))
	require.Equal(t, "message not found", Public(fmt.Errorf("chat.delete: %w", ErrMessageNotFound)))
	require.Equal(t, "invalid input: email is invalid", Public(fmt.Errorf("%w: email is invalid", ErrInvalidInput)))
}
