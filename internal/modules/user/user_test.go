package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("  Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	r, err = ParseRole("customer")
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, r)

	_, err = ParseRole("seller")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = ParseRole("")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestUserValidate(t *testing.T) {
	assert.NoError(t, User{ID: "u1", Role: RoleCustomer}.Validate())
	assert.ErrorIs(t, User{Role: RoleCustomer}.Validate(), ErrInvalidIdentity)
	assert.ErrorIs(t, User{ID: "u1", Role: "root"}.Validate(), ErrInvalidIdentity)
}

func TestNewRegistration(t *testing.T) {
	reg, err := NewRegistration(" Amy ", " AMY@x.com", "secret1", "admin")
	require.NoError(t, err)
	assert.Equal(t, Registration{Name: "Amy", Email: "amy@x.com", Password: "secret1", Role: RoleAdmin}, reg)

	cases := []struct {
		name                        string
		user, email, password, role string
		want                        error
	}{
		{"bad role", "Amy", "amy@x.com", "secret1", "owner", ErrInvalidRole},
		{"empty name", "  ", "amy@x.com", "secret1", "customer", ErrMissingName},
		{"bad email", "Amy", "amy@x", "secret1", "customer", ErrInvalidEmail},
		{"short password", "Amy", "amy@x.com", "abc", "customer", ErrPasswordTooShort},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegistration(tc.user, tc.email, tc.password, tc.role)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
