package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInherits_Reflexive(t *testing.T) {
	for _, r := range All() {
		assert.True(t, Inherits(r, r), "role %s must inherit itself", r)
	}
}

func TestInherits_Transitive(t *testing.T) {
	tests := []struct {
		current  Role
		required Role
		want     bool
	}{
		{Admin, Moderator, true},
		{Admin, User, true},
		{Moderator, User, true},
		{Moderator, Admin, false},
		{User, Moderator, false},
		{User, Admin, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Inherits(tt.current, tt.required),
			"Inherits(%s, %s)", tt.current, tt.required)
	}
}

func TestInherits_CycleFailsClosed(t *testing.T) {
	broken := map[Role][]Role{
		User:      {Admin},
		Moderator: {User},
		Admin:     {Moderator},
	}

	// Traversal must terminate and deny instead of spinning.
	assert.False(t, inherits(broken, User, Role("ROLE_GHOST"), map[Role]struct{}{}))
	assert.Error(t, validateHierarchy(broken))
}

func TestValidateHierarchy(t *testing.T) {
	require.NoError(t, ValidateHierarchy())

	unknown := map[Role][]Role{
		Admin: {Role("ROLE_GHOST")},
	}
	assert.Error(t, validateHierarchy(unknown))
}

func TestAnyInherits(t *testing.T) {
	assert.True(t, AnyInherits([]Role{User, Admin}, Moderator))
	assert.False(t, AnyInherits([]Role{User, Moderator}, Admin))
	assert.False(t, AnyInherits(nil, User))
}

func TestNormalize(t *testing.T) {
	got, err := Normalize([]string{" role_admin ", "ROLE_ADMIN", "role_user"})
	require.NoError(t, err)
	assert.Equal(t, []Role{Admin, User}, got)

	got, err = Normalize(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), got)

	_, err = Normalize([]string{"ROLE_SUPERUSER"})
	assert.Error(t, err)
}
