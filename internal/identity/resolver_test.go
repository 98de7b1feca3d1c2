package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	resolver := NewResolver("unit-test-secret", "assistant-test")

	t.Run("missing credential resolves to public", func(t *testing.T) {
		role := resolver.Resolve("")
		assert.Equal(t, KindPublic, role.Kind)
		assert.False(t, role.Authenticated())
		assert.Empty(t, role.Identifier())
	})

	t.Run("garbage credential resolves to public", func(t *testing.T) {
		role := resolver.Resolve("not-a-token")
		assert.Equal(t, KindPublic, role.Kind)
	})

	t.Run("student token", func(t *testing.T) {
		token, err := resolver.StudentToken("17", "Budi Santoso", "12345", time.Hour)
		require.NoError(t, err)

		role := resolver.Resolve(token)
		assert.Equal(t, KindStudent, role.Kind)
		assert.Equal(t, "17", role.IdentityID)
		assert.Equal(t, "Budi Santoso", role.DisplayName)
		assert.Equal(t, "12345", role.AcademicID)
		assert.Equal(t, "user_17", role.Identifier())
	})

	t.Run("admin token", func(t *testing.T) {
		token, err := resolver.AdminToken("3", "Admin", time.Hour)
		require.NoError(t, err)

		role := resolver.Resolve(token)
		assert.Equal(t, KindAdmin, role.Kind)
		assert.Equal(t, "3", role.IdentityID)
		assert.Empty(t, role.AcademicID)
	})

	t.Run("expired token resolves to public", func(t *testing.T) {
		token, err := resolver.StudentToken("17", "Budi", "12345", -time.Minute)
		require.NoError(t, err)

		role := resolver.Resolve(token)
		assert.Equal(t, KindPublic, role.Kind)
	})

	t.Run("token signed with another secret resolves to public", func(t *testing.T) {
		other := NewResolver("different-secret", "assistant-test")
		token, err := other.StudentToken("17", "Budi", "12345", time.Hour)
		require.NoError(t, err)

		role := resolver.Resolve(token)
		assert.Equal(t, KindPublic, role.Kind)
	})
}
