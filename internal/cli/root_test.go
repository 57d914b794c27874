package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "storefrontctl", cmd.Use)
	assert.Contains(t, cmd.Long, "STOREFRONT_USER")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	paths := [][]string{
		{"products"}, {"product"}, {"categories"},
		{"cart"}, {"cart", "add"}, {"cart", "set"}, {"cart", "remove"}, {"cart", "clear"},
		{"checkout"}, {"orders"}, {"review"}, {"profile"}, {"profile", "set"},
		{"whoami"}, {"signup"},
		{"admin"}, {"admin", "category", "create"}, {"admin", "product", "create"},
		{"admin", "product", "update"}, {"admin", "product", "delete"}, {"admin", "role"},
	}

	for _, path := range paths {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://backend.test/")
	t.Setenv("STOREFRONT_USER", "asha")
	cmd := NewRootCommand()

	backend := cmd.PersistentFlags().Lookup("backend")
	require.NotNil(t, backend)
	assert.Equal(t, "http://backend.test", backend.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	user := cmd.PersistentFlags().Lookup("user")
	require.NotNil(t, user)
	assert.Equal(t, "u", user.Shorthand)
	assert.Equal(t, "asha", user.DefValue)
}

func TestCheckoutCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	checkout, _, err := cmd.Find([]string{"checkout"})
	require.NoError(t, err)

	payment := checkout.Flags().Lookup("payment")
	require.NotNil(t, payment)
	assert.Equal(t, "COD", payment.DefValue)
	for _, name := range []string{"name", "phone", "address"} {
		assert.NotNil(t, checkout.Flags().Lookup(name), name)
	}
}
