package login

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUsersFromTree(t *testing.T) {
	tree := map[string]any{
		"user": map[string]any{
			"zoe": map[string]any{
				"level": "operator",
				"group": "ops",
			},
			"alice": map[string]any{
				"level":          "admin",
				"full-name":      "Alice A",
				"home-directory": "/home/alice",
				"group":          []any{"ops", "net"},
				"authentication": map[string]any{
					"encrypted-password": "$6$x$y",
					"public-keys": map[string]any{
						"work": map[string]any{
							"type":    "ssh-rsa",
							"key":     "AAAA",
							"options": "no-pty",
						},
						"home": map[string]any{
							"type": "ssh-ed25519",
							"key":  "BBBB",
						},
					},
				},
			},
		},
	}

	users, err := UsersFromTree(tree)
	require.NoError(t, err)
	require.Len(t, users, 2)

	// Sorted by name.
	alice, zoe := users[0], users[1]
	require.Equal(t, "alice", alice.Name)
	require.Equal(t, "zoe", zoe.Name)

	require.Equal(t, "admin", alice.Level)
	require.Equal(t, "Alice A", alice.FullName)
	require.Equal(t, "/home/alice", alice.HomeDir)
	require.Equal(t, []string{"ops", "net"}, alice.Groups)
	require.Equal(t, "$6$x$y", alice.EncryptedPassword)
	require.Equal(t, []PublicKey{
		{Name: "home", Type: "ssh-ed25519", Key: "BBBB"},
		{Name: "work", Type: "ssh-rsa", Key: "AAAA", Options: "no-pty"},
	}, alice.PublicKeys)

	// Single-valued leaf list arrives as a bare string.
	require.Equal(t, []string{"ops"}, zoe.Groups)
	require.Empty(t, zoe.EncryptedPassword)
}

func TestUsersFromTreeEmpty(t *testing.T) {
	users, err := UsersFromTree(map[string]any{})
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestUsersFromTreeBadShape(t *testing.T) {
	_, err := UsersFromTree(map[string]any{
		"user": map[string]any{"alice": "not a node"},
	})
	require.Error(t, err)
}
