package login

import (
	"fmt"
	"sort"
)

// User is one configured system login user, as read from the config
// daemon's "system login user <name>" subtree.
type User struct {
	Name              string
	EncryptedPassword string
	Level             string
	FullName          string
	HomeDir           string
	Groups            []string
	PublicKeys        []PublicKey
}

// PublicKey is one entry under "authentication public-keys".
type PublicKey struct {
	Name    string
	Type    string
	Key     string
	Options string
}

// UsersFromTree decodes the subtree returned by TreeGet on the login
// path into user records, sorted by name.
func UsersFromTree(tree map[string]any) ([]User, error) {
	userNode, ok := tree["user"].(map[string]any)
	if !ok {
		return nil, nil
	}
	names := make([]string, 0, len(userNode))
	for name := range userNode {
		names = append(names, name)
	}
	sort.Strings(names)

	users := make([]User, 0, len(names))
	for _, name := range names {
		body, ok := userNode[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("user %q: unexpected node shape %T", name, userNode[name])
		}
		u := User{
			Name:     name,
			Level:    getString(body, "level"),
			FullName: getString(body, "full-name"),
			HomeDir:  getString(body, "home-directory"),
			Groups:   getStrings(body, "group"),
		}
		if auth, ok := body["authentication"].(map[string]any); ok {
			u.EncryptedPassword = getString(auth, "encrypted-password")
			u.PublicKeys = publicKeysFromNode(auth["public-keys"])
		}
		users = append(users, u)
	}
	return users, nil
}

func publicKeysFromNode(node any) []PublicKey {
	keyNode, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(keyNode))
	for name := range keyNode {
		names = append(names, name)
	}
	sort.Strings(names)

	keys := make([]PublicKey, 0, len(names))
	for _, name := range names {
		body, _ := keyNode[name].(map[string]any)
		keys = append(keys, PublicKey{
			Name:    name,
			Type:    getString(body, "type"),
			Key:     getString(body, "key"),
			Options: getString(body, "options"),
		})
	}
	return keys
}

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// getStrings accepts both a bare string and a list; the daemon
// collapses single-valued leaf lists.
func getStrings(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
