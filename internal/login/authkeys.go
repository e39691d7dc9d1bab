package login

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nickbroon/vyatta-cfg-system/internal/fsutil"
	"github.com/nickbroon/vyatta-cfg-system/internal/passwd"
)

const authKeysHeader = "# Automatically generated by the Vyatta configuration subsystem.\n" +
	"# Do not edit, changes will be lost on configuration commit.\n"

// writeAuthorizedKeys regenerates ~/.ssh/authorized_keys from the
// configured key list. With no keys configured the file is left
// alone, except when an earlier run generated it, in which case it is
// rewritten to just the header.
func (s *Sync) writeAuthorizedKeys(u User) error {
	users, err := s.DB.Users()
	if err != nil {
		return fmt.Errorf("authorized_keys for %s: %w", u.Name, err)
	}
	ent := users.Find(u.Name)
	if ent == nil {
		return fmt.Errorf("authorized_keys for %s: %w", u.Name, passwd.ErrUserNotFound)
	}

	sshDir := filepath.Join(ent.Home, ".ssh")
	path := filepath.Join(sshDir, "authorized_keys")

	if len(u.PublicKeys) == 0 {
		if !generatedByUs(path) {
			return nil
		}
		logrus.WithField("user", u.Name).Info("clearing generated authorized_keys")
	}

	if err := fsutil.EnsureDir(sshDir, 0700); err != nil {
		return fmt.Errorf("authorized_keys for %s: %w", u.Name, err)
	}
	_ = os.Chown(sshDir, ent.UID, ent.GID)

	var b strings.Builder
	b.WriteString(authKeysHeader)
	for _, k := range u.PublicKeys {
		if k.Options != "" {
			b.WriteString(k.Options)
			b.WriteByte(' ')
		}
		b.WriteString(k.Type)
		b.WriteByte(' ')
		b.WriteString(k.Key)
		b.WriteByte(' ')
		b.WriteString(k.Name)
		b.WriteByte('\n')
	}
	if err := fsutil.WriteFileAtomic(path, []byte(b.String()), 0640); err != nil {
		return fmt.Errorf("authorized_keys for %s: %w", u.Name, err)
	}
	_ = os.Chown(path, ent.UID, ent.GID)
	return nil
}

func generatedByUs(path string) bool {
	b, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.HasPrefix(string(b), "# Automatically generated by the Vyatta configuration subsystem.")
}
