package login

import (
	"fmt"
	"os"
	osuser "os/user"

	"github.com/sirupsen/logrus"

	"github.com/nickbroon/vyatta-cfg-system/internal/configd"
	"github.com/nickbroon/vyatta-cfg-system/internal/cryptpw"
	"github.com/nickbroon/vyatta-cfg-system/internal/passwd"
	"github.com/nickbroon/vyatta-cfg-system/internal/usercmd"
)

// LoginPath is the config tree path this package owns.
var LoginPath = []string{"system", "login"}

// Commands is the slice of usercmd.Runner the sync needs; tests
// substitute a recorder.
type Commands interface {
	UserAdd(usercmd.AddUserArgs) error
	UserMod(usercmd.ModUserArgs) error
	UserDel(name string, removeHome bool) error
	LockPassword(name string) error
	KillUserProcesses(name string) error
	StopSandbox(name string) error
	ResetFailCount(name string) error
	LoggedInUsers() ([]string, error)
}

type Sync struct {
	Client configd.Client
	Cmds   Commands
	DB     *passwd.DB

	// LevelFile maps privilege levels to supplementary groups.
	LevelFile string
	// Shell is the login shell for configured users.
	Shell string
	// LoginGroups mark accounts as managed by this subsystem; an OS
	// account in one of them with no config entry is a stray.
	LoginGroups []string
	// CurrentLogin is the user owning the session that triggered the
	// sync. It is never deleted.
	CurrentLogin string

	levels map[string][]string
}

func New(client configd.Client, cmds Commands) *Sync {
	return &Sync{
		Client:       client,
		Cmds:         cmds,
		DB:           passwd.NewDefault(),
		LevelFile:    DefaultLevelFile,
		Shell:        "/bin/vbash",
		LoginGroups:  []string{"vyattacfg", "vyattaop"},
		CurrentLogin: resolveLogin(cmds),
	}
}

// resolveLogin finds the user behind the current session. Under the
// config daemon LOGNAME is usually absent, so fall back through
// sudo's bookkeeping, the process owner, and finally who(1).
func resolveLogin(cmds Commands) string {
	if u := os.Getenv("SUDO_USER"); u != "" {
		return u
	}
	if u := os.Getenv("LOGNAME"); u != "" {
		return u
	}
	if cur, err := osuser.Current(); err == nil && cur.Username != "root" {
		return cur.Username
	}
	if cmds != nil {
		if users, err := cmds.LoggedInUsers(); err == nil && len(users) > 0 {
			return users[0]
		}
	}
	return ""
}

// Update reconciles the OS account database with the candidate
// configuration: creates and modifies configured users, rewrites
// their authorized_keys, then removes users deleted from the config
// and any stray managed accounts.
func (s *Sync) Update() error {
	cand, err := s.Client.TreeGet(configd.Candidate, LoginPath)
	if err != nil {
		return fmt.Errorf("read candidate login tree: %w", err)
	}
	candUsers, err := UsersFromTree(cand)
	if err != nil {
		return err
	}

	configured := map[string]bool{}
	for _, u := range candUsers {
		configured[u.Name] = true
	}

	for _, u := range candUsers {
		st, err := s.Client.NodeGetStatus(configd.Candidate, userPath(u.Name))
		if err != nil {
			return fmt.Errorf("status of user %s: %w", u.Name, err)
		}
		switch st {
		case configd.Added:
			if err := s.addUser(u); err != nil {
				return err
			}
		case configd.Changed:
			if err := s.modUser(u); err != nil {
				return err
			}
		}
		// Key material lives below the user node, so a keys-only edit
		// can leave the user node UNCHANGED. Rewriting is idempotent.
		if err := s.writeAuthorizedKeys(u); err != nil {
			return err
		}
	}

	run, err := s.Client.TreeGet(configd.Running, LoginPath)
	if err != nil {
		return fmt.Errorf("read running login tree: %w", err)
	}
	runUsers, err := UsersFromTree(run)
	if err != nil {
		return err
	}
	for _, u := range runUsers {
		if configured[u.Name] {
			continue
		}
		logrus.WithField("user", u.Name).Info("removing deleted login user")
		if err := s.deleteUser(u.Name); err != nil {
			return err
		}
	}

	s.reapStrays(configured)
	return nil
}

func userPath(name string) []string {
	return append(append([]string{}, LoginPath...), "user", name)
}

func (s *Sync) addUser(u User) error {
	logrus.WithField("user", u.Name).Info("adding login user")
	err := s.Cmds.UserAdd(usercmd.AddUserArgs{
		Name:         u.Name,
		PasswordHash: s.passwordHash(u),
		FullName:     u.FullName,
		Home:         u.HomeDir,
		Shell:        s.Shell,
		Groups:       s.accountGroups(u),
	})
	if err != nil {
		return fmt.Errorf("add user %s: %w", u.Name, err)
	}
	s.resetFailCount(u.Name)
	return nil
}

func (s *Sync) modUser(u User) error {
	logrus.WithField("user", u.Name).Info("updating login user")
	err := s.Cmds.UserMod(usercmd.ModUserArgs{
		Name:         u.Name,
		PasswordHash: s.passwordHash(u),
		FullName:     u.FullName,
		Groups:       s.accountGroups(u),
	})
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.Name, err)
	}
	s.resetFailCount(u.Name)
	return nil
}

// deleteUser removes an account, with two guards: root is disabled
// rather than deleted, and the session user that triggered the sync
// is left alone.
func (s *Sync) deleteUser(name string) error {
	if name == "root" {
		logrus.Warn("disabling root account password instead of deleting")
		if err := s.Cmds.LockPassword("root"); err != nil {
			return fmt.Errorf("lock root password: %w", err)
		}
		return nil
	}
	if name == s.CurrentLogin {
		logrus.WithField("user", name).Warn("not deleting the current login user")
		return nil
	}
	if err := s.Cmds.KillUserProcesses(name); err != nil {
		logrus.WithError(err).WithField("user", name).Warn("could not terminate user sessions")
	}
	if err := s.Cmds.StopSandbox(name); err != nil {
		logrus.WithError(err).WithField("user", name).Warn("could not stop user sandbox")
	}
	if err := s.Cmds.UserDel(name, true); err != nil {
		return fmt.Errorf("delete user %s: %w", name, err)
	}
	return nil
}

// reapStrays deletes OS accounts that carry a managed login group but
// have no config entry. Everything here is best effort.
func (s *Sync) reapStrays(configured map[string]bool) {
	groups, err := s.DB.Groups()
	if err != nil {
		logrus.WithError(err).Warn("cannot read group database; skipping stray account cleanup")
		return
	}
	users, err := s.DB.Users()
	if err != nil {
		logrus.WithError(err).Warn("cannot read password database; skipping stray account cleanup")
		return
	}
	managed := groups.MembersOf(s.LoginGroups...)
	for _, e := range users.List() {
		if !managed[e.Name] || configured[e.Name] {
			continue
		}
		logrus.WithField("user", e.Name).Warn("removing stray login account")
		if err := s.deleteUser(e.Name); err != nil {
			logrus.WithError(err).WithField("user", e.Name).Warn("could not remove stray account")
		}
	}
}

// passwordHash returns the shadow field for a user. A configured
// value that is not already a crypt hash gets hashed here so it never
// reaches the shadow file verbatim; no password means a locked
// account.
func (s *Sync) passwordHash(u User) string {
	p := u.EncryptedPassword
	if p == "" {
		logrus.WithField("user", u.Name).Warn("no encrypted password configured; locking account password")
		return cryptpw.Locked
	}
	if cryptpw.IsHash(p) {
		return p
	}
	logrus.WithField("user", u.Name).Warn("configured password is not encrypted; hashing it")
	h, err := cryptpw.Hash(p)
	if err != nil {
		logrus.WithError(err).WithField("user", u.Name).Warn("password hashing failed; locking account password")
		return cryptpw.Locked
	}
	return h
}

func (s *Sync) accountGroups(u User) []string {
	seen := map[string]bool{}
	var out []string
	add := func(g string) {
		if g != "" && !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	for _, g := range s.levelGroups(u.Level) {
		add(g)
	}
	for _, g := range u.Groups {
		add(g)
	}
	return out
}

func (s *Sync) levelGroups(level string) []string {
	if s.levels == nil {
		levels, err := LoadLevels(s.LevelFile)
		if err != nil {
			logrus.WithError(err).Warn("cannot read level file; users get no level groups")
			levels = map[string][]string{}
		}
		s.levels = levels
	}
	if level == "" {
		return nil
	}
	groups, ok := s.levels[level]
	if !ok {
		logrus.WithField("level", level).Warn("unknown privilege level")
		return nil
	}
	return groups
}

func (s *Sync) resetFailCount(name string) {
	if err := s.Cmds.ResetFailCount(name); err != nil {
		logrus.WithError(err).WithField("user", name).Warn("could not reset PAM failure count")
	}
}
