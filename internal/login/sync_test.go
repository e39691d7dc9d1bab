package login

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nickbroon/vyatta-cfg-system/internal/configd"
	"github.com/nickbroon/vyatta-cfg-system/internal/cryptpw"
	"github.com/nickbroon/vyatta-cfg-system/internal/passwd"
	"github.com/nickbroon/vyatta-cfg-system/internal/usercmd"
)

type fakeClient struct {
	trees    map[configd.Database]map[string]any
	statuses map[string]configd.Status
}

func (f *fakeClient) TreeGet(db configd.Database, _ []string) (map[string]any, error) {
	return f.trees[db], nil
}

func (f *fakeClient) NodeGetStatus(_ configd.Database, path []string) (configd.Status, error) {
	return f.statuses[path[len(path)-1]], nil
}

func (f *fakeClient) Close() error { return nil }

type fakeCmds struct {
	added      []usercmd.AddUserArgs
	modded     []usercmd.ModUserArgs
	deleted    []string
	locked     []string
	killed     []string
	sandboxed  []string
	tallyReset []string

	delErr map[string]error
}

func (f *fakeCmds) UserAdd(a usercmd.AddUserArgs) error {
	f.added = append(f.added, a)
	return nil
}

func (f *fakeCmds) UserMod(a usercmd.ModUserArgs) error {
	f.modded = append(f.modded, a)
	return nil
}

func (f *fakeCmds) UserDel(name string, _ bool) error {
	if err := f.delErr[name]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *fakeCmds) LockPassword(name string) error {
	f.locked = append(f.locked, name)
	return nil
}

func (f *fakeCmds) KillUserProcesses(name string) error {
	f.killed = append(f.killed, name)
	return nil
}

func (f *fakeCmds) StopSandbox(name string) error {
	f.sandboxed = append(f.sandboxed, name)
	return nil
}

func (f *fakeCmds) ResetFailCount(name string) error {
	f.tallyReset = append(f.tallyReset, name)
	return nil
}

func (f *fakeCmds) LoggedInUsers() ([]string, error) { return nil, nil }

// newTestSync builds a Sync against fixture passwd/group/level files.
func newTestSync(t *testing.T, client *fakeClient, cmds *fakeCmds) *Sync {
	t.Helper()
	dir := t.TempDir()

	home := filepath.Join(dir, "home")
	passwdFile := filepath.Join(dir, "passwd")
	groupFile := filepath.Join(dir, "group")
	levelFile := filepath.Join(dir, "level")

	passwdContent := "root:x:0:0:root:/root:/bin/bash\n" +
		"alice:x:1000:100:Alice:" + filepath.Join(home, "alice") + ":/bin/vbash\n" +
		"bob:x:1001:100:Bob:" + filepath.Join(home, "bob") + ":/bin/vbash\n" +
		"carol:x:1002:100:Carol:" + filepath.Join(home, "carol") + ":/bin/vbash\n" +
		"dave:x:1003:100:Dave:" + filepath.Join(home, "dave") + ":/bin/vbash\n"
	// Only dave carries a managed group without a config entry; the
	// other accounts are exercised through the config trees.
	groupContent := "users:x:100:\n" +
		"vyattacfg:x:900:dave\n" +
		"vyattaop:x:901:\n"
	levelContent := "# privilege levels\n" +
		"admin:vyattacfg,sudo\n" +
		"operator:vyattaop\n"

	require.NoError(t, os.WriteFile(passwdFile, []byte(passwdContent), 0644))
	require.NoError(t, os.WriteFile(groupFile, []byte(groupContent), 0644))
	require.NoError(t, os.WriteFile(levelFile, []byte(levelContent), 0644))

	s := New(client, cmds)
	s.DB = &passwd.DB{PasswdPath: passwdFile, GroupPath: groupFile}
	s.LevelFile = levelFile
	s.CurrentLogin = ""
	return s
}

func userTree(users map[string]any) map[string]any {
	return map[string]any{"user": users}
}

func TestUpdateAddsConfiguredUser(t *testing.T) {
	hash := "$6$somesalt$somehash"
	client := &fakeClient{
		trees: map[configd.Database]map[string]any{
			configd.Candidate: userTree(map[string]any{
				"alice": map[string]any{
					"level":     "admin",
					"full-name": "Alice A",
					"group":     []any{"ops"},
					"authentication": map[string]any{
						"encrypted-password": hash,
					},
				},
			}),
			configd.Running: {},
		},
		statuses: map[string]configd.Status{"alice": configd.Added},
	}
	cmds := &fakeCmds{}
	s := newTestSync(t, client, cmds)

	require.NoError(t, s.Update())

	require.Len(t, cmds.added, 1)
	a := cmds.added[0]
	require.Equal(t, "alice", a.Name)
	require.Equal(t, hash, a.PasswordHash)
	require.Equal(t, "Alice A", a.FullName)
	require.Equal(t, "/bin/vbash", a.Shell)
	require.Equal(t, []string{"vyattacfg", "sudo", "ops"}, a.Groups)
	require.Equal(t, []string{"alice"}, cmds.tallyReset)
	require.Empty(t, cmds.modded)
}

func TestUpdateHashesPlaintextPassword(t *testing.T) {
	client := &fakeClient{
		trees: map[configd.Database]map[string]any{
			configd.Candidate: userTree(map[string]any{
				"alice": map[string]any{
					"level": "admin",
					"authentication": map[string]any{
						"encrypted-password": "secret",
					},
				},
			}),
			configd.Running: {},
		},
		statuses: map[string]configd.Status{"alice": configd.Added},
	}
	cmds := &fakeCmds{}
	s := newTestSync(t, client, cmds)

	require.NoError(t, s.Update())

	require.Len(t, cmds.added, 1)
	hash := cmds.added[0].PasswordHash
	require.True(t, strings.HasPrefix(hash, "$6$"), "expected sha512-crypt hash, got %q", hash)
	require.NoError(t, cryptpw.Verify(hash, "secret"))
}

func TestUpdateLocksUserWithoutPassword(t *testing.T) {
	client := &fakeClient{
		trees: map[configd.Database]map[string]any{
			configd.Candidate: userTree(map[string]any{
				"alice": map[string]any{"level": "operator"},
			}),
			configd.Running: {},
		},
		statuses: map[string]configd.Status{"alice": configd.Added},
	}
	cmds := &fakeCmds{}
	s := newTestSync(t, client, cmds)

	require.NoError(t, s.Update())

	require.Len(t, cmds.added, 1)
	require.Equal(t, cryptpw.Locked, cmds.added[0].PasswordHash)
	require.Equal(t, []string{"vyattaop"}, cmds.added[0].Groups)
}

func TestUpdateModifiesChangedUser(t *testing.T) {
	hash := "$6$salt$other"
	userNode := userTree(map[string]any{
		"bob": map[string]any{
			"level":     "operator",
			"full-name": "Robert",
			"authentication": map[string]any{
				"encrypted-password": hash,
			},
		},
	})
	client := &fakeClient{
		trees: map[configd.Database]map[string]any{
			configd.Candidate: userNode,
			configd.Running:   userNode,
		},
		statuses: map[string]configd.Status{"bob": configd.Changed},
	}
	cmds := &fakeCmds{}
	s := newTestSync(t, client, cmds)

	require.NoError(t, s.Update())

	require.Len(t, cmds.modded, 1)
	m := cmds.modded[0]
	require.Equal(t, "bob", m.Name)
	require.Equal(t, hash, m.PasswordHash)
	require.Equal(t, "Robert", m.FullName)
	require.Equal(t, []string{"vyattaop"}, m.Groups)
	require.Empty(t, cmds.added)
	require.NotContains(t, cmds.deleted, "bob")
}

func TestUpdateUnknownLevelGetsNoLevelGroups(t *testing.T) {
	client := &fakeClient{
		trees: map[configd.Database]map[string]any{
			configd.Candidate: userTree(map[string]any{
				"alice": map[string]any{
					"level": "superuser",
					"group": "ops",
				},
			}),
			configd.Running: {},
		},
		statuses: map[string]configd.Status{"alice": configd.Added},
	}
	cmds := &fakeCmds{}
	s := newTestSync(t, client, cmds)

	require.NoError(t, s.Update())
	require.Len(t, cmds.added, 1)
	require.Equal(t, []string{"ops"}, cmds.added[0].Groups)
}

func TestUpdateDeletesRemovedUser(t *testing.T) {
	client := &fakeClient{
		trees: map[configd.Database]map[string]any{
			configd.Candidate: {},
			configd.Running: userTree(map[string]any{
				"bob": map[string]any{"level": "operator"},
			}),
		},
		statuses: map[string]configd.Status{},
	}
	cmds := &fakeCmds{}
	s := newTestSync(t, client, cmds)

	require.NoError(t, s.Update())

	require.Contains(t, cmds.deleted, "bob")
	require.Contains(t, cmds.killed, "bob")
	require.Contains(t, cmds.sandboxed, "bob")
}

func TestRootIsDisabledNeverDeleted(t *testing.T) {
	client := &fakeClient{
		trees: map[configd.Database]map[string]any{
			configd.Candidate: {},
			configd.Running: userTree(map[string]any{
				"root": map[string]any{"level": "admin"},
			}),
		},
		statuses: map[string]configd.Status{},
	}
	cmds := &fakeCmds{}
	s := newTestSync(t, client, cmds)

	require.NoError(t, s.Update())

	require.Equal(t, []string{"root"}, cmds.locked)
	require.NotContains(t, cmds.deleted, "root")
}

func TestCurrentLoginIsNeverDeleted(t *testing.T) {
	client := &fakeClient{
		trees: map[configd.Database]map[string]any{
			configd.Candidate: {},
			configd.Running: userTree(map[string]any{
				"carol": map[string]any{"level": "admin"},
			}),
		},
		statuses: map[string]configd.Status{},
	}
	cmds := &fakeCmds{}
	s := newTestSync(t, client, cmds)
	s.CurrentLogin = "carol"

	require.NoError(t, s.Update())

	require.NotContains(t, cmds.deleted, "carol")
	require.Empty(t, cmds.locked)
}

func TestStrayManagedAccountsAreReaped(t *testing.T) {
	// dave is in vyattacfg but nowhere in the config.
	client := &fakeClient{
		trees: map[configd.Database]map[string]any{
			configd.Candidate: userTree(map[string]any{
				"alice": map[string]any{"level": "admin"},
				"bob":   map[string]any{"level": "operator"},
				"carol": map[string]any{"level": "operator"},
			}),
			configd.Running: {},
		},
		statuses: map[string]configd.Status{},
	}
	cmds := &fakeCmds{}
	s := newTestSync(t, client, cmds)

	require.NoError(t, s.Update())

	require.Equal(t, []string{"dave"}, cmds.deleted)
}

func TestStrayDeletionFailureIsNotFatal(t *testing.T) {
	client := &fakeClient{
		trees: map[configd.Database]map[string]any{
			configd.Candidate: userTree(map[string]any{
				"alice": map[string]any{"level": "admin"},
				"bob":   map[string]any{"level": "operator"},
				"carol": map[string]any{"level": "operator"},
			}),
			configd.Running: {},
		},
		statuses: map[string]configd.Status{},
	}
	cmds := &fakeCmds{delErr: map[string]error{"dave": os.ErrPermission}}
	s := newTestSync(t, client, cmds)

	require.NoError(t, s.Update())
	require.Empty(t, cmds.deleted)
}
