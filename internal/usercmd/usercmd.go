package usercmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner invokes the shadow-suite account commands. Each call runs
// under its own timeout and surfaces the command's stderr in the
// returned error.
type Runner struct {
	Timeout time.Duration
}

func New() *Runner {
	return &Runner{Timeout: 10 * time.Second}
}

func (r *Runner) run(name string, args ...string) error {
	_, err := r.output(name, args...)
	return err
}

func (r *Runner) output(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		s := strings.TrimSpace(stderr.String())
		if s == "" {
			return stdout.String(), fmt.Errorf("%s %v: %w", name, args, err)
		}
		return stdout.String(), fmt.Errorf("%s %v: %s", name, args, s)
	}
	return stdout.String(), nil
}

// AddUserArgs carries everything useradd needs for a configured login
// user. Groups is the supplementary group list; the primary group is
// left to the system default (-N keeps useradd from minting a
// per-user group).
type AddUserArgs struct {
	Name         string
	PasswordHash string
	FullName     string
	Home         string
	Shell        string
	Groups       []string
}

func (r *Runner) UserAdd(a AddUserArgs) error {
	args := []string{"-s", a.Shell, "-m", "-N"}
	if a.FullName != "" {
		args = append(args, "-c", a.FullName)
	}
	if a.Home != "" {
		args = append(args, "-d", a.Home)
	}
	if len(a.Groups) > 0 {
		args = append(args, "-G", strings.Join(a.Groups, ","))
	}
	args = append(args, "-p", a.PasswordHash, a.Name)
	return r.run("useradd", args...)
}

type ModUserArgs struct {
	Name         string
	PasswordHash string
	FullName     string
	Groups       []string
}

func (r *Runner) UserMod(a ModUserArgs) error {
	args := []string{"-p", a.PasswordHash}
	if a.FullName != "" {
		args = append(args, "-c", a.FullName)
	}
	// -G replaces the supplementary list wholesale, which is exactly
	// the reconcile-to-config behaviour we want.
	args = append(args, "-G", strings.Join(a.Groups, ","), a.Name)
	return r.run("usermod", args...)
}

func (r *Runner) UserDel(name string, removeHome bool) error {
	args := []string{}
	if removeHome {
		args = append(args, "-r")
	}
	args = append(args, name)
	return r.run("userdel", args...)
}

// LockPassword disables password login without touching the account.
// Used for root, which must never be deleted.
func (r *Runner) LockPassword(name string) error {
	return r.run("usermod", "-p", "!", name)
}

// KillUserProcesses terminates any leftover sessions before userdel.
// pkill exits 1 when nothing matched; that is not a failure here.
func (r *Runner) KillUserProcesses(name string) error {
	err := r.run("pkill", "-u", name)
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) && ee.ExitCode() == 1 {
		return nil
	}
	return err
}

func (r *Runner) StopSandbox(name string) error {
	return r.run("systemctl", "stop", fmt.Sprintf("sandbox@%s.service", name))
}

// ResetFailCount clears the PAM failure tally so a freshly configured
// account is not born locked out.
func (r *Runner) ResetFailCount(name string) error {
	return r.run("pam_tally", "--user", name, "--reset", "--quiet")
}

// LoggedInUsers lists users with an active login session, per who(1).
func (r *Runner) LoggedInUsers() ([]string, error) {
	out, err := r.output("who")
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var users []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if !seen[fields[0]] {
			seen[fields[0]] = true
			users = append(users, fields[0])
		}
	}
	return users, nil
}
