package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/smileynet/berth/internal/target"
)

// Runner executes one docker invocation against a host and returns its
// stdout. Implementations add whatever transport the host needs.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// RunnerFor returns a Runner for the given target: plain process execution
// for the local host, an ssh wrapper for remote ones.
func RunnerFor(t target.Target, bin string) Runner {
	if t.IsLocal() {
		return LocalRunner{Bin: bin}
	}
	return SSHRunner{Bin: bin, Host: t.Host, User: t.User}
}

// LocalRunner runs the docker binary on this machine.
type LocalRunner struct {
	Bin string // docker binary name or path
}

// Run executes docker with the given arguments and returns its stdout.
func (r LocalRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	return capture(exec.CommandContext(ctx, r.Bin, args...))
}

// SSHRunner runs the docker binary on a remote host through the system ssh
// client. Authentication, known hosts, and multiplexing come from the
// user's SSH configuration; BatchMode keeps a missing key from hanging on
// a password prompt.
type SSHRunner struct {
	Bin  string // docker binary on the remote host
	Host string
	User string
}

// Run executes docker on the remote host and returns its stdout.
func (r SSHRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	dest := r.Host
	if r.User != "" {
		dest = r.User + "@" + r.Host
	}
	remote := append([]string{r.Bin}, args...)
	cmd := exec.CommandContext(ctx, "ssh",
		"-o", "BatchMode=yes",
		"-o", "ConnectTimeout=10",
		dest, shellJoin(remote))
	return capture(cmd)
}

// shellJoin single-quotes each argument for the remote shell; ssh joins its
// trailing arguments with spaces and hands them to that shell verbatim.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

// capture runs cmd and returns stdout, folding captured stderr into the
// error so failures carry the CLI's own message.
func capture(cmd *exec.Cmd) ([]byte, error) {
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && len(bytes.TrimSpace(ee.Stderr)) > 0 {
			return nil, fmt.Errorf("%w\n%s", err, bytes.TrimSpace(ee.Stderr))
		}
		return nil, err
	}
	return out, nil
}
