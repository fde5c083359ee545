//go:build smoke

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestSmoke_Binary exercises the built binary end-to-end: build, version
// stamping, TTY detection, and the init/hosts flow that never needs a
// docker daemon.
//
// Subtests run sequentially and depend on the first subtest building the
// binary.
func TestSmoke_Binary(t *testing.T) {
	projectRoot := findProjectRoot(t)
	binary := filepath.Join(projectRoot, "berth")
	t.Cleanup(func() { os.Remove(binary) })

	t.Run("go build produces a berth binary", func(t *testing.T) {
		// Given: the project
		// When: go build runs
		cmd := exec.Command("go", "build",
			"-ldflags", "-X main.version=smoke-test -X main.commit=abc1234 -X main.date=2026-01-01",
			"-o", binary, "./cmd/berth")
		cmd.Dir = projectRoot
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("go build failed: %v\n%s", err, out)
		}

		// Then: a berth binary is produced
		info, err := os.Stat(binary)
		if err != nil {
			t.Fatalf("binary not found: %v", err)
		}
		if info.Size() == 0 {
			t.Fatal("binary is empty")
		}
	})

	t.Run("berth version prints version commit and date", func(t *testing.T) {
		// Given: the binary
		if _, err := os.Stat(binary); err != nil {
			t.Fatal("binary not available -- the build subtest must run first and succeed")
		}

		// When: berth --version runs
		cmd := exec.Command(binary, "--version")
		out, err := cmd.CombinedOutput()
		output := string(out)

		// Then: version, commit, and date are printed
		if err != nil {
			// Kong may exit non-zero on --version in some configurations
			if !strings.Contains(output, "smoke-test") {
				t.Fatalf("--version failed: %v\n%s", err, output)
			}
		}
		for _, want := range []string{"smoke-test", "abc1234", "2026-01-01"} {
			if !strings.Contains(output, want) {
				t.Errorf("version output = %q, want to contain %q", output, want)
			}
		}
	})

	t.Run("berth dashboard without TTY exits with setup error", func(t *testing.T) {
		// Given: the binary running without a TTY (test subprocess has no terminal)
		if _, err := os.Stat(binary); err != nil {
			t.Fatal("binary not available -- the build subtest must run first and succeed")
		}

		// When: berth dashboard is invoked
		cmd := exec.Command(binary, "dashboard")
		cmd.Dir = t.TempDir()
		out, err := cmd.CombinedOutput()

		// Then: it exits non-zero
		if err == nil {
			t.Fatal("expected non-zero exit code without TTY")
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			if exitErr.ExitCode() != 2 {
				t.Errorf("exit code = %d, want 2 (setup error)", exitErr.ExitCode())
			}
		}

		// And: the error points at --plain
		output := string(out)
		if !strings.Contains(output, "terminal") || !strings.Contains(output, "--plain") {
			t.Errorf("expected TTY error mentioning --plain, got: %q", output)
		}
	})
}

// TestSmoke_InitAndHosts exercises the config bootstrap flow: init writes a
// starter file, hosts reads it back, and a repeated init refuses to clobber.
func TestSmoke_InitAndHosts(t *testing.T) {
	projectRoot := findProjectRoot(t)
	binary := filepath.Join(projectRoot, "berth")

	// Ensure binary exists.
	if _, err := os.Stat(binary); err != nil {
		cmd := exec.Command("go", "build",
			"-ldflags", "-X main.version=smoke-test -X main.commit=abc1234 -X main.date=2026-01-01",
			"-o", binary, "./cmd/berth")
		cmd.Dir = projectRoot
		out, buildErr := cmd.CombinedOutput()
		if buildErr != nil {
			t.Fatalf("go build failed: %v\n%s", buildErr, out)
		}
		t.Cleanup(func() { os.Remove(binary) })
	}

	// Isolate config layers: fresh working dir, fresh HOME.
	workDir := t.TempDir()
	env := append(os.Environ(), "HOME="+t.TempDir())

	t.Run("berth init writes a starter config", func(t *testing.T) {
		// When: berth init runs in an empty directory
		cmd := exec.Command(binary, "init")
		cmd.Dir = workDir
		cmd.Env = env
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("init failed: %v\n%s", err, out)
		}

		// Then: the config file exists and is announced
		if !strings.Contains(string(out), ".berth/config.yaml") {
			t.Errorf("init output = %q, want to mention .berth/config.yaml", out)
		}
		data, err := os.ReadFile(filepath.Join(workDir, ".berth", "config.yaml"))
		if err != nil {
			t.Fatalf("config not written: %v", err)
		}
		if !strings.Contains(string(data), "docker:") {
			t.Errorf("starter config missing docker section:\n%s", data)
		}
	})

	t.Run("berth hosts loads the written config", func(t *testing.T) {
		// When: berth hosts runs against the starter config
		cmd := exec.Command(binary, "hosts")
		cmd.Dir = workDir
		cmd.Env = env
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("hosts failed: %v\n%s", err, out)
		}

		// Then: the implicit local target is listed
		output := string(out)
		if !strings.Contains(output, "local") || !strings.Contains(output, "localhost") {
			t.Errorf("hosts output = %q, want local target row", output)
		}
	})

	t.Run("repeated init without force exits with setup error", func(t *testing.T) {
		// When: berth init runs again in the same directory
		cmd := exec.Command(binary, "init")
		cmd.Dir = workDir
		cmd.Env = env
		out, err := cmd.CombinedOutput()

		// Then: it refuses with exit code 2
		if err == nil {
			t.Fatal("expected non-zero exit code when config exists")
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			if exitErr.ExitCode() != 2 {
				t.Errorf("exit code = %d, want 2 (setup error)", exitErr.ExitCode())
			}
		}
		if !strings.Contains(string(out), "already exists") {
			t.Errorf("expected already-exists error, got: %q", out)
		}

		// And: --force overwrites
		cmd = exec.Command(binary, "init", "--force")
		cmd.Dir = workDir
		cmd.Env = env
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("init --force failed: %v\n%s", err, out)
		}
	})

	t.Run("berth ps with unknown host exits with setup error", func(t *testing.T) {
		// When: ps targets a host the config never declared
		cmd := exec.Command(binary, "ps", "--host", "nosuch")
		cmd.Dir = workDir
		cmd.Env = env
		out, err := cmd.CombinedOutput()

		// Then: exit code 2 and the host is named
		if err == nil {
			t.Fatal("expected non-zero exit code for unknown host")
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			if exitErr.ExitCode() != 2 {
				t.Errorf("exit code = %d, want 2 (setup error)", exitErr.ExitCode())
			}
		}
		if !strings.Contains(string(out), "nosuch") {
			t.Errorf("expected error naming the host, got: %q", out)
		}
	})
}

// findProjectRoot walks up from the test file to find the directory containing go.mod.
func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}
