package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/smileynet/berth"
	"github.com/smileynet/berth/internal/config"
	"github.com/smileynet/berth/internal/dashboard"
	"github.com/smileynet/berth/internal/docker"
	"github.com/smileynet/berth/internal/inventory"
	"github.com/smileynet/berth/internal/logging"
	"github.com/smileynet/berth/internal/monitor"
	"github.com/smileynet/berth/internal/pending"
	"github.com/smileynet/berth/internal/target"
	"github.com/smileynet/berth/internal/view"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// defaultLogFile is where the dashboard logs when the config names no
// file. The TUI owns the terminal, so it never logs to stderr.
const defaultLogFile = ".berth/berth.log"

// projectConfigPath is the working-directory config layer, also the file
// "berth init" writes.
const projectConfigPath = ".berth/config.yaml"

// CLI is the top-level command structure for berth.
type CLI struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`

	Dashboard DashboardCmd `cmd:"" default:"1" help:"Open the interactive dashboard TUI."`
	Ps        PsCmd        `cmd:"" help:"List containers, grouped by compose project."`
	Hosts     HostsCmd     `cmd:"" help:"List configured Docker hosts."`
	Start     StartCmd     `cmd:"" help:"Start a container."`
	Stop      StopCmd      `cmd:"" help:"Stop a container."`
	Restart   RestartCmd   `cmd:"" help:"Restart a container."`
	Rm        RmCmd        `cmd:"" help:"Force-remove a container."`
	Check     CheckCmd     `cmd:"" help:"Verify docker connectivity on each host."`
	Init      InitCmd      `cmd:"" help:"Write a starter config to .berth/config.yaml."`
}

// configPaths returns the layered config locations, user level first.
func configPaths() []string {
	return []string{
		os.ExpandEnv("$HOME/.config/berth/config.yaml"),
		projectConfigPath,
	}
}

// loadConfig loads layered config from user and project paths with env
// overrides, validated.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadLayered(configPaths()...)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildMonitor assembles the freshness layer from a validated config.
func buildMonitor(cfg *config.Config, log *zap.SugaredLogger) *monitor.Monitor {
	return monitor.New(
		inventory.NewCache(inventory.WithLogger(log)),
		pending.NewTracker(),
		target.NewRegistry(cfg.Targets()...),
		monitor.WithEngine(monitor.DockerEngine(cfg.Docker.Bin, cfg.Docker.Timeout)),
		monitor.WithLogger(log),
	)
}

// commandDeps builds the monitor stack every one-shot command needs. The
// returned flush drains buffered log entries.
func commandDeps(cmdName string) (*monitor.Monitor, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, setupErr(fmt.Errorf("%s: %w", cmdName, err))
	}
	log, flush, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, nil, setupErr(fmt.Errorf("%s: %w", cmdName, err))
	}
	return buildMonitor(cfg, log), flush, nil
}

// --- Dashboard command ---

// DashboardCmd opens the interactive dashboard TUI.
type DashboardCmd struct {
	Host  string `help:"Host to show first." placeholder:"NAME"`
	Plain bool   `help:"Render one plain-text listing instead of the TUI."`
}

// teaRunner abstracts Bubble Tea program execution for testing.
type teaRunner interface {
	Run() (tea.Model, error)
}

// Run builds real dependencies and launches the dashboard TUI.
func (d *DashboardCmd) Run() error {
	if d.Plain {
		ps := &PsCmd{Host: d.Host}
		return ps.Run()
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return setupErr(errors.New("dashboard: requires a terminal (TTY), use --plain"))
	}

	cfg, err := loadConfig()
	if err != nil {
		return setupErr(fmt.Errorf("dashboard: %w", err))
	}

	logFile := cfg.Log.File
	if logFile == "" {
		logFile = defaultLogFile
	}
	log, flush, err := logging.New(cfg.Log.Level, logFile)
	if err != nil {
		return setupErr(fmt.Errorf("dashboard: %w", err))
	}
	defer flush()

	mon := buildMonitor(cfg, log)

	opts := []dashboard.ModelOption{
		dashboard.WithPollInterval(cfg.Dashboard.PollInterval),
	}
	if d.Host != "" {
		if _, err := mon.Lookup(d.Host); err != nil {
			return setupErr(fmt.Errorf("dashboard: %w", err))
		}
		opts = append(opts, dashboard.WithActiveHost(d.Host))
	}

	m := dashboard.NewModel(mon, opts...)
	prog := tea.NewProgram(m, tea.WithAltScreen())

	stopWatch, err := watchConfig(prog, mon, log)
	if err != nil {
		log.Warnw("config watch unavailable", "error", err)
	} else {
		defer stopWatch()
	}

	log.Infow("dashboard starting", "targets", len(mon.Targets()), "poll", cfg.Dashboard.PollInterval)
	return d.run(true, prog)
}

// run executes the tea program, enabling testable wiring.
func (d *DashboardCmd) run(isTTY bool, prog teaRunner) error {
	if !isTTY {
		return setupErr(errors.New("dashboard: requires a terminal (TTY), use --plain"))
	}
	_, err := prog.Run()
	return err
}

// programSender abstracts tea.Program.Send for the reload goroutine.
type programSender interface {
	Send(msg tea.Msg)
}

// watchConfig reloads the host list into the monitor and notifies the
// dashboard whenever a config file changes on disk. The returned stop
// function ends the watch.
func watchConfig(prog programSender, mon *monitor.Monitor, log *zap.SugaredLogger) (func(), error) {
	w, err := config.NewWatcher(log, configPaths()...)
	if err != nil {
		return nil, err
	}
	w.Start()
	go func() {
		for range w.Events() {
			cfg, err := loadConfig()
			if err != nil {
				log.Warnw("config reload failed", "error", err)
				continue
			}
			mon.ReplaceTargets(cfg.Targets())
			prog.Send(dashboard.ConfigReloadedMsg{Targets: mon.Targets()})
		}
	}()
	return w.Stop, nil
}

// --- Ps command ---

// PsCmd prints a one-shot grouped container listing.
type PsCmd struct {
	Host string `help:"Host to list (default: local)." placeholder:"NAME"`
}

// snapshotter abstracts the monitor reads ps needs, for testing.
type snapshotter interface {
	Lookup(name string) (target.Target, error)
	Snapshot(ctx context.Context, t target.Target) (inventory.Result, error)
}

// Run builds real dependencies and prints the listing.
func (p *PsCmd) Run() error {
	mon, flush, err := commandDeps("ps")
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return p.run(ctx, os.Stdout, mon)
}

// run fetches and renders one snapshot, enabling testable wiring.
func (p *PsCmd) run(ctx context.Context, w io.Writer, mon snapshotter) error {
	t, err := mon.Lookup(p.Host)
	if err != nil {
		return setupErr(fmt.Errorf("ps: %w", err))
	}
	res, err := mon.Snapshot(ctx, t)
	if err != nil {
		return fmt.Errorf("ps: %w", err)
	}
	return writeListing(w, t, res.Snapshot)
}

// writeListing renders the grouped container listing shared by ps and
// dashboard --plain.
func writeListing(w io.Writer, t target.Target, snap docker.Snapshot) error {
	met := view.Metrics(snap)
	fmt.Fprintf(w, "%s (%s): %d containers, %d up\n", t.Name, t.DisplayHost(), met.Containers, met.Running)
	if len(snap.Containers) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, g := range view.Groups(snap.Containers) {
		running := 0
		for _, c := range g.Containers {
			if c.Running() {
				running++
			}
		}
		fmt.Fprintf(tw, "\n%s  %d/%d up\n", g.Title, running, len(g.Containers))
		for _, c := range g.Containers {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", c.Name, c.State, c.Status, c.Ports)
		}
	}
	return tw.Flush()
}

// --- Hosts command ---

// HostsCmd prints the configured targets.
type HostsCmd struct{}

// Run loads the config and prints the target table.
func (h *HostsCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return setupErr(fmt.Errorf("hosts: %w", err))
	}
	return h.run(os.Stdout, target.NewRegistry(cfg.Targets()...).All())
}

// run renders the target table, enabling testable wiring.
func (h *HostsCmd) run(w io.Writer, targets []target.Target) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tHOST\tUSER\tKEY")
	for _, t := range targets {
		user := t.User
		if user == "" {
			user = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, t.DisplayHost(), user, t.Key())
	}
	return tw.Flush()
}

// --- Lifecycle commands ---

// dispatcher abstracts the monitor operations lifecycle commands need,
// for testing.
type dispatcher interface {
	Lookup(name string) (target.Target, error)
	Dispatch(ctx context.Context, t target.Target, container string, verb pending.Verb) error
}

// StartCmd starts a stopped container.
type StartCmd struct {
	Name string `arg:"" help:"Container name or ID."`
	Host string `help:"Host the container lives on (default: local)." placeholder:"NAME"`
}

// Run executes the start command.
func (s *StartCmd) Run() error {
	mon, flush, err := commandDeps("start")
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runLifecycle(ctx, os.Stdout, mon, s.Host, s.Name, pending.Starting)
}

// StopCmd stops a running container.
type StopCmd struct {
	Name string `arg:"" help:"Container name or ID."`
	Host string `help:"Host the container lives on (default: local)." placeholder:"NAME"`
}

// Run executes the stop command.
func (s *StopCmd) Run() error {
	mon, flush, err := commandDeps("stop")
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runLifecycle(ctx, os.Stdout, mon, s.Host, s.Name, pending.Stopping)
}

// RestartCmd restarts a container.
type RestartCmd struct {
	Name string `arg:"" help:"Container name or ID."`
	Host string `help:"Host the container lives on (default: local)." placeholder:"NAME"`
}

// Run executes the restart command.
func (r *RestartCmd) Run() error {
	mon, flush, err := commandDeps("restart")
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runLifecycle(ctx, os.Stdout, mon, r.Host, r.Name, pending.Restarting)
}

// runLifecycle resolves the host and dispatches one container action.
func runLifecycle(ctx context.Context, w io.Writer, d dispatcher, host, name string, verb pending.Verb) error {
	t, err := d.Lookup(host)
	if err != nil {
		return setupErr(err)
	}
	if err := d.Dispatch(ctx, t, name, verb); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s on %s\n", pastVerb(verb), name, t.Name)
	return nil
}

// pastVerb maps an in-flight verb to the past tense for result lines.
func pastVerb(v pending.Verb) string {
	switch v {
	case pending.Starting:
		return "Started"
	case pending.Stopping:
		return "Stopped"
	case pending.Restarting:
		return "Restarted"
	case pending.Removing:
		return "Removed"
	default:
		return string(v)
	}
}

// RmCmd force-removes a container after confirmation.
type RmCmd struct {
	Name  string `arg:"" help:"Container name or ID."`
	Host  string `help:"Host the container lives on (default: local)." placeholder:"NAME"`
	Force bool   `help:"Skip the confirmation prompt." short:"f"`
}

// Run executes the rm command.
func (r *RmCmd) Run() error {
	mon, flush, err := commandDeps("rm")
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return r.run(ctx, os.Stdout, os.Stdin, mon)
}

// run prompts (unless forced) and dispatches the removal, enabling
// testable wiring.
func (r *RmCmd) run(ctx context.Context, w io.Writer, in io.Reader, d dispatcher) error {
	t, err := d.Lookup(r.Host)
	if err != nil {
		return setupErr(fmt.Errorf("rm: %w", err))
	}
	if !r.Force {
		fmt.Fprintf(w, "Remove container %s on %s? [y/N] ", r.Name, t.Name)
		if !confirmed(in) {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}
	if err := d.Dispatch(ctx, t, r.Name, pending.Removing); err != nil {
		return err
	}
	fmt.Fprintf(w, "Removed %s on %s\n", r.Name, t.Name)
	return nil
}

// confirmed reads one line and accepts y or yes, case-insensitive.
func confirmed(in io.Reader) bool {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// --- Check command ---

// CheckCmd verifies docker connectivity for each configured host.
type CheckCmd struct {
	Host string `help:"Check a single host." placeholder:"NAME"`
}

// checker abstracts the monitor operations check needs, for testing.
type checker interface {
	Targets() []target.Target
	Lookup(name string) (target.Target, error)
	Check(ctx context.Context, t target.Target) (string, error)
}

// Run executes the check command.
func (c *CheckCmd) Run() error {
	mon, flush, err := commandDeps("check")
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return c.run(ctx, os.Stdout, mon)
}

// run pings each target and reports reachability, enabling testable wiring.
func (c *CheckCmd) run(ctx context.Context, w io.Writer, mon checker) error {
	targets := mon.Targets()
	if c.Host != "" {
		t, err := mon.Lookup(c.Host)
		if err != nil {
			return setupErr(fmt.Errorf("check: %w", err))
		}
		targets = []target.Target{t}
	}

	failed := 0
	for _, t := range targets {
		ver, err := mon.Check(ctx, t)
		if err != nil {
			failed++
			fmt.Fprintf(w, "✗ %s: %v\n", t.Name, err)
			continue
		}
		fmt.Fprintf(w, "✓ %s: docker %s\n", t.Name, ver)
	}
	if failed > 0 {
		return fmt.Errorf("check: %d of %d hosts unreachable", failed, len(targets))
	}
	return nil
}

// --- Init command ---

// InitCmd writes the embedded starter config.
type InitCmd struct {
	Force bool `help:"Overwrite an existing config file."`
}

// Run executes the init command.
func (i *InitCmd) Run() error {
	return i.run(os.Stdout, projectConfigPath)
}

// run writes the starter config to path, enabling testable wiring.
func (i *InitCmd) run(w io.Writer, path string) error {
	if _, err := os.Stat(path); err == nil && !i.Force {
		return setupErr(fmt.Errorf("init: %s already exists (use --force to overwrite)", path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return setupErr(fmt.Errorf("init: %w", err))
	}
	if err := os.WriteFile(path, berth.ExampleConfig(), 0o644); err != nil {
		return setupErr(fmt.Errorf("init: %w", err))
	}
	fmt.Fprintf(w, "Wrote %s\n", path)
	return nil
}

// --- Exit codes ---

const (
	exitSuccess = 0
	exitRuntime = 1
	exitSetup   = 2
)

// setupError marks failures that happen before any docker command runs:
// config loading, host resolution, TTY checks. They exit with code 2
// instead of 1.
type setupError struct {
	err error
}

func (e *setupError) Error() string { return e.err.Error() }
func (e *setupError) Unwrap() error { return e.err }

// setupErr wraps err as a setup failure.
func setupErr(err error) error {
	return &setupError{err: err}
}

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se *setupError
	if errors.As(err, &se) {
		return exitSetup
	}
	return exitRuntime
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli, kong.Vars{"version": version + " " + commit + " " + date})
	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
