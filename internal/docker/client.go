package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Sentinel errors for caller-checkable conditions.
var (
	ErrInvalidName = errors.New("docker: invalid container name")
	ErrNotFound    = errors.New("docker: no such container")
)

// validateName checks that a container name or ID is safe to pass as a CLI
// argument. Rejects empty, flag-like (starting with -), and names carrying
// whitespace or path characters.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: cannot be empty", ErrInvalidName)
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("%w: %q (must not start with -)", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, " \t\n/\\") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// psLine mirrors one line of docker ps --format '{{json .}}'.
type psLine struct {
	ID        string `json:"ID"`
	Names     string `json:"Names"`
	Image     string `json:"Image"`
	Command   string `json:"Command"`
	CreatedAt string `json:"CreatedAt"`
	State     string `json:"State"`
	Status    string `json:"Status"`
	Ports     string `json:"Ports"`
	Networks  string `json:"Networks"`
	Labels    string `json:"Labels"`
}

// statsLine mirrors one line of docker stats --format '{{json .}}'.
type statsLine struct {
	ID       string `json:"ID"`
	Name     string `json:"Name"`
	CPUPerc  string `json:"CPUPerc"`
	MemPerc  string `json:"MemPerc"`
	MemUsage string `json:"MemUsage"`
	NetIO    string `json:"NetIO"`
	BlockIO  string `json:"BlockIO"`
	PIDs     string `json:"PIDs"`
}

// Client queries and controls one Docker host through its CLI.
type Client struct {
	runner  Runner
	timeout time.Duration
}

// NewClient creates a Client using the given runner. A timeout of zero
// means commands run with no deadline beyond the caller's context.
func NewClient(r Runner, timeout time.Duration) *Client {
	return &Client{runner: r, timeout: timeout}
}

// run executes one docker invocation under the client's timeout.
func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.runner.Run(ctx, args...)
}

// Containers lists all containers on the host, running or not.
func (c *Client) Containers(ctx context.Context) ([]Container, error) {
	out, err := c.run(ctx, "ps", "--all", "--no-trunc", "--format", "{{json .}}")
	if err != nil {
		return nil, fmt.Errorf("docker: listing containers: %w", err)
	}

	var containers []Container
	dec := json.NewDecoder(bytes.NewReader(out))
	for dec.More() {
		var line psLine
		if err := dec.Decode(&line); err != nil {
			return nil, fmt.Errorf("docker: parsing ps output: %w", err)
		}
		containers = append(containers, Container{
			ID:       line.ID,
			Name:     line.Names,
			Image:    line.Image,
			Command:  strings.Trim(line.Command, `"`),
			Created:  line.CreatedAt,
			State:    line.State,
			Status:   line.Status,
			Ports:    line.Ports,
			Networks: line.Networks,
			Labels:   parseLabels(line.Labels),
		})
	}
	return containers, nil
}

// Stats reports resource usage for all containers; stopped ones show
// zero usage.
func (c *Client) Stats(ctx context.Context) ([]Stats, error) {
	out, err := c.run(ctx, "stats", "--all", "--no-stream", "--format", "{{json .}}")
	if err != nil {
		return nil, fmt.Errorf("docker: reading stats: %w", err)
	}

	var stats []Stats
	dec := json.NewDecoder(bytes.NewReader(out))
	for dec.More() {
		var line statsLine
		if err := dec.Decode(&line); err != nil {
			return nil, fmt.Errorf("docker: parsing stats output: %w", err)
		}
		stats = append(stats, Stats{
			ID:       line.ID,
			Name:     line.Name,
			CPUPerc:  line.CPUPerc,
			MemPerc:  line.MemPerc,
			MemUsage: line.MemUsage,
			NetIO:    line.NetIO,
			BlockIO:  line.BlockIO,
			PIDs:     line.PIDs,
		})
	}
	return stats, nil
}

// Info describes the host: daemon version, OS, core count, total memory.
func (c *Client) Info(ctx context.Context) (HostInfo, error) {
	out, err := c.run(ctx, "info", "--format", "{{json .}}")
	if err != nil {
		return HostInfo{}, fmt.Errorf("docker: reading host info: %w", err)
	}
	var info HostInfo
	if err := json.Unmarshal(bytes.TrimSpace(out), &info); err != nil {
		return HostInfo{}, fmt.Errorf("docker: parsing host info: %w", err)
	}
	return info, nil
}

// Snapshot fetches the container listing, stats, and host info in one pass.
// The three queries run concurrently; any failure fails the whole fetch.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		containers, err := c.Containers(gctx)
		snap.Containers = containers
		return err
	})
	g.Go(func() error {
		stats, err := c.Stats(gctx)
		snap.Stats = stats
		return err
	})
	g.Go(func() error {
		info, err := c.Info(gctx)
		snap.Host = info
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Start starts a stopped container.
func (c *Client) Start(ctx context.Context, name string) error {
	return c.lifecycle(ctx, name, "start")
}

// Stop stops a running container.
func (c *Client) Stop(ctx context.Context, name string) error {
	return c.lifecycle(ctx, name, "stop")
}

// Restart restarts a container.
func (c *Client) Restart(ctx context.Context, name string) error {
	return c.lifecycle(ctx, name, "restart")
}

// Remove force-removes a container, running or not.
func (c *Client) Remove(ctx context.Context, name string) error {
	return c.lifecycle(ctx, name, "rm", "--force")
}

func (c *Client) lifecycle(ctx context.Context, name string, args ...string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if _, err := c.run(ctx, append(args, name)...); err != nil {
		if strings.Contains(err.Error(), "No such container") {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("docker: %s %s: %w", args[0], name, err)
	}
	return nil
}

// Ping verifies the host is reachable and returns the daemon version.
func (c *Client) Ping(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "version", "--format", "{{.Server.Version}}")
	if err != nil {
		return "", fmt.Errorf("docker: ping: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// parseLabels splits docker's comma-joined "k=v,k2=v2" label string. A
// segment without "=" is a continuation of the previous value (label
// values may themselves contain commas).
func parseLabels(s string) map[string]string {
	if s == "" {
		return nil
	}
	labels := make(map[string]string)
	var last string
	for _, part := range strings.Split(s, ",") {
		if k, v, ok := strings.Cut(part, "="); ok {
			labels[k] = v
			last = k
		} else if last != "" {
			labels[last] += "," + part
		}
	}
	return labels
}
