// Package docker queries and controls Docker hosts through the docker CLI,
// either directly or wrapped in ssh for remote targets.
package docker

// Container describes one container as reported by docker ps.
type Container struct {
	ID      string
	Name    string
	Image   string
	Command string
	Created string // e.g. "2026-03-01 10:01:22 +0100 CET"
	State   string // running, exited, paused, ...
	Status  string // e.g. "Up 2 hours"
	// Ports is docker's raw ports field, e.g. "0.0.0.0:8080->80/tcp, 443/tcp".
	Ports    string
	Networks string
	Labels   map[string]string
}

// Running reports whether the container state is "running".
func (c Container) Running() bool { return c.State == "running" }

// Stats holds one container's resource usage as the formatted strings
// docker stats prints.
type Stats struct {
	ID       string
	Name     string
	CPUPerc  string // e.g. "0.15%"
	MemPerc  string // e.g. "1.56%"
	MemUsage string // e.g. "31.84MiB / 1.944GiB"
	NetIO    string // e.g. "936B / 1.2kB"
	BlockIO  string // e.g. "0B / 8.19kB"
	PIDs     string
}

// HostInfo describes a Docker host as reported by docker info.
type HostInfo struct {
	Name              string `json:"Name"`
	ServerVersion     string `json:"ServerVersion"`
	OperatingSystem   string `json:"OperatingSystem"`
	NCPU              int    `json:"NCPU"`
	MemTotal          int64  `json:"MemTotal"`
	Containers        int    `json:"Containers"`
	ContainersRunning int    `json:"ContainersRunning"`
	Images            int    `json:"Images"`
}

// Snapshot is everything fetched from one host in one pass: the container
// listing, per-container stats, and host info.
type Snapshot struct {
	Containers []Container
	Stats      []Stats
	Host       HostInfo
}

// StatsFor returns the stats entry for a container ID or name, if present.
func (s Snapshot) StatsFor(c Container) (Stats, bool) {
	for _, st := range s.Stats {
		if st.ID != "" && (st.ID == c.ID || hasPrefix(c.ID, st.ID)) {
			return st, true
		}
		if st.Name != "" && st.Name == c.Name {
			return st, true
		}
	}
	return Stats{}, false
}

// hasPrefix matches docker's habit of printing truncated IDs in stats.
func hasPrefix(full, short string) bool {
	return len(short) > 0 && len(full) >= len(short) && full[:len(short)] == short
}
