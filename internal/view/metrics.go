package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smileynet/berth/internal/docker"
)

// HostMetrics is the server-level summary shown in the dashboard header.
type HostMetrics struct {
	Available   bool // anything meaningful to show at all
	Containers  int
	Running     int
	CPUCount    int
	MemoryTotal int64   // bytes, 0 when the host info had none
	MemoryUsed  float64 // bytes, summed from container stats
	Utilization string  // "41.2%", or "-" when total is unknown
}

// Metrics aggregates one snapshot into the host summary. Used memory sums
// the "used" half of each stats entry's "X / Y" usage string; utilization
// is used/total to one decimal, or "-" without a known total.
func Metrics(snap docker.Snapshot) HostMetrics {
	m := HostMetrics{
		Containers:  len(snap.Containers),
		CPUCount:    snap.Host.NCPU,
		MemoryTotal: snap.Host.MemTotal,
		Utilization: "-",
	}
	for _, c := range snap.Containers {
		if c.Running() {
			m.Running++
		}
	}
	for _, st := range snap.Stats {
		used, _, ok := strings.Cut(st.MemUsage, "/")
		if !ok {
			continue
		}
		if b, ok := parseBytes(used); ok {
			m.MemoryUsed += b
		}
	}
	if m.MemoryTotal > 0 {
		m.Utilization = fmt.Sprintf("%.1f%%", m.MemoryUsed/float64(m.MemoryTotal)*100)
	}
	m.Available = m.Containers > 0 || m.MemoryTotal > 0 || m.CPUCount > 0
	return m
}

// unitMultipliers covers both families docker prints: decimal (kB, MB)
// and binary (KiB, MiB), keyed upper-case.
var unitMultipliers = map[string]float64{
	"B":   1,
	"KB":  1e3,
	"MB":  1e6,
	"GB":  1e9,
	"TB":  1e12,
	"PB":  1e15,
	"KIB": 1 << 10,
	"MIB": 1 << 20,
	"GIB": 1 << 30,
	"TIB": 1 << 40,
	"PIB": 1 << 50,
}

// parseBytes converts docker's human-readable sizes ("31.84MiB", "1.2kB",
// "512B") to bytes.
func parseBytes(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	i := len(s)
	for i > 0 {
		ch := s[i-1]
		if ch >= '0' && ch <= '9' || ch == '.' {
			break
		}
		i--
	}
	num := s[:i]
	unit := strings.ToUpper(strings.TrimSpace(s[i:]))
	if num == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	if unit == "" {
		return v, true
	}
	mult, ok := unitMultipliers[unit]
	if !ok {
		return 0, false
	}
	return v * mult, true
}

// FormatBytes renders a byte count with binary units, docker-style.
func FormatBytes(b float64) string {
	units := []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}
	i := 0
	for b >= 1024 && i < len(units)-1 {
		b /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%.0fB", b)
	}
	return fmt.Sprintf("%.1f%s", b, units[i])
}
