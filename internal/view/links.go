package view

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Link is a derived service URL for one published port.
type Link struct {
	URL  string
	Port int // host port, the sort key
}

// ServiceLinks derives browser-ready URLs from docker's ports string for a
// container reachable at host. Entries look like "0.0.0.0:8080->80/tcp",
// "443->443/tcp", or "5432/tcp" for exposed-only ports. Only published tcp
// forwards produce links; 443 on either side of the forward means https.
// Duplicate URLs collapse (docker lists IPv4 and IPv6 binds separately)
// and the result is sorted by ascending host port.
func ServiceLinks(ports, host string) []Link {
	var links []Link
	seen := make(map[string]bool)
	for _, entry := range strings.Split(ports, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		link, ok := parsePortEntry(entry, host)
		if !ok || seen[link.URL] {
			continue
		}
		seen[link.URL] = true
		links = append(links, link)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Port < links[j].Port })
	return links
}

// parsePortEntry parses one "[bindAddr:]hostPort->containerPort/transport"
// entry into a Link.
func parsePortEntry(entry, host string) (Link, bool) {
	mapping, transport, ok := strings.Cut(entry, "/")
	if !ok || transport != "tcp" {
		return Link{}, false
	}
	published, containerPort, ok := strings.Cut(mapping, "->")
	if !ok {
		// Exposed but not published, e.g. "5432/tcp".
		return Link{}, false
	}

	hostPort := published
	if i := strings.LastIndex(published, ":"); i >= 0 {
		hostPort = published[i+1:]
	}
	port, err := strconv.Atoi(hostPort)
	if err != nil {
		return Link{}, false
	}

	scheme := "http"
	if port == 443 || containerPort == "443" {
		scheme = "https"
	}
	return Link{URL: fmt.Sprintf("%s://%s:%d", scheme, host, port), Port: port}, true
}
