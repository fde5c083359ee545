// Package view derives display-ready structures from raw Docker
// snapshots: compose project groups, service links, and the host metrics
// summary line.
package view

import (
	"sort"

	"github.com/smileynet/berth/internal/docker"
)

// Compose label keys the grouping logic reads.
const (
	labelProject     = "com.docker.compose.project"
	labelWorkingDir  = "com.docker.compose.project.working_dir"
	labelConfigFiles = "com.docker.compose.project.config_files"
)

// UngroupedTitle names the bucket for containers without compose labels.
const UngroupedTitle = "Ungrouped"

// Group is a set of containers displayed together.
type Group struct {
	Title      string
	Containers []docker.Container
}

// Groups buckets containers by compose project. Key priority: the project
// label; else workingDir + "::" + the config-files label; else the
// Ungrouped bucket. Groups come back sorted by title with Ungrouped
// forced last regardless of alphabetical order, and containers within a
// group sorted by name.
func Groups(containers []docker.Container) []Group {
	buckets := make(map[string][]docker.Container)
	for _, c := range containers {
		title := groupTitle(c)
		buckets[title] = append(buckets[title], c)
	}

	groups := make([]Group, 0, len(buckets))
	for title, members := range buckets {
		sort.Slice(members, func(i, j int) bool {
			return members[i].Name < members[j].Name
		})
		groups = append(groups, Group{Title: title, Containers: members})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Title == UngroupedTitle {
			return false
		}
		if groups[j].Title == UngroupedTitle {
			return true
		}
		return groups[i].Title < groups[j].Title
	})
	return groups
}

// groupTitle derives the bucket title for one container.
func groupTitle(c docker.Container) string {
	if p := c.Labels[labelProject]; p != "" {
		return p
	}
	dir := c.Labels[labelWorkingDir]
	files := c.Labels[labelConfigFiles]
	if dir != "" || files != "" {
		return dir + "::" + files
	}
	return UngroupedTitle
}
