// Package changelog defines the structs for a changelog and functions to
// categorize merged pull requests and render them into a markdown document.
package changelog

import "time"

// PullRequest is one merged pull request as collected from github.
// It is read-only after collection.
type PullRequest struct {
	Number    int
	Title     string
	Author    string
	HTMLURL   string
	MergedAt  time.Time
	Labels    []string
	Milestone string
}

// Section contains one changelog section, for example "Features".
type Section struct {
	Name         string
	PullRequests []PullRequest
}

// Release carries the repository context a rendered document is headed with.
type Release struct {
	Owner      string
	Repo       string
	Tag        string
	Date       time.Time
	CompareURL string
}

// Mapping configures how pull request labels map to section names.
type Mapping struct {
	// Categories is the priority-ordered list of section names. A pull
	// request with labels matching more than one category goes into the
	// first matching one.
	Categories []string `koanf:"categories"`
	// Labels maps a github label name to a section name.
	Labels map[string]string `koanf:"labels"`
	// Default is the bucket for pull requests matching no configured label.
	Default string `koanf:"default"`
}

// DefaultMapping returns the mapping used when no configuration overrides it.
func DefaultMapping() Mapping {
	return Mapping{
		Categories: []string{"Features", "Fixes", "Documentation", "Other"},
		Labels: map[string]string{
			"feature":       "Features",
			"enhancement":   "Features",
			"bug":           "Fixes",
			"fix":           "Fixes",
			"documentation": "Documentation",
			"docs":          "Documentation",
		},
		Default: "Other",
	}
}
