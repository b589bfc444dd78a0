package changelog

import (
	"fmt"
	"strings"
)

// Render produces the markdown text for one changelog section. The output is
// deterministic for a given release and section list; the release date is the
// only field that varies between otherwise identical runs.
//
// A release with no sections renders as the heading (and compare link, when
// present) alone.
func Render(rel Release, sections []Section) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s (%s)\n", rel.Tag, rel.Date.Format("2006-01-02"))
	if rel.CompareURL != "" {
		fmt.Fprintf(&b, "[View detailed changelog](%s)\n", rel.CompareURL)
	}

	for _, section := range sections {
		fmt.Fprintf(&b, "\n**%s**\n\n", strings.ToUpper(section.Name))
		for _, pr := range section.PullRequests {
			b.WriteString(renderEntry(pr))
		}
	}

	return b.String()
}

// renderEntry formats one changelog line for a pull request.
func renderEntry(pr PullRequest) string {
	return fmt.Sprintf("- %s by @%s. [View pull request](%s)\n", pr.Title, pr.Author, pr.HTMLURL)
}
