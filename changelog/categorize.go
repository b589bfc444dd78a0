package changelog

// Categorize groups pull requests into sections according to the mapping.
//
// Every pull request lands in exactly one section: the first category in
// priority order that one of its labels maps to, or the default bucket when
// no label matches. Empty sections are omitted. The order of pull requests
// within a section preserves the input order.
func Categorize(prs []PullRequest, m Mapping) []Section {
	buckets := make(map[string][]PullRequest)
	for _, pr := range prs {
		name := m.categoryFor(pr)
		buckets[name] = append(buckets[name], pr)
	}

	var sections []Section
	for _, name := range m.order() {
		if len(buckets[name]) == 0 {
			continue
		}
		sections = append(sections, Section{Name: name, PullRequests: buckets[name]})
	}
	return sections
}

// categoryFor resolves multi-label ties by first match against the priority
// list, not by label order on the pull request.
func (m Mapping) categoryFor(pr PullRequest) string {
	for _, category := range m.Categories {
		for _, label := range pr.Labels {
			if m.Labels[label] == category {
				return category
			}
		}
	}
	return m.Default
}

// order returns the category names in render order, with the default bucket
// appended last unless it already appears in the priority list.
func (m Mapping) order() []string {
	for _, name := range m.Categories {
		if name == m.Default {
			return m.Categories
		}
	}
	return append(append([]string{}, m.Categories...), m.Default)
}
