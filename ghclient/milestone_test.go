package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func milestoneMux(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/milestones", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"number":7,"title":"1.2 Release","updated_at":"2026-08-20T00:00:00Z"},
			{"number":5,"title":"1.1 Release","updated_at":"2026-05-01T00:00:00Z"}
		]`)
	})
	mux.HandleFunc("/repos/acme/widgets/issues", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "7", r.URL.Query().Get("milestone"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"number":41,"title":"Fix crash","html_url":"https://github.com/acme/widgets/pull/41",
			 "user":{"login":"bob"},"labels":[{"name":"bug"}],"pull_request":{"html_url":"https://github.com/acme/widgets/pull/41"}},
			{"number":42,"title":"Plain issue, not a PR","html_url":"https://github.com/acme/widgets/issues/42",
			 "user":{"login":"carol"},"labels":[]},
			{"number":43,"title":"Abandoned","html_url":"https://github.com/acme/widgets/pull/43",
			 "user":{"login":"dave"},"labels":[],"pull_request":{"html_url":"https://github.com/acme/widgets/pull/43"}}
		]`)
	})
	mux.HandleFunc("/repos/acme/widgets/issues/41/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"event":"closed"},{"event":"merged","created_at":"2026-08-10T12:00:00Z"}]`)
	})
	mux.HandleFunc("/repos/acme/widgets/issues/43/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"event":"closed"}]`)
	})
	return mux
}

func TestMergedPullRequestsForMilestone(t *testing.T) {
	c := testClient(t, milestoneMux(t))

	prs, title, err := c.MergedPullRequestsForMilestone(context.Background(), "1.2 Release")
	require.NoError(t, err)

	assert.Equal(t, "1.2 Release", title)
	require.Len(t, prs, 1, "non-PR issues and unmerged PRs are skipped")
	assert.Equal(t, 41, prs[0].Number)
	assert.Equal(t, "bob", prs[0].Author)
	assert.Equal(t, "1.2 Release", prs[0].Milestone)
	assert.Equal(t, time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC), prs[0].MergedAt)
}

func TestMilestoneIssuesPaginate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/milestones", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"number":7,"title":"1.2 Release","updated_at":"2026-08-20T00:00:00Z"}]`)
	})
	mux.HandleFunc("/repos/acme/widgets/issues", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "", "1":
			next := fmt.Sprintf(`<http://%s/repos/acme/widgets/issues?page=2>; rel="next"`, r.Host)
			w.Header().Set("Link", next)
			fmt.Fprint(w, `[
				{"number":41,"title":"Fix crash","html_url":"https://github.com/acme/widgets/pull/41",
				 "user":{"login":"bob"},"labels":[],"pull_request":{"html_url":"https://github.com/acme/widgets/pull/41"}}
			]`)
		case "2":
			fmt.Fprint(w, `[
				{"number":44,"title":"Add gears","html_url":"https://github.com/acme/widgets/pull/44",
				 "user":{"login":"erin"},"labels":[],"pull_request":{"html_url":"https://github.com/acme/widgets/pull/44"}}
			]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})
	mux.HandleFunc("/repos/acme/widgets/issues/41/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"event":"merged","created_at":"2026-08-10T12:00:00Z"}]`)
	})
	mux.HandleFunc("/repos/acme/widgets/issues/44/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"event":"merged","created_at":"2026-08-12T12:00:00Z"}]`)
	})
	c := testClient(t, mux)

	prs, _, err := c.MergedPullRequestsForMilestone(context.Background(), "1.2 Release")
	require.NoError(t, err)

	require.Len(t, prs, 2)
	assert.Equal(t, 44, prs[0].Number, "most recent merge first")
	assert.Equal(t, 41, prs[1].Number)
}

func TestMilestoneDefaultsToMostRecentlyUpdated(t *testing.T) {
	c := testClient(t, milestoneMux(t))

	_, title, err := c.MergedPullRequestsForMilestone(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "1.2 Release", title)
}

func TestMilestoneNotFound(t *testing.T) {
	c := testClient(t, milestoneMux(t))

	_, _, err := c.MergedPullRequestsForMilestone(context.Background(), "9.9 Release")

	var notFound *MilestoneNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "9.9 Release", notFound.Title)
	assert.Contains(t, notFound.Available, "1.2 Release")
	assert.Contains(t, notFound.Available, "1.1 Release")
}
