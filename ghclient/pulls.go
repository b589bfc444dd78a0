package ghclient

import (
	"context"
	"sort"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/menghanl/changelog-gen/changelog"
)

// MergedPullRequestsSince returns all pull requests merged after the given
// boundary, most recent first. A zero boundary collects every merged pull
// request in the repository.
//
// Pagination walks closed pull requests in descending update order and stops
// once a page contains an entry merged at or before the boundary. The
// collected result is then sorted by merge time explicitly, so provider
// ordering is an optimization rather than a correctness requirement.
func (c *Client) MergedPullRequestsSince(ctx context.Context, since time.Time) ([]changelog.PullRequest, error) {
	opt := &github.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var out []changelog.PullRequest
	for {
		pulls, resp, err := c.gh.PullRequests.List(ctx, c.owner, c.repo, opt)
		if err != nil {
			return nil, c.mapError(err)
		}

		pastBoundary := false
		for _, pr := range pulls {
			// The stream arrives in update-time order and update time
			// never precedes merge time, so later pages cannot hold a
			// qualifying merge once update times pass the boundary.
			// Merge time alone is not safe to stop on: a pre-boundary
			// merge touched recently would halt pagination early.
			if !since.IsZero() && !pr.GetUpdatedAt().After(since) {
				pastBoundary = true
			}
			if pr.MergedAt == nil {
				continue // closed without merging
			}
			mergedAt := pr.GetMergedAt().Time
			if !since.IsZero() && !mergedAt.After(since) {
				continue
			}
			out = append(out, convertPull(pr))
		}
		c.log.Debug().Int("page", opt.Page).Int("count", len(pulls)).Msg("fetched pull request page")

		if resp.NextPage == 0 || pastBoundary {
			break
		}
		opt.Page = resp.NextPage
	}

	sortByMergeTime(out)
	c.log.Info().Int("count", len(out)).Time("since", since).Msg("collected merged pull requests")
	return out, nil
}

func sortByMergeTime(prs []changelog.PullRequest) {
	sort.SliceStable(prs, func(i, j int) bool {
		return prs[i].MergedAt.After(prs[j].MergedAt)
	})
}

func convertPull(pr *github.PullRequest) changelog.PullRequest {
	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}
	return changelog.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Author:    pr.GetUser().GetLogin(),
		HTMLURL:   pr.GetHTMLURL(),
		MergedAt:  pr.GetMergedAt().Time,
		Labels:    labels,
		Milestone: pr.GetMilestone().GetTitle(),
	}
}
