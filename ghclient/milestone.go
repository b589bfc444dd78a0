package ghclient

import (
	"context"
	"strconv"

	"github.com/google/go-github/v68/github"
	"github.com/menghanl/changelog-gen/changelog"
)

// MergedPullRequestsForMilestone returns the merged pull requests attached to
// an open milestone, most recent first, along with the resolved milestone
// title. An empty title selects the most recently updated open milestone.
func (c *Client) MergedPullRequestsForMilestone(ctx context.Context, title string) ([]changelog.PullRequest, string, error) {
	m, err := c.milestone(ctx, title)
	if err != nil {
		return nil, "", err
	}
	c.log.Info().Str("milestone", m.GetTitle()).Msg("resolved milestone")

	issues, err := c.closedIssuesForMilestone(ctx, m.GetNumber())
	if err != nil {
		return nil, "", err
	}

	var out []changelog.PullRequest
	for _, issue := range issues {
		if issue.PullRequestLinks == nil {
			c.log.Debug().Int("number", issue.GetNumber()).Msg("not a pull request")
			continue
		}
		mergedAt, ok, err := c.mergeTime(ctx, issue.GetNumber())
		if err != nil {
			return nil, "", err
		}
		if !ok {
			c.log.Debug().Int("number", issue.GetNumber()).Msg("closed without merging")
			continue
		}

		labels := make([]string, 0, len(issue.Labels))
		for _, l := range issue.Labels {
			labels = append(labels, l.GetName())
		}
		out = append(out, changelog.PullRequest{
			Number:    issue.GetNumber(),
			Title:     issue.GetTitle(),
			Author:    issue.GetUser().GetLogin(),
			HTMLURL:   issue.GetHTMLURL(),
			MergedAt:  mergedAt.Time,
			Labels:    labels,
			Milestone: m.GetTitle(),
		})
	}

	sortByMergeTime(out)
	c.log.Info().Int("count", len(out)).Str("milestone", m.GetTitle()).Msg("collected merged pull requests")
	return out, m.GetTitle(), nil
}

// milestone resolves an open milestone by title, or the most recently updated
// one when title is empty.
func (c *Client) milestone(ctx context.Context, title string) (*github.Milestone, error) {
	milestones, _, err := c.gh.Issues.ListMilestones(ctx, c.owner, c.repo,
		&github.MilestoneListOptions{
			State:       "open",
			ListOptions: github.ListOptions{PerPage: 100},
		},
	)
	if err != nil {
		return nil, c.mapError(err)
	}

	if title == "" {
		var latest *github.Milestone
		for _, m := range milestones {
			if latest == nil || m.GetUpdatedAt().After(latest.GetUpdatedAt().Time) {
				latest = m
			}
		}
		if latest == nil {
			return nil, &MilestoneNotFoundError{Title: title}
		}
		return latest, nil
	}

	available := make([]string, 0, len(milestones))
	for _, m := range milestones {
		if m.GetTitle() == title {
			return m, nil
		}
		available = append(available, m.GetTitle())
	}
	return nil, &MilestoneNotFoundError{Title: title, Available: available}
}

func (c *Client) closedIssuesForMilestone(ctx context.Context, number int) ([]*github.Issue, error) {
	opt := &github.IssueListByRepoOptions{
		State:       "closed",
		Milestone:   strconv.Itoa(number),
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var out []*github.Issue
	for {
		issues, resp, err := c.gh.Issues.ListByRepo(ctx, c.owner, c.repo, opt)
		if err != nil {
			return nil, c.mapError(err)
		}
		out = append(out, issues...)
		if resp.NextPage == 0 {
			break
		}
		// IssueListByRepoOptions also embeds cursor options with a
		// string Page, so the selector must name the numeric one.
		opt.ListOptions.Page = resp.NextPage
	}
	return out, nil
}

// mergeTime finds the "merged" event for a pull request. ok is false when the
// pull request was closed without merging.
func (c *Client) mergeTime(ctx context.Context, number int) (github.Timestamp, bool, error) {
	events, _, err := c.gh.Issues.ListIssueEvents(ctx, c.owner, c.repo, number, nil)
	if err != nil {
		return github.Timestamp{}, false, c.mapError(err)
	}
	for _, e := range events {
		if e.GetEvent() == "merged" {
			return e.GetCreatedAt(), true, nil
		}
	}
	return github.Timestamp{}, false, nil
}
