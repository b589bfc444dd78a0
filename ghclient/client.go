// Package ghclient is a github client used to collect merged pull requests
// and release info for a repository.
package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/rs/zerolog"
)

// Client is a github client scoped to one repository.
type Client struct {
	owner string
	repo  string

	gh  *github.Client
	log zerolog.Logger
}

// New creates a Client for the given repository. tc is the http client to
// use; pass an oauth2 token client for authenticated requests, or nil for
// unauthenticated ones.
func New(tc *http.Client, owner, repo string, log zerolog.Logger) *Client {
	return &Client{
		owner: owner,
		repo:  repo,
		gh:    github.NewClient(tc),
		log:   log,
	}
}

// CheckAccess verifies the repository exists and is readable with the current
// credentials. It returns *NotFoundError when it is not.
func (c *Client) CheckAccess(ctx context.Context) error {
	_, _, err := c.gh.Repositories.Get(ctx, c.owner, c.repo)
	if err != nil {
		return c.mapError(err)
	}
	return nil
}

// LatestRelease returns the tag name and publish time of the repository's
// latest release. A repository without releases returns zero values and no
// error; the caller then collects all merged pull requests.
func (c *Client) LatestRelease(ctx context.Context) (string, time.Time, error) {
	rel, resp, err := c.gh.Repositories.GetLatestRelease(ctx, c.owner, c.repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			c.log.Debug().Msg("repository has no releases, collecting everything")
			return "", time.Time{}, nil
		}
		return "", time.Time{}, c.mapError(err)
	}
	c.log.Info().Str("tag", rel.GetTagName()).Time("published", rel.GetPublishedAt().Time).Msg("resolved latest release")
	return rel.GetTagName(), rel.GetPublishedAt().Time, nil
}

// ReleaseByTag returns the publish time of the release with the given tag.
func (c *Client) ReleaseByTag(ctx context.Context, tag string) (time.Time, error) {
	rel, _, err := c.gh.Repositories.GetReleaseByTag(ctx, c.owner, c.repo, tag)
	if err != nil {
		return time.Time{}, c.mapError(err)
	}
	return rel.GetPublishedAt().Time, nil
}

// CompareURL returns the github URL comparing the most recent release tag
// with newTag, or "" when the repository has no prior release. An empty
// newTag compares against HEAD.
func (c *Client) CompareURL(ctx context.Context, newTag string) (string, error) {
	rels, _, err := c.gh.Repositories.ListReleases(ctx, c.owner, c.repo, &github.ListOptions{PerPage: 1})
	if err != nil {
		return "", c.mapError(err)
	}
	if len(rels) == 0 {
		return "", nil
	}
	if newTag == "" {
		newTag = "HEAD"
	}
	return fmt.Sprintf("https://github.com/%s/%s/compare/%s...%s", c.owner, c.repo, rels[0].GetTagName(), newTag), nil
}
