package ghclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
)

// NotFoundError is returned when the repository does not exist or is not
// accessible with the current credentials.
type NotFoundError struct {
	Owner string
	Repo  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("repository %s/%s not found or not accessible", e.Owner, e.Repo)
}

// AuthError is returned on invalid or expired credentials.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("github authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RateLimitError is returned when the github API quota is exhausted.
type RateLimitError struct {
	Reset time.Time
}

func (e *RateLimitError) Error() string {
	if e.Reset.IsZero() {
		return "github API rate limit exhausted"
	}
	return fmt.Sprintf("github API rate limit exhausted, resets at %s", e.Reset.Format(time.RFC1123))
}

// MilestoneNotFoundError is returned when the requested milestone is not
// among the repository's open milestones.
type MilestoneNotFoundError struct {
	Title     string
	Available []string
}

func (e *MilestoneNotFoundError) Error() string {
	return fmt.Sprintf("milestone %q not found (open milestones: %s)",
		e.Title, strings.Join(e.Available, ", "))
}

// mapError translates go-github errors into the client's error types.
// Anything unrecognized passes through unchanged.
func (c *Client) mapError(err error) error {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return &RateLimitError{Reset: rle.Rate.Reset.Time}
	}
	var arle *github.AbuseRateLimitError
	if errors.As(err, &arle) {
		return &RateLimitError{}
	}
	var ghe *github.ErrorResponse
	if errors.As(err, &ghe) && ghe.Response != nil {
		switch ghe.Response.StatusCode {
		case http.StatusNotFound:
			return &NotFoundError{Owner: c.owner, Repo: c.repo}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &AuthError{Err: err}
		}
	}
	return err
}
