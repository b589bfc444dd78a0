// changelog-gen generates a changelog file from the merged github PRs of a
// repository.
//
// By default it collects every PR merged after the repository's latest
// release and writes a new file named {owner}_{repo}_changelog.{tag}.md.
// With --update, the rendered section is prepended to an existing changelog
// file (CHANGES.md unless --name overrides it) instead.
//
// For each merged PR, it generates one changelog line in the form of:
//   - description by @author. [View pull request](url)
//
// The PR's labels pick the section of the change. For example, a PR labeled
// `["bug"]` lands in the "Fixes" section. A PR with several matching labels
// goes into the first matching section in the order
// `"Features", "Fixes", "Documentation"`; a PR with no matching label goes
// into "Other".
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/menghanl/changelog-gen/changelog"
	"github.com/menghanl/changelog-gen/config"
	"github.com/menghanl/changelog-gen/ghclient"
	"github.com/menghanl/changelog-gen/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

type options struct {
	token      string
	update     bool
	name       string
	milestone  string
	sinceTag   string
	tag        string
	logLevel   string
	configPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "changelog-gen <owner>/<repo>",
		Short: "Create a changelog file from merged github pull requests",
		Long: `Create a changelog file from all the pull requests merged since the
repository's latest release (or since --since-tag, or within --milestone).

Examples:
  changelog-gen acme/widgets                    # new file acme_widgets_changelog.unreleased.md
  changelog-gen --tag 1.2.0 acme/widgets        # new file acme_widgets_changelog.1.2.0.md
  changelog-gen --update acme/widgets           # prepend into CHANGES.md
  changelog-gen --update --name HISTORY.md acme/widgets
  changelog-gen --milestone "1.2 Release" acme/widgets`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], opts, cmd.Flags().Changed("name"))
		},
	}

	fl := cmd.PersistentFlags()
	fl.StringVar(&opts.token, "token", "", "github token (also read from GITHUB_TOKEN)")
	fl.StringVar(&opts.milestone, "milestone", "", "collect PRs for this milestone instead of since the latest release")
	fl.StringVar(&opts.sinceTag, "since-tag", "", "collect PRs merged after this release tag")
	fl.StringVar(&opts.tag, "tag", "", "version tag for the new changelog section")
	fl.StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	fl.StringVar(&opts.configPath, "config", "", "YAML config file with label to section mapping overrides")

	cmd.Flags().BoolVar(&opts.update, "update", false, "update an existing changelog file by prepending to it")
	cmd.Flags().StringVar(&opts.name, "name", "CHANGES.md", "existing changelog file to update, or output filename override")

	cmd.AddCommand(newServeCmd(&opts))
	return cmd
}

func newServeCmd(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <owner>/<repo>",
		Short: "Serve the rendered changelog over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(opts.logLevel)
			if err != nil {
				return err
			}
			cfg, c, err := setup(cmd.Context(), args[0], *opts, log)
			if err != nil {
				return err
			}
			gen := func(ctx context.Context) (string, error) {
				doc, _, err := generate(ctx, c, cfg, args[0], *opts)
				return doc, err
			}
			log.Info().Str("addr", addr).Msg("serving changelog")
			return server.New(gen, log).Run(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func run(ctx context.Context, repoRef string, opts options, nameSet bool) error {
	log, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}
	cfg, c, err := setup(ctx, repoRef, opts, log)
	if err != nil {
		return err
	}

	doc, tag, err := generate(ctx, c, cfg, repoRef, opts)
	if err != nil {
		return err
	}

	owner, repo, _ := strings.Cut(repoRef, "/")
	path := opts.name
	if opts.update {
		if err := changelog.UpdateExisting(path, doc); err != nil {
			return err
		}
	} else {
		if !nameSet {
			path = changelog.Filename(owner, repo, tag)
		}
		if err := changelog.WriteNew(path, doc); err != nil {
			return err
		}
	}

	log.Info().Str("file", path).Msg("changelog written")
	fmt.Printf("%s changelog written to %s\n", color.GreenString("✓"), path)
	return nil
}

// setup loads config and builds the github client for an owner/repo
// reference, wiring an oauth2 token client when a token is available.
func setup(ctx context.Context, repoRef string, opts options, log zerolog.Logger) (*config.Config, *ghclient.Client, error) {
	owner, repo, ok := strings.Cut(repoRef, "/")
	if !ok || owner == "" || repo == "" {
		return nil, nil, fmt.Errorf("invalid repository reference %q, expected <owner>/<repo>", repoRef)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	token := opts.token
	if token == "" {
		token = cfg.Token
	}

	var tc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc = oauth2.NewClient(ctx, ts)
	}

	return cfg, ghclient.New(tc, owner, repo, log), nil
}

// generate runs the collect -> categorize -> render pipeline and returns the
// document along with the resolved tag for the new section.
func generate(ctx context.Context, c *ghclient.Client, cfg *config.Config, repoRef string, opts options) (string, string, error) {
	owner, repo, _ := strings.Cut(repoRef, "/")

	if err := c.CheckAccess(ctx); err != nil {
		return "", "", err
	}

	var (
		prs []changelog.PullRequest
		tag = opts.tag
		err error
	)
	if opts.milestone != "" {
		var title string
		prs, title, err = c.MergedPullRequestsForMilestone(ctx, opts.milestone)
		if err != nil {
			return "", "", err
		}
		if tag == "" {
			tag = tagFromMilestone(title)
		}
	} else {
		var since time.Time
		if opts.sinceTag != "" {
			since, err = c.ReleaseByTag(ctx, opts.sinceTag)
		} else {
			_, since, err = c.LatestRelease(ctx)
		}
		if err != nil {
			return "", "", err
		}
		prs, err = c.MergedPullRequestsSince(ctx, since)
		if err != nil {
			return "", "", err
		}
		if tag == "" {
			tag = "unreleased"
		}
	}

	compareTag := tag
	if compareTag == "unreleased" {
		compareTag = ""
	}
	compareURL, err := c.CompareURL(ctx, compareTag)
	if err != nil {
		return "", "", err
	}

	sections := changelog.Categorize(prs, cfg.Mapping)
	doc := changelog.Render(changelog.Release{
		Owner:      owner,
		Repo:       repo,
		Tag:        tag,
		Date:       time.Now(),
		CompareURL: compareURL,
	}, sections)
	return doc, tag, nil
}

// tagFromMilestone derives the version tag from a milestone title: the last
// word, e.g. "1.2.0" for "Sprint 1.2.0" or the title itself when it is a bare
// version. A blank title falls back to "unreleased".
func tagFromMilestone(title string) string {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return "unreleased"
	}
	return fields[len(fields)-1]
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl), nil
}

// printError writes a one-line classified error to stderr, colorized when the
// terminal supports it.
func printError(err error) {
	label := color.New(color.FgRed, color.Bold).SprintFunc()
	category := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s [%s]: %v\n", label("Error"), category(classify(err)), err)
}

// classify maps an error to its taxonomy name for display.
func classify(err error) string {
	var (
		notFound    *ghclient.NotFoundError
		auth        *ghclient.AuthError
		rateLimit   *ghclient.RateLimitError
		noMilestone *ghclient.MilestoneNotFoundError
		missing     *changelog.MissingFileError
		exists      *changelog.FileExistsError
		pathErr     *fs.PathError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &noMilestone):
		return "NotFoundError"
	case errors.As(err, &auth):
		return "AuthError"
	case errors.As(err, &rateLimit):
		return "RateLimitError"
	case errors.As(err, &missing):
		return "MissingFileError"
	case errors.As(err, &exists):
		return "FileExistsError"
	case errors.As(err, &pathErr):
		return "IOFailure"
	default:
		return "Error"
	}
}
