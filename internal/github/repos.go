package github

import (
	"context"
	"net/http"
)

func (c *Client) GetRepo(ctx context.Context, owner, repo string) (*Repo, error) {
	var r Repo
	if _, err := c.get(ctx, "repos.get", "/repos"+escape(owner, repo), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) ListLanguages(ctx context.Context, owner, repo string) (Languages, error) {
	langs := Languages{}
	if _, err := c.get(ctx, "repos.languages", "/repos"+escape(owner, repo, "languages"), nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// ListCommits pages through the default branch history, PerPage commits at
// a time, until a short page. A nonzero MaxCommitPages bounds huge
// repositories, and a listing cut at that bound is logged.
func (c *Client) ListCommits(ctx context.Context, owner, repo string) ([]Commit, error) {
	return paginate[Commit](ctx, c, "repos.commits", "/repos"+escape(owner, repo, "commits"), nil, c.maxCommitPages)
}

// CommitActivity returns the last year of weekly commit counts. While GitHub
// is still computing the statistics it answers 202 with no body; that is
// reported as an empty result rather than an error.
func (c *Client) CommitActivity(ctx context.Context, owner, repo string) ([]WeekActivity, error) {
	var weeks []WeekActivity
	status, err := c.get(ctx, "repos.commit_activity", "/repos"+escape(owner, repo, "stats", "commit_activity"), nil, &weeks)
	if err != nil {
		return nil, err
	}
	if status == http.StatusAccepted || weeks == nil {
		return []WeekActivity{}, nil
	}
	return weeks, nil
}
