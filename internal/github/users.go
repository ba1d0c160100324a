package github

import (
	"context"
	"net/url"
)

func (c *Client) GetUser(ctx context.Context, username string) (*User, error) {
	var u User
	if _, err := c.get(ctx, "users.get", "/users"+escape(username), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUserRepos returns every public repository owned by username, most
// recently pushed first.
func (c *Client) ListUserRepos(ctx context.Context, username string) ([]Repo, error) {
	q := url.Values{"sort": {"pushed"}, "type": {"owner"}}
	return paginate[Repo](ctx, c, "users.repos", "/users"+escape(username, "repos"), q, 0)
}

func (c *Client) ListUserOrgs(ctx context.Context, username string) ([]SimpleUser, error) {
	return paginate[SimpleUser](ctx, c, "users.orgs", "/users"+escape(username, "orgs"), nil, 0)
}

// ListUserEvents returns the most recent public events. GitHub only keeps
// 90 days and 300 events, so three pages is the most there can be.
func (c *Client) ListUserEvents(ctx context.Context, username string) ([]Event, error) {
	return paginate[Event](ctx, c, "users.events", "/users"+escape(username, "events", "public"), nil, 3)
}
