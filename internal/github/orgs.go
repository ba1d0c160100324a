package github

import (
	"context"
	"net/url"
)

func (c *Client) GetOrg(ctx context.Context, org string) (*Org, error) {
	var o Org
	if _, err := c.get(ctx, "orgs.get", "/orgs"+escape(org), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) ListOrgRepos(ctx context.Context, org string) ([]Repo, error) {
	q := url.Values{"sort": {"pushed"}, "type": {"public"}}
	return paginate[Repo](ctx, c, "orgs.repos", "/orgs"+escape(org, "repos"), q, 0)
}

func (c *Client) ListOrgMembers(ctx context.Context, org string) ([]SimpleUser, error) {
	return paginate[SimpleUser](ctx, c, "orgs.members", "/orgs"+escape(org, "members"), nil, 0)
}
