package remote

import (
	"context"
	"fmt"
	"net/url"
)

type account struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Type  string `json:"type"`
}

// Viewer returns the login of the authenticated user.
func (c *Client) Viewer(ctx context.Context) (string, error) {
	c.mu.Lock()
	login := c.viewer
	c.mu.Unlock()
	if login != "" {
		return login, nil
	}

	var me account
	if _, err := c.rest(ctx, "get authenticated user", "GET", "/user", nil, &me); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.viewer = me.Login
	c.mu.Unlock()
	return me.Login, nil
}

// ResolveOwner classifies owner as an organization or a user. An empty owner
// is the authenticated user. Failures resolve to OwnerUnknown. Results,
// including OwnerUnknown, are cached for the client's lifetime.
func (c *Client) ResolveOwner(ctx context.Context, owner string) OwnerKind {
	if owner == "" {
		return OwnerUser
	}

	c.mu.Lock()
	kind, ok := c.ownerKinds[owner]
	c.mu.Unlock()
	if ok {
		return kind
	}

	kind = OwnerUnknown
	var acct account
	_, err := c.rest(ctx, "get organization", "GET", "/orgs/"+url.PathEscape(owner), nil, &acct)
	if err == nil {
		kind = OwnerOrganization
	} else if !isCanceled(err) {
		c.logger.Printf("owner %s is not an organization: %v", owner, err)
		_, err = c.rest(ctx, "get user", "GET", "/users/"+url.PathEscape(owner), nil, &acct)
		switch {
		case err == nil && acct.Type == "Organization":
			kind = OwnerOrganization
		case err == nil:
			kind = OwnerUser
		default:
			c.logger.Printf("owner %s is not a user: %v", owner, err)
		}
	}

	// A cancelled lookup says nothing about the owner.
	if err != nil && isCanceled(err) {
		return OwnerUnknown
	}

	c.mu.Lock()
	c.ownerKinds[owner] = kind
	c.mu.Unlock()
	return kind
}

const (
	orgNodeIDQuery = `query($login: String!) {
  organization(login: $login) { id }
}`
	userNodeIDQuery = `query($login: String!) {
  user(login: $login) { id }
}`
	viewerNodeIDQuery = `query {
  viewer { id login }
}`
)

// OwnerNodeID returns the graph node id of owner: the organization with that
// login, or else the user. An empty owner is the authenticated user.
func (c *Client) OwnerNodeID(ctx context.Context, owner string) (string, error) {
	c.mu.Lock()
	id, ok := c.ownerNodeID[owner]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	id, err := c.lookupOwnerNodeID(ctx, owner)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.ownerNodeID[owner] = id
	c.mu.Unlock()
	return id, nil
}

func (c *Client) lookupOwnerNodeID(ctx context.Context, owner string) (string, error) {
	if owner == "" {
		var out struct {
			Viewer struct {
				ID string `json:"id"`
			} `json:"viewer"`
		}
		if err := c.graph(ctx, "get viewer node id", viewerNodeIDQuery, nil, &out); err != nil {
			return "", err
		}
		return out.Viewer.ID, nil
	}

	vars := map[string]any{"login": owner}

	var org struct {
		Organization *struct {
			ID string `json:"id"`
		} `json:"organization"`
	}
	err := c.graph(ctx, "get organization node id", orgNodeIDQuery, vars, &org)
	if err == nil && org.Organization != nil {
		return org.Organization.ID, nil
	}
	if err != nil && !IsNotFound(err) {
		return "", err
	}

	var user struct {
		User *struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := c.graph(ctx, "get user node id", userNodeIDQuery, vars, &user); err != nil {
		return "", err
	}
	if user.User == nil {
		return "", &Error{
			Kind:    KindNotFound,
			Model:   ModelGraph,
			Op:      "get owner node id",
			Message: fmt.Sprintf("no organization or user named %q", owner),
		}
	}
	return user.User.ID, nil
}
