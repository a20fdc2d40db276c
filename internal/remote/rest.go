package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// listPages follows Link-header pagination from path, decoding each page
// into a fresh slice and appending it to the result.
func listPages[T any](ctx context.Context, c *Client, op, path string) ([]T, error) {
	var all []T
	next := path
	for next != "" {
		var page []T
		link, err := c.rest(ctx, op, http.MethodGet, next, nil, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		next = link
	}
	return all, nil
}

func pagedPath(format string, args ...any) string {
	return fmt.Sprintf(format, args...) + fmt.Sprintf("?per_page=%d", PageSize)
}

// ListRESTProjects returns every classic project of owner, open and closed.
// An empty owner is the authenticated user.
func (c *Client) ListRESTProjects(ctx context.Context, owner string) ([]*RESTProject, error) {
	var path string
	switch {
	case owner == "":
		login, err := c.Viewer(ctx)
		if err != nil {
			return nil, err
		}
		path = pagedPath("/users/%s/projects", url.PathEscape(login))
	case c.ResolveOwner(ctx, owner) == OwnerOrganization:
		path = pagedPath("/orgs/%s/projects", url.PathEscape(owner))
	default:
		path = pagedPath("/users/%s/projects", url.PathEscape(owner))
	}
	return listPages[*RESTProject](ctx, c, "list projects", path+"&state=all")
}

// FindRESTProject returns the first classic project of owner named exactly
// name. Remote names are not unique, so with duplicates the first listed
// project wins.
func (c *Client) FindRESTProject(ctx context.Context, owner, name string) (*RESTProject, error) {
	projects, err := c.ListRESTProjects(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, &Error{
		Kind:    KindNotFound,
		Model:   ModelREST,
		Op:      "find project",
		Message: fmt.Sprintf("no project named %q", name),
	}
}

// GetRESTProject fetches a classic project by id.
func (c *Client) GetRESTProject(ctx context.Context, id int64) (*RESTProject, error) {
	var p RESTProject
	if _, err := c.rest(ctx, "get project", http.MethodGet, fmt.Sprintf("/projects/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateRESTProject creates a classic project for the authenticated user.
func (c *Client) CreateRESTProject(ctx context.Context, name, body string) (*RESTProject, error) {
	in := map[string]string{"name": name, "body": body}
	var p RESTProject
	if _, err := c.rest(ctx, "create project", http.MethodPost, "/user/projects", in, &p); err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, &Error{Kind: KindMalformed, Model: ModelREST, Op: "create project", Message: "response has no project id"}
	}
	return &p, nil
}

// ListColumns returns the columns of a classic project in board order.
func (c *Client) ListColumns(ctx context.Context, projectID int64) ([]*Column, error) {
	return listPages[*Column](ctx, c, "list columns", pagedPath("/projects/%d/columns", projectID))
}

// CreateColumn adds a column to a classic project.
func (c *Client) CreateColumn(ctx context.Context, projectID int64, name string) (*Column, error) {
	in := map[string]string{"name": name}
	var col Column
	path := fmt.Sprintf("/projects/%d/columns", projectID)
	if _, err := c.rest(ctx, "create column", http.MethodPost, path, in, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// ListCards returns the non-archived cards of a column in board order.
func (c *Client) ListCards(ctx context.Context, columnID int64) ([]*Card, error) {
	return listPages[*Card](ctx, c, "list cards", pagedPath("/projects/columns/%d/cards", columnID))
}

// CreateCard adds a card to a column. The input must carry exactly one of
// a note or linked content.
func (c *Client) CreateCard(ctx context.Context, columnID int64, in CardInput) (*Card, error) {
	hasNote := in.Note != ""
	hasContent := in.ContentID != 0
	if hasNote == hasContent {
		return nil, ErrInvalidCard
	}

	var payload any
	if hasNote {
		payload = map[string]string{"note": in.Note}
	} else {
		if in.ContentType == "" {
			return nil, fmt.Errorf("%w: content type is required", ErrInvalidCard)
		}
		payload = map[string]any{"content_id": in.ContentID, "content_type": in.ContentType}
	}

	var card Card
	path := fmt.Sprintf("/projects/columns/%d/cards", columnID)
	if _, err := c.rest(ctx, "create card", http.MethodPost, path, payload, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// MoveCard moves a card within or across columns. position is "top",
// "bottom" or "after:<card id>". A zero columnID keeps the current column.
func (c *Client) MoveCard(ctx context.Context, cardID, columnID int64, position string) error {
	in := map[string]any{"position": position}
	if columnID != 0 {
		in["column_id"] = columnID
	}
	path := fmt.Sprintf("/projects/columns/cards/%d/moves", cardID)
	_, err := c.rest(ctx, "move card", http.MethodPost, path, in, nil)
	return err
}
