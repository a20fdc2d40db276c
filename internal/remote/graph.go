package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// cursor returns the $after variable for a page: nil on the first page.
func cursor(after string) any {
	if after == "" {
		return nil
	}
	return after
}

const listGraphProjectsQuery = `query($ownerId: ID!, $first: Int!, $after: String) {
  node(id: $ownerId) {
    ... on Organization {
      projectsV2(first: $first, after: $after) {
        nodes { id number title shortDescription url closed }
        pageInfo { hasNextPage endCursor }
      }
    }
    ... on User {
      projectsV2(first: $first, after: $after) {
        nodes { id number title shortDescription url closed }
        pageInfo { hasNextPage endCursor }
      }
    }
  }
}`

// ListGraphProjects returns every Projects v2 project of owner.
func (c *Client) ListGraphProjects(ctx context.Context, owner string) ([]*GraphProject, error) {
	ownerID, err := c.OwnerNodeID(ctx, owner)
	if err != nil {
		return nil, err
	}

	var all []*GraphProject
	after := ""
	for {
		var out struct {
			Node *struct {
				ProjectsV2 *struct {
					Nodes    []*GraphProject `json:"nodes"`
					PageInfo pageInfo        `json:"pageInfo"`
				} `json:"projectsV2"`
			} `json:"node"`
		}
		vars := map[string]any{"ownerId": ownerID, "first": PageSize, "after": cursor(after)}
		if err := c.graph(ctx, "list graph projects", listGraphProjectsQuery, vars, &out); err != nil {
			return nil, err
		}
		if out.Node == nil || out.Node.ProjectsV2 == nil {
			return nil, &Error{
				Kind:    KindNotFound,
				Model:   ModelGraph,
				Op:      "list graph projects",
				Message: fmt.Sprintf("owner %q has no visible projects", owner),
			}
		}

		for _, p := range out.Node.ProjectsV2.Nodes {
			if p != nil {
				all = append(all, p)
			}
		}
		page := out.Node.ProjectsV2.PageInfo
		if !page.HasNextPage || page.EndCursor == "" {
			return all, nil
		}
		after = page.EndCursor
	}
}

// FindGraphProject returns the first project of owner titled exactly title.
func (c *Client) FindGraphProject(ctx context.Context, owner, title string) (*GraphProject, error) {
	projects, err := c.ListGraphProjects(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if p.Title == title {
			return p, nil
		}
	}
	return nil, &Error{
		Kind:    KindNotFound,
		Model:   ModelGraph,
		Op:      "find graph project",
		Message: fmt.Sprintf("no project titled %q", title),
	}
}

const createGraphProjectMutation = `mutation($input: CreateProjectV2Input!) {
  createProjectV2(input: $input) {
    projectV2 { id number title url }
  }
}`

// CreateGraphProject creates a Projects v2 project owned by owner. Only
// success is reported; look the project up by title to learn its ids.
func (c *Client) CreateGraphProject(ctx context.Context, owner, title string) error {
	ownerID, err := c.OwnerNodeID(ctx, owner)
	if err != nil {
		return err
	}

	var out struct {
		CreateProjectV2 *struct {
			ProjectV2 *GraphProject `json:"projectV2"`
		} `json:"createProjectV2"`
	}
	vars := map[string]any{"input": map[string]any{"ownerId": ownerID, "title": title}}
	if err := c.graph(ctx, "create graph project", createGraphProjectMutation, vars, &out); err != nil {
		return err
	}
	// A null payload without errors means the token may not create projects.
	if out.CreateProjectV2 == nil || out.CreateProjectV2.ProjectV2 == nil {
		return &Error{
			Kind:    KindPermission,
			Model:   ModelGraph,
			Op:      "create graph project",
			Message: "createProjectV2 returned no project",
		}
	}
	return nil
}

const listGraphItemsQuery = `query($projectId: ID!, $first: Int!, $after: String) {
  node(id: $projectId) {
    ... on ProjectV2 {
      items(first: $first, after: $after) {
        nodes {
          id
          type
          content {
            ... on Issue { title body number url }
            ... on PullRequest { title body number url }
            ... on DraftIssue { title body }
          }
          fieldValues(first: 20) {
            nodes {
              ... on ProjectV2ItemFieldTextValue { text field { ... on ProjectV2FieldCommon { name } } }
              ... on ProjectV2ItemFieldNumberValue { number field { ... on ProjectV2FieldCommon { name } } }
              ... on ProjectV2ItemFieldDateValue { date field { ... on ProjectV2FieldCommon { name } } }
              ... on ProjectV2ItemFieldSingleSelectValue { name field { ... on ProjectV2FieldCommon { name } } }
              ... on ProjectV2ItemFieldIterationValue { title field { ... on ProjectV2FieldCommon { name } } }
            }
          }
        }
        pageInfo { hasNextPage endCursor }
      }
    }
  }
}`

type itemNode struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content *struct {
		Title  string `json:"title"`
		Body   string `json:"body"`
		Number int    `json:"number"`
		URL    string `json:"url"`
	} `json:"content"`
	FieldValues struct {
		Nodes []fieldValueNode `json:"nodes"`
	} `json:"fieldValues"`
}

// fieldValueNode is the union of the field value types the query selects.
// Exactly one value member is set per node.
type fieldValueNode struct {
	Text   *string      `json:"text"`
	Number *json.Number `json:"number"`
	Date   *string      `json:"date"`
	Name   *string      `json:"name"`
	Title  *string      `json:"title"`
	Field  *struct {
		Name string `json:"name"`
	} `json:"field"`
}

func (n fieldValueNode) value() (string, bool) {
	switch {
	case n.Name != nil:
		return *n.Name, true
	case n.Text != nil:
		return *n.Text, true
	case n.Title != nil:
		return *n.Title, true
	case n.Date != nil:
		return *n.Date, true
	case n.Number != nil:
		if f, err := n.Number.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return n.Number.String(), true
	}
	return "", false
}

func (n itemNode) item() *Item {
	it := &Item{ID: n.ID, Type: n.Type}
	if n.Content != nil {
		it.Title = n.Content.Title
		it.Body = n.Content.Body
		it.Number = n.Content.Number
		it.URL = n.Content.URL
	}
	for _, fv := range n.FieldValues.Nodes {
		if fv.Field == nil || fv.Field.Name == "" {
			continue
		}
		if v, ok := fv.value(); ok {
			it.Fields = append(it.Fields, FieldValue{Field: fv.Field.Name, Value: v})
		}
	}
	return it
}

// ListGraphItems returns every item of the project with the given node id.
func (c *Client) ListGraphItems(ctx context.Context, projectNodeID string) ([]*Item, error) {
	var all []*Item
	after := ""
	for {
		var out struct {
			Node *struct {
				Items *struct {
					Nodes    []itemNode `json:"nodes"`
					PageInfo pageInfo   `json:"pageInfo"`
				} `json:"items"`
			} `json:"node"`
		}
		vars := map[string]any{"projectId": projectNodeID, "first": PageSize, "after": cursor(after)}
		if err := c.graph(ctx, "list graph items", listGraphItemsQuery, vars, &out); err != nil {
			return nil, err
		}
		if out.Node == nil || out.Node.Items == nil {
			return nil, &Error{
				Kind:    KindNotFound,
				Model:   ModelGraph,
				Op:      "list graph items",
				Message: fmt.Sprintf("project %s not found", projectNodeID),
			}
		}

		for _, n := range out.Node.Items.Nodes {
			all = append(all, n.item())
		}
		page := out.Node.Items.PageInfo
		if !page.HasNextPage || page.EndCursor == "" {
			return all, nil
		}
		after = page.EndCursor
	}
}

// UpdateGraphItemField is not supported: graph projects are read-only for
// this client.
func (c *Client) UpdateGraphItemField(ctx context.Context, projectNodeID, itemID, field, value string) error {
	return fmt.Errorf("update field %q on item %s: %w", field, itemID, ErrUnsupported)
}

// AddGraphItem is not supported: graph projects are read-only for this
// client.
func (c *Client) AddGraphItem(ctx context.Context, projectNodeID, contentID string) error {
	return fmt.Errorf("add item %s to project %s: %w", contentID, projectNodeID, ErrUnsupported)
}
