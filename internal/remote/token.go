package remote

import (
	"context"
	"net/http"
	"net/url"
)

// Check is the outcome of one access check.
type Check struct {
	OK     bool
	Detail string // login, organization name or node id when OK
	Err    error
}

// TokenReport summarizes what the configured token can reach.
type TokenReport struct {
	REST  Check
	Graph Check

	// Org fields are only filled when an organization was given.
	Org       string
	OrgREST   Check
	OrgNodeID Check
}

const viewerLoginQuery = `query { viewer { login } }`

// CheckToken tries REST and GraphQL access, and organization access when
// org is non-empty. Failed checks are recorded in the report, never
// returned.
func (c *Client) CheckToken(ctx context.Context, org string) *TokenReport {
	report := &TokenReport{Org: org}

	if login, err := c.Viewer(ctx); err != nil {
		report.REST = Check{Err: err}
	} else {
		report.REST = Check{OK: true, Detail: login}
	}

	var out struct {
		Viewer struct {
			Login string `json:"login"`
		} `json:"viewer"`
	}
	if err := c.graph(ctx, "get viewer", viewerLoginQuery, nil, &out); err != nil {
		report.Graph = Check{Err: err}
	} else {
		report.Graph = Check{OK: true, Detail: out.Viewer.Login}
	}

	if org == "" {
		return report
	}

	var acct struct {
		Login string `json:"login"`
		Name  string `json:"name"`
	}
	if _, err := c.rest(ctx, "get organization", http.MethodGet, "/orgs/"+url.PathEscape(org), nil, &acct); err != nil {
		report.OrgREST = Check{Err: err}
	} else {
		name := acct.Name
		if name == "" {
			name = acct.Login
		}
		report.OrgREST = Check{OK: true, Detail: name}
	}

	if id, err := c.OwnerNodeID(ctx, org); err != nil {
		report.OrgNodeID = Check{Err: err}
	} else {
		report.OrgNodeID = Check{OK: true, Detail: id}
	}
	return report
}

// OK reports whether every check that ran succeeded.
func (r *TokenReport) OK() bool {
	if !r.REST.OK || !r.Graph.OK {
		return false
	}
	if r.Org != "" && (!r.OrgREST.OK || !r.OrgNodeID.OK) {
		return false
	}
	return true
}
