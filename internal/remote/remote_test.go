package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew_RequiresToken(t *testing.T) {
	if _, err := New("  "); !errors.Is(err, ErrNoToken) {
		t.Errorf("New() error = %v, want ErrNoToken", err)
	}
}

func TestResolveOwner(t *testing.T) {
	f := newFakeGitHub(t)
	c := f.client(t)
	ctx := context.Background()

	tests := []struct {
		owner string
		want  OwnerKind
	}{
		{owner: "", want: OwnerUser},
		{owner: "octo-org", want: OwnerOrganization},
		{owner: "octocat", want: OwnerUser},
		{owner: "ghost", want: OwnerUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.owner, func(t *testing.T) {
			if got := c.ResolveOwner(ctx, tt.owner); got != tt.want {
				t.Errorf("ResolveOwner(%q) = %v, want %v", tt.owner, got, tt.want)
			}
		})
	}

	// Cached: removing the org from the server does not change the answer.
	f.mu.Lock()
	delete(f.orgs, "octo-org")
	f.mu.Unlock()
	if got := c.ResolveOwner(ctx, "octo-org"); got != OwnerOrganization {
		t.Errorf("cached ResolveOwner() = %v, want organization", got)
	}
}

func TestOwnerNodeID_FallsBackToUser(t *testing.T) {
	f := newFakeGitHub(t)
	c := f.client(t)
	ctx := context.Background()

	id, err := c.OwnerNodeID(ctx, "octocat")
	if err != nil {
		t.Fatalf("OwnerNodeID() failed: %v", err)
	}
	if id != "U_octocat" {
		t.Errorf("OwnerNodeID() = %q, want U_octocat", id)
	}
	if f.calls("organization") != 1 || f.calls("user") != 1 {
		t.Errorf("organization=%d user=%d, want 1 each", f.calls("organization"), f.calls("user"))
	}

	// Second call is served from the cache.
	if _, err := c.OwnerNodeID(ctx, "octocat"); err != nil {
		t.Fatalf("OwnerNodeID() failed: %v", err)
	}
	if f.calls("organization") != 1 {
		t.Error("lookup was not cached")
	}

	_, err = c.OwnerNodeID(ctx, "ghost")
	if !IsNotFound(err) {
		t.Errorf("OwnerNodeID(ghost) error = %v, want not-found", err)
	}
}

func TestListRESTProjects_Pagination(t *testing.T) {
	f := newFakeGitHub(t)
	for i := 0; i < 250; i++ {
		f.addProject(fmt.Sprintf("p%03d", i))
	}
	c := f.client(t)

	got, err := c.ListRESTProjects(context.Background(), "")
	if err != nil {
		t.Fatalf("ListRESTProjects() failed: %v", err)
	}
	if len(got) != 250 {
		t.Fatalf("got %d projects, want 250", len(got))
	}
	if got[0].Name != "p000" || got[249].Name != "p249" {
		t.Errorf("unexpected order: first=%q last=%q", got[0].Name, got[249].Name)
	}
}

func TestFindRESTProject_FirstMatchWins(t *testing.T) {
	f := newFakeGitHub(t)
	first := f.addProject("roadmap")
	f.addProject("roadmap")
	c := f.client(t)
	ctx := context.Background()

	p, err := c.FindRESTProject(ctx, "octocat", "roadmap")
	if err != nil {
		t.Fatalf("FindRESTProject() failed: %v", err)
	}
	if p.ID != first.ID {
		t.Errorf("ID = %d, want first match %d", p.ID, first.ID)
	}

	_, err = c.FindRESTProject(ctx, "octocat", "Roadmap")
	if !IsNotFound(err) {
		t.Errorf("case-different lookup error = %v, want not-found", err)
	}
}

func TestRESTColumnsAndCards(t *testing.T) {
	f := newFakeGitHub(t)
	c := f.client(t)
	ctx := context.Background()

	p, err := c.CreateRESTProject(ctx, "roadmap", "Project: roadmap")
	if err != nil {
		t.Fatalf("CreateRESTProject() failed: %v", err)
	}
	got, err := c.GetRESTProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetRESTProject() failed: %v", err)
	}
	if got.Body != "Project: roadmap" {
		t.Errorf("Body = %q", got.Body)
	}

	for _, name := range []string{"To Do", "In Progress", "Done"} {
		if _, err := c.CreateColumn(ctx, p.ID, name); err != nil {
			t.Fatalf("CreateColumn(%q) failed: %v", name, err)
		}
	}
	cols, err := c.ListColumns(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListColumns() failed: %v", err)
	}
	var names []string
	for _, col := range cols {
		names = append(names, col.Name)
	}
	if diff := cmp.Diff([]string{"To Do", "In Progress", "Done"}, names); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}

	card, err := c.CreateCard(ctx, cols[0].ID, CardInput{Note: "write docs"})
	if err != nil {
		t.Fatalf("CreateCard() failed: %v", err)
	}
	if err := c.MoveCard(ctx, card.ID, cols[0].ID, "bottom"); err != nil {
		t.Fatalf("MoveCard() failed: %v", err)
	}
	if len(f.moves) != 1 || !strings.HasSuffix(f.moves[0], ":bottom") {
		t.Errorf("unexpected moves: %v", f.moves)
	}

	cards, err := c.ListCards(ctx, cols[0].ID)
	if err != nil {
		t.Fatalf("ListCards() failed: %v", err)
	}
	if len(cards) != 1 || cards[0].Note != "write docs" {
		t.Errorf("unexpected cards: %+v", cards)
	}
}

func TestCreateCard_Invalid(t *testing.T) {
	f := newFakeGitHub(t)
	c := f.client(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CardInput
	}{
		{name: "neither", in: CardInput{}},
		{name: "both", in: CardInput{Note: "n", ContentID: 5, ContentType: "Issue"}},
		{name: "content without type", in: CardInput{ContentID: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.CreateCard(ctx, 1, tt.in); !errors.Is(err, ErrInvalidCard) {
				t.Errorf("CreateCard() error = %v, want ErrInvalidCard", err)
			}
		})
	}
}

func TestListGraphItems_Pagination(t *testing.T) {
	f := newFakeGitHub(t)
	var items []map[string]any
	for i := 0; i < 250; i++ {
		items = append(items, issueItem(fmt.Sprintf("PVTI_%d", i), fmt.Sprintf("item %d", i), "Todo"))
	}
	f.items["PVT_1"] = items
	c := f.client(t)

	got, err := c.ListGraphItems(context.Background(), "PVT_1")
	if err != nil {
		t.Fatalf("ListGraphItems() failed: %v", err)
	}
	if len(got) != 250 {
		t.Fatalf("got %d items, want 250", len(got))
	}
	if n := f.calls("items"); n != 3 {
		t.Errorf("items requests = %d, want 3", n)
	}
	if got[249].ID != "PVTI_249" {
		t.Errorf("last item = %q", got[249].ID)
	}

	status, ok := got[0].FieldValue("Status")
	if !ok || status != "Todo" {
		t.Errorf("Status = %q, %v", status, ok)
	}
	if got[0].Title != "item 0" || got[0].Type != ItemIssue {
		t.Errorf("unexpected item: %+v", got[0])
	}
}

func TestListGraphItems_MissingProject(t *testing.T) {
	f := newFakeGitHub(t)
	c := f.client(t)

	_, err := c.ListGraphItems(context.Background(), "PVT_missing")
	if !IsNotFound(err) {
		t.Errorf("ListGraphItems() error = %v, want not-found", err)
	}
}

func TestCreateGraphProject_ThenFind(t *testing.T) {
	f := newFakeGitHub(t)
	c := f.client(t)
	ctx := context.Background()

	if err := c.CreateGraphProject(ctx, "octo-org", "roadmap"); err != nil {
		t.Fatalf("CreateGraphProject() failed: %v", err)
	}
	gp, err := c.FindGraphProject(ctx, "octo-org", "roadmap")
	if err != nil {
		t.Fatalf("FindGraphProject() failed: %v", err)
	}
	if gp.NodeID == "" || gp.Number == 0 {
		t.Errorf("graph project ids not filled: %+v", gp)
	}
	if len(f.projects) != 0 {
		t.Errorf("REST project created for an organization owner")
	}
}

func TestCreateGraphProject_NullPayloadIsPermission(t *testing.T) {
	f := newFakeGitHub(t)
	f.denyCreate = true
	c := f.client(t)

	err := c.CreateGraphProject(context.Background(), "octo-org", "roadmap")
	if !IsPermission(err) {
		t.Fatalf("CreateGraphProject() error = %v, want permission", err)
	}
	if hint := HintOf(err); !strings.Contains(hint, "'project' scope") {
		t.Errorf("Hint() = %q", hint)
	}
}

func TestGraphMutationsUnsupported(t *testing.T) {
	f := newFakeGitHub(t)
	c := f.client(t)
	ctx := context.Background()

	if err := c.UpdateGraphItemField(ctx, "PVT_1", "PVTI_1", "Status", "Done"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("UpdateGraphItemField() error = %v", err)
	}
	if err := c.AddGraphItem(ctx, "PVT_1", "I_1"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("AddGraphItem() error = %v", err)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"message":"Not Found"}`, want: KindNotFound},
		{name: "gone", status: http.StatusGone, body: `{"message":"Projects (classic) has been deprecated"}`, want: KindNotFound},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"message":"Bad credentials"}`, want: KindPermission},
		{name: "forbidden", status: http.StatusForbidden, body: `{"message":"Must have admin rights"}`, want: KindPermission},
		{name: "validation", status: http.StatusUnprocessableEntity, body: `{"message":"Validation Failed"}`, want: KindMalformed},
		{name: "server", status: http.StatusBadGateway, body: `oops`, want: KindTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, _ := New("t", WithAPIURL(srv.URL), WithLogger(discardLogger()))
			_, err := c.GetRESTProject(context.Background(), 1)
			var re *Error
			if !errors.As(err, &re) {
				t.Fatalf("error = %v, want *Error", err)
			}
			if re.Kind != tt.want || re.Status != tt.status || re.Model != ModelREST {
				t.Errorf("got kind=%v status=%d model=%s", re.Kind, re.Status, re.Model)
			}
			if re.Hint() == "" {
				t.Error("empty hint")
			}
		})
	}
}

func TestGraphErrorClassification(t *testing.T) {
	tests := []struct {
		typ  string
		want Kind
	}{
		{typ: "NOT_FOUND", want: KindNotFound},
		{typ: "FORBIDDEN", want: KindPermission},
		{typ: "INSUFFICIENT_SCOPES", want: KindPermission},
		{typ: "PARSE_ERROR", want: KindMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				graphErr(w, tt.typ, "boom")
			}))
			defer srv.Close()

			c, _ := New("t", WithGraphURL(srv.URL), WithLogger(discardLogger()))
			_, err := c.ListGraphItems(context.Background(), "PVT_1")
			if got := KindOf(err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v (err=%v)", got, tt.want, err)
			}
		})
	}
}

// GraphQL paths mix field names and list indexes.
func TestGraphErrorClassification_MixedPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":null,"errors":[{"type":"FORBIDDEN","path":["node","items","nodes",3,"content"],"message":"Resource not accessible"}]}`)
	}))
	defer srv.Close()

	c, _ := New("t", WithGraphURL(srv.URL), WithLogger(discardLogger()))
	_, err := c.ListGraphItems(context.Background(), "PVT_1")
	if got := KindOf(err); got != KindPermission {
		t.Errorf("KindOf() = %v, want permission (err=%v)", got, err)
	}
	if !strings.Contains(err.Error(), "Resource not accessible") {
		t.Errorf("error = %v, want the GraphQL message", err)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := New("t", WithAPIURL(url), WithLogger(discardLogger()))
	_, err := c.GetRESTProject(context.Background(), 1)
	if got := KindOf(err); got != KindTransport {
		t.Errorf("KindOf() = %v, want transport (err=%v)", got, err)
	}
}

func TestCheckToken(t *testing.T) {
	f := newFakeGitHub(t)
	c := f.client(t)

	report := c.CheckToken(context.Background(), "octo-org")
	if !report.OK() {
		t.Fatalf("CheckToken() not OK: %+v", report)
	}
	if report.REST.Detail != "octocat" || report.Graph.Detail != "octocat" {
		t.Errorf("unexpected logins: %+v %+v", report.REST, report.Graph)
	}
	if report.OrgNodeID.Detail != "O_org" {
		t.Errorf("OrgNodeID = %+v", report.OrgNodeID)
	}

	report = c.CheckToken(context.Background(), "ghost-org")
	if report.OK() || report.OrgREST.OK {
		t.Errorf("expected org checks to fail: %+v", report)
	}
}

func TestNextLink(t *testing.T) {
	header := `<https://api.github.com/x?page=2>; rel="next", <https://api.github.com/x?page=5>; rel="last"`
	if got := nextLink(header); got != "https://api.github.com/x?page=2" {
		t.Errorf("nextLink() = %q", got)
	}
	if got := nextLink(`<https://api.github.com/x?page=1>; rel="prev"`); got != "" {
		t.Errorf("nextLink() = %q, want empty", got)
	}
}
