package remote

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// fakeGitHub is an in-memory GitHub serving the REST and GraphQL endpoints
// the client uses.
type fakeGitHub struct {
	mu sync.Mutex

	viewer string
	orgs   map[string]string // login -> node id
	users  map[string]string // login -> node id

	projects []*RESTProject
	columns  map[int64][]*Column
	cards    map[int64][]*Card
	moves    []string
	nextID   int64

	graphProjects map[string][]*GraphProject // owner node id -> projects
	items         map[string][]map[string]any
	graphCalls    map[string]int
	denyCreate    bool

	server *httptest.Server
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{
		viewer:        "octocat",
		orgs:          map[string]string{"octo-org": "O_org"},
		users:         map[string]string{"octocat": "U_octocat"},
		columns:       make(map[int64][]*Column),
		cards:         make(map[int64][]*Card),
		nextID:        1000,
		graphProjects: make(map[string][]*GraphProject),
		items:         make(map[string][]map[string]any),
		graphCalls:    make(map[string]int),
	}

	r := mux.NewRouter()
	r.HandleFunc("/user", f.handleViewer).Methods(http.MethodGet)
	r.HandleFunc("/orgs/{login}", f.handleOrg).Methods(http.MethodGet)
	r.HandleFunc("/users/{login}", f.handleUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{login}/projects", f.handleListProjects).Methods(http.MethodGet)
	r.HandleFunc("/orgs/{login}/projects", f.handleListProjects).Methods(http.MethodGet)
	r.HandleFunc("/user/projects", f.handleCreateProject).Methods(http.MethodPost)
	r.HandleFunc("/projects/{id:[0-9]+}", f.handleGetProject).Methods(http.MethodGet)
	r.HandleFunc("/projects/{id:[0-9]+}/columns", f.handleListColumns).Methods(http.MethodGet)
	r.HandleFunc("/projects/{id:[0-9]+}/columns", f.handleCreateColumn).Methods(http.MethodPost)
	r.HandleFunc("/projects/columns/{id:[0-9]+}/cards", f.handleListCards).Methods(http.MethodGet)
	r.HandleFunc("/projects/columns/{id:[0-9]+}/cards", f.handleCreateCard).Methods(http.MethodPost)
	r.HandleFunc("/projects/columns/cards/{id:[0-9]+}/moves", f.handleMoveCard).Methods(http.MethodPost)
	r.HandleFunc("/graphql", f.handleGraph).Methods(http.MethodPost)

	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

// client returns a Client pointed at the fake server.
func (f *fakeGitHub) client(t *testing.T) *Client {
	t.Helper()
	c, err := New("test-token",
		WithAPIURL(f.server.URL),
		WithGraphURL(f.server.URL+"/graphql"),
		WithLogger(discardLogger()),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return c
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// calls returns how many GraphQL requests of the given kind were served.
func (f *fakeGitHub) calls(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.graphCalls[kind]
}

func (f *fakeGitHub) addProject(name string) *RESTProject {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p := &RESTProject{ID: f.nextID, Name: name, State: "open"}
	f.projects = append(f.projects, p)
	return p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

// paginate serves a page of items and sets the Link header when more remain.
func paginate[T any](w http.ResponseWriter, r *http.Request, all []T) {
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage <= 0 {
		perPage = 30
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}

	start := (page - 1) * perPage
	if start > len(all) {
		start = len(all)
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}

	if end < len(all) {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(page+1))
		next := fmt.Sprintf("http://%s%s?%s", r.Host, r.URL.Path, q.Encode())
		w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next", <http://%s/last>; rel="last"`, next, r.Host))
	}
	writeJSON(w, http.StatusOK, all[start:end])
}

func (f *fakeGitHub) handleViewer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"login": f.viewer, "type": "User"})
}

func (f *fakeGitHub) handleOrg(w http.ResponseWriter, r *http.Request) {
	login := mux.Vars(r)["login"]
	f.mu.Lock()
	_, ok := f.orgs[login]
	f.mu.Unlock()
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"login": login, "name": "Octo Org", "type": "Organization"})
}

func (f *fakeGitHub) handleUser(w http.ResponseWriter, r *http.Request) {
	login := mux.Vars(r)["login"]
	f.mu.Lock()
	_, ok := f.users[login]
	f.mu.Unlock()
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"login": login, "type": "User"})
}

func (f *fakeGitHub) handleListProjects(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	all := append([]*RESTProject(nil), f.projects...)
	f.mu.Unlock()
	paginate(w, r, all)
}

func (f *fakeGitHub) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Validation Failed"})
		return
	}
	p := f.addProject(in.Name)
	p.Body = in.Body
	writeJSON(w, http.StatusCreated, p)
}

func (f *fakeGitHub) handleGetProject(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p.ID == pathID(r) {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	notFound(w)
}

func (f *fakeGitHub) handleListColumns(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	all := append([]*Column(nil), f.columns[pathID(r)]...)
	f.mu.Unlock()
	paginate(w, r, all)
}

func (f *fakeGitHub) handleCreateColumn(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	col := &Column{ID: f.nextID, Name: in.Name}
	f.columns[pathID(r)] = append(f.columns[pathID(r)], col)
	writeJSON(w, http.StatusCreated, col)
}

func (f *fakeGitHub) handleListCards(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	all := append([]*Card(nil), f.cards[pathID(r)]...)
	f.mu.Unlock()
	paginate(w, r, all)
}

func (f *fakeGitHub) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var in map[string]any
	_ = json.NewDecoder(r.Body).Decode(&in)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	card := &Card{ID: f.nextID}
	if note, ok := in["note"].(string); ok {
		card.Note = note
	} else {
		card.ContentURL = fmt.Sprintf("https://api.github.com/issues/%v", in["content_id"])
	}
	f.cards[pathID(r)] = append(f.cards[pathID(r)], card)
	writeJSON(w, http.StatusCreated, card)
}

func (f *fakeGitHub) handleMoveCard(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Position string `json:"position"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)

	f.mu.Lock()
	f.moves = append(f.moves, fmt.Sprintf("%d:%s", pathID(r), in.Position))
	f.mu.Unlock()
	w.WriteHeader(http.StatusCreated)
}

func graphErr(w http.ResponseWriter, typ, msg string) {
	writeJSON(w, http.StatusOK, map[string]any{
		"data":   nil,
		"errors": []map[string]any{{"type": typ, "message": msg}},
	})
}

// graphPage slices all by the first/after variables; the cursor is the
// start index encoded as a string.
func graphPage[T any](vars map[string]any, all []T) ([]T, map[string]any) {
	first := PageSize
	if v, ok := vars["first"].(float64); ok {
		first = int(v)
	}
	start := 0
	if after, ok := vars["after"].(string); ok {
		start, _ = strconv.Atoi(after)
	}
	if start > len(all) {
		start = len(all)
	}
	end := start + first
	if end > len(all) {
		end = len(all)
	}
	info := map[string]any{"hasNextPage": end < len(all), "endCursor": strconv.Itoa(end)}
	return all[start:end], info
}

func (f *fakeGitHub) handleGraph(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	login, _ := req.Variables["login"].(string)

	f.mu.Lock()
	defer f.mu.Unlock()

	switch q := req.Query; {
	case strings.Contains(q, "organization(login"):
		f.graphCalls["organization"]++
		id, ok := f.orgs[login]
		if !ok {
			graphErr(w, "NOT_FOUND", fmt.Sprintf("Could not resolve to an Organization with the login of '%s'.", login))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"organization": map[string]any{"id": id}}})

	case strings.Contains(q, "user(login"):
		f.graphCalls["user"]++
		id, ok := f.users[login]
		if !ok {
			graphErr(w, "NOT_FOUND", fmt.Sprintf("Could not resolve to a User with the login of '%s'.", login))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"user": map[string]any{"id": id}}})

	case strings.Contains(q, "createProjectV2"):
		f.graphCalls["create"]++
		if f.denyCreate {
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"createProjectV2": nil}})
			return
		}
		input, _ := req.Variables["input"].(map[string]any)
		ownerID, _ := input["ownerId"].(string)
		title, _ := input["title"].(string)
		p := &GraphProject{
			NodeID: fmt.Sprintf("PVT_%d", len(f.graphProjects[ownerID])+1),
			Number: int64(len(f.graphProjects[ownerID]) + 1),
			Title:  title,
		}
		f.graphProjects[ownerID] = append(f.graphProjects[ownerID], p)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"createProjectV2": map[string]any{"projectV2": p}}})

	case strings.Contains(q, "projectsV2("):
		f.graphCalls["projects"]++
		ownerID, _ := req.Variables["ownerId"].(string)
		nodes, info := graphPage(req.Variables, f.graphProjects[ownerID])
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"node": map[string]any{"projectsV2": map[string]any{"nodes": nodes, "pageInfo": info}},
		}})

	case strings.Contains(q, "items("):
		f.graphCalls["items"]++
		projectID, _ := req.Variables["projectId"].(string)
		all, ok := f.items[projectID]
		if !ok {
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"node": nil}})
			return
		}
		nodes, info := graphPage(req.Variables, all)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"node": map[string]any{"items": map[string]any{"nodes": nodes, "pageInfo": info}},
		}})

	case strings.Contains(q, "viewer"):
		f.graphCalls["viewer"]++
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"viewer": map[string]any{"id": f.users[f.viewer], "login": f.viewer},
		}})

	default:
		graphErr(w, "PARSE_ERROR", "unknown query")
	}
}

// issueItem builds an item node as the GraphQL API returns it.
func issueItem(id, title, status string) map[string]any {
	item := map[string]any{
		"id":   id,
		"type": ItemIssue,
		"content": map[string]any{
			"title":  title,
			"body":   "",
			"number": 1,
			"url":    "https://github.com/octo-org/repo/issues/1",
		},
	}
	var values []map[string]any
	values = append(values, map[string]any{"text": title, "field": map[string]any{"name": "Title"}})
	if status != "" {
		values = append(values, map[string]any{"name": status, "field": map[string]any{"name": "Status"}})
	}
	values = append(values, map[string]any{}) // unsupported field value type
	item["fieldValues"] = map[string]any{"nodes": values}
	return item
}
