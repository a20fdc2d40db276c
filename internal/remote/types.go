package remote

// Project is a remote project in either model: *RESTProject or
// *GraphProject. Callers dispatch with a type switch.
type Project interface {
	ProjectTitle() string
	model() Model
}

// RESTProject is a classic project addressed by numeric id.
type RESTProject struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Body  string `json:"body"`
	State string `json:"state"`
	URL   string `json:"html_url"`
}

func (p *RESTProject) ProjectTitle() string { return p.Name }
func (p *RESTProject) model() Model         { return ModelREST }

// GraphProject is a Projects v2 project addressed by node id and number.
type GraphProject struct {
	NodeID           string `json:"id"`
	Number           int64  `json:"number"`
	Title            string `json:"title"`
	ShortDescription string `json:"shortDescription"`
	URL              string `json:"url"`
	Closed           bool   `json:"closed"`
}

func (p *GraphProject) ProjectTitle() string { return p.Title }
func (p *GraphProject) model() Model         { return ModelGraph }

// ModelOf returns which model p belongs to.
func ModelOf(p Project) Model {
	return p.model()
}

// Column is a column of a REST project.
type Column struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Card is a card of a REST project column.
type Card struct {
	ID         int64  `json:"id"`
	Note       string `json:"note"`
	ContentURL string `json:"content_url"`
	Archived   bool   `json:"archived"`
}

// CardInput describes a card to create: either a note, or linked content
// (an issue or pull request) by id and type.
type CardInput struct {
	Note        string
	ContentID   int64
	ContentType string // "Issue" or "PullRequest"
}

// Graph item content types.
const (
	ItemIssue       = "ISSUE"
	ItemPullRequest = "PULL_REQUEST"
	ItemDraftIssue  = "DRAFT_ISSUE"
	ItemRedacted    = "REDACTED"
)

// Item is one item of a graph project.
type Item struct {
	ID     string
	Type   string
	Title  string
	Body   string
	URL    string
	Number int
	Fields []FieldValue
}

// FieldValue is a single-select or text field value set on an item.
type FieldValue struct {
	Field string
	Value string
}

// FieldValue returns the value of the named field, if set.
func (it *Item) FieldValue(field string) (string, bool) {
	for _, fv := range it.Fields {
		if fv.Field == field {
			return fv.Value, true
		}
	}
	return "", false
}

// OwnerKind is the result of owner resolution.
type OwnerKind int

const (
	OwnerUnknown OwnerKind = iota
	OwnerOrganization
	OwnerUser
)

func (k OwnerKind) String() string {
	switch k {
	case OwnerOrganization:
		return "organization"
	case OwnerUser:
		return "user"
	default:
		return "unknown"
	}
}
