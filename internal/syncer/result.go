package syncer

import (
	"fmt"

	"github.com/githubtower/ghtower/internal/remote"
)

// Result summarizes one sync run.
type Result struct {
	Project   string
	Direction Direction
	Model     remote.Model

	// Remote identity after the run.
	RemoteID int64
	NodeID   string

	// Objects created on the destination side: remote columns and cards
	// for a push, local columns and cards for a pull.
	ColumnsCreated int
	CardsCreated   int
	CardsSkipped   int

	// Cancelled is set when the operator declined a confirmation. A
	// cancelled run is not an error.
	Cancelled bool

	// MetadataOnly is set when the run stopped after recording project
	// ids because the project lives in the graph model.
	MetadataOnly bool

	Warnings []string
}

func (r *Result) warn(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	return msg
}

// Level is the severity of an Event.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarn:
		return "warn"
	default:
		return "info"
	}
}

// Event is a progress message emitted during a run.
type Event struct {
	Level   Level
	Message string
}

// Sink receives progress events. The CLI renders them; tests collect them.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})
