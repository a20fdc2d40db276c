package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/githubtower/ghtower/internal/syncer"
)

// Sink renders syncer events as status lines on w.
func Sink(w io.Writer) syncer.Sink {
	return syncer.SinkFunc(func(ev syncer.Event) {
		fmt.Fprintf(w, "%s %s\n", marker(ev.Level), ev.Message)
	})
}

func marker(level syncer.Level) string {
	switch level {
	case syncer.LevelSuccess:
		return RenderPass("✓")
	case syncer.LevelWarn:
		return RenderWarn("⚠")
	default:
		return RenderAccent("→")
	}
}

// PrintResult writes a summary of a sync run.
func PrintResult(w io.Writer, res *syncer.Result) {
	if res == nil {
		return
	}
	if res.Cancelled {
		fmt.Fprintf(w, "\n%s Sync of %q cancelled\n", RenderWarn("⚠"), res.Project)
		return
	}

	fmt.Fprintf(w, "\n%s Sync of %q complete (%s, %s model)\n", RenderPass("✓"), res.Project, res.Direction, res.Model)
	if res.RemoteID != 0 {
		fmt.Fprintf(w, "   GitHub ID: %d\n", res.RemoteID)
	}
	if res.NodeID != "" {
		fmt.Fprintf(w, "   Node ID: %s\n", res.NodeID)
	}
	if res.MetadataOnly {
		fmt.Fprintf(w, "   %s\n", RenderDim("metadata only, columns and cards were not synced"))
	} else {
		fmt.Fprintf(w, "   Columns created: %d\n", res.ColumnsCreated)
		fmt.Fprintf(w, "   Cards created: %d\n", res.CardsCreated)
		if res.CardsSkipped > 0 {
			fmt.Fprintf(w, "   Cards skipped: %d\n", res.CardsSkipped)
		}
	}
	if len(res.Warnings) > 0 {
		fmt.Fprintf(w, "   %s %s\n", RenderWarn("Warnings:"), strings.Join(res.Warnings, "; "))
	}
}
