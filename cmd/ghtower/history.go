package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/githubtower/ghtower/internal/journal"
	"github.com/githubtower/ghtower/internal/timeparse"
	"github.com/githubtower/ghtower/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:     "history [project]",
	GroupID: "maint",
	Short:   "Show recent sync runs",
	Long: `Show the sync runs recorded in the journal (~/.githubtower/journal.db),
newest first. Without a project every project is listed.

--since bounds the listing: a date (2026-03-01), an RFC 3339 time, a
duration such as 36h, or a phrase such as "2 days ago" or "yesterday".

Use --prune N to keep only the newest N runs of each project.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")
		prune, _ := cmd.Flags().GetInt("prune")
		sinceText, _ := cmd.Flags().GetString("since")

		project := ""
		if len(args) == 1 {
			project = args[0]
		}

		db, err := journal.Open(cfg.Journal)
		if err != nil {
			fail("cannot open journal", err)
		}
		defer db.Close()

		if cmd.Flags().Changed("prune") {
			removed, err := db.Prune(ctx, prune)
			if err != nil {
				fail("cannot prune journal", err)
			}
			fmt.Printf("%s Removed %d run(s)\n", ui.RenderPass("✓"), removed)
			return
		}

		filter := journal.Filter{Project: project, Limit: limit}
		if sinceText != "" {
			since, err := timeparse.Since(sinceText, time.Now())
			if err != nil {
				fail("invalid --since", err)
			}
			filter.Since = since
		}

		runs, err := db.Query(ctx, filter)
		if err != nil {
			fail("cannot read journal", err)
		}
		if len(runs) == 0 {
			fmt.Printf("%s No sync runs recorded\n", ui.RenderWarn("⚠"))
			return
		}

		var rows [][]string
		for _, run := range runs {
			rows = append(rows, []string{
				run.StartedAt.Local().Format("2006-01-02 15:04:05"),
				run.Project,
				orNone(run.Direction),
				orNone(run.Model),
				strconv.Itoa(run.ColumnsCreated),
				strconv.Itoa(run.CardsCreated),
				strconv.Itoa(run.CardsSkipped),
				run.Duration().Round(time.Millisecond).String(),
				runStatus(run),
			})
		}
		fmt.Println(ui.Table(
			[]string{"Started", "Project", "Direction", "Model", "Columns", "Cards", "Skipped", "Took", "Status"},
			rows,
		))
	},
}

func runStatus(run *journal.Run) string {
	switch {
	case !run.OK():
		return ui.RenderFail("failed: " + run.Error)
	case run.Cancelled:
		return ui.RenderWarn("cancelled")
	case run.MetadataOnly:
		return ui.RenderDim("metadata only")
	case len(run.Warnings) > 0:
		return ui.RenderWarn(fmt.Sprintf("ok, %d warning(s)", len(run.Warnings)))
	default:
		return ui.RenderPass("ok")
	}
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of runs to show (0 for all)")
	historyCmd.Flags().String("since", "", "Only show runs started after this time (e.g. \"2 days ago\", 2026-03-01, 36h)")
	historyCmd.Flags().Int("prune", 0, "Keep only the newest N runs of each project")

	rootCmd.AddCommand(historyCmd)
}
