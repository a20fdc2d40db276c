package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/githubtower/ghtower/internal/board"
	"github.com/githubtower/ghtower/internal/remote"
	"github.com/githubtower/ghtower/internal/store"
	"github.com/githubtower/ghtower/internal/ui"
)

var listProjectsCmd = &cobra.Command{
	Use:     "list-projects",
	GroupID: "projects",
	Short:   "List local projects",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		folder, _ := cmd.Flags().GetString("folder")
		c := withFolder(folder, false)

		names, err := store.ListProjects(c.ProjectsDir)
		if err != nil {
			fail("cannot list projects", err)
		}
		if len(names) == 0 {
			fmt.Printf("%s No projects found locally\n", ui.RenderWarn("⚠"))
			fmt.Printf("   Projects directory: %s\n", c.ProjectsDir)
			fmt.Println("   Create a project first with: ghtower create <project> --template")
			return
		}

		var rows [][]string
		for _, name := range names {
			st := projectStore(c, name)
			p, ok := st.LoadProject()
			if !ok {
				continue
			}
			id, status := "Not synced", "Local only"
			if p.Synced() {
				id, status = remoteIDLabel(p), "Synced"
			}
			rows = append(rows, []string{p.Name, st.Dir(), id, status})
		}

		fmt.Println(ui.RenderBold("Local Projects"))
		fmt.Println(ui.Table([]string{"Name", "Directory", "GitHub ID", "Status"}, rows))
	},
}

var showCmd = &cobra.Command{
	Use:     "show <project>",
	GroupID: "projects",
	Short:   "Show project details",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		folder, _ := cmd.Flags().GetString("folder")
		c := withFolder(folder, false)

		st := projectStore(c, name)
		if !st.Exists() {
			fmt.Fprintf(os.Stderr, "Error: project not found: %s\n", name)
			os.Exit(1)
		}
		tree, ok := st.LoadTree()
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: project %s has no readable project.yaml\n", name)
			os.Exit(1)
		}
		p := tree.Project()

		fmt.Printf("\n%s\n", ui.RenderAccent("Project: "+name))
		fmt.Printf("  Name: %s\n", p.Name)
		fmt.Printf("  Description: %s\n", orNone(p.Body))
		if p.Owner != "" {
			fmt.Printf("  Owner: %s\n", p.Owner)
		}
		if p.Synced() {
			fmt.Printf("  GitHub ID: %s\n", remoteIDLabel(&p))
		} else {
			fmt.Println("  GitHub ID: Not synced")
		}
		fmt.Printf("  Directory: %s\n\n", st.Dir())

		if len(tree.Columns) > 0 {
			fmt.Println(ui.RenderBold("Columns:"))
			for _, col := range tree.Columns {
				fmt.Printf("  - %s (position: %d, cards: %d)\n", col.Name, col.Position, len(col.Cards))
			}
		}

		cards := tree.FlatCards()
		if len(cards) > 0 {
			fmt.Printf("\n%s\n", ui.RenderBold(fmt.Sprintf("Cards: %d", len(cards))))
			for _, card := range firstCards(cards, 10) {
				fmt.Printf("  - %s %s\n", card.Label(), ui.RenderDim("("+card.Column+")"))
			}
			if len(cards) > 10 {
				fmt.Printf("  ... and %d more\n", len(cards)-10)
			}
		}
		fmt.Println()
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <project>",
	GroupID: "projects",
	Short:   "Delete a local project",
	Long: `Delete a project's local files.

GitHub projects are never deleted. With --github the linked GitHub project
is looked up and its details are printed so it can be removed by hand.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		folder, _ := cmd.Flags().GetString("folder")
		github, _ := cmd.Flags().GetBool("github")
		yes, _ := cmd.Flags().GetBool("yes")
		c := withFolder(folder, false)

		st := projectStore(c, name)
		if !st.Exists() {
			fmt.Fprintf(os.Stderr, "Error: project not found: %s\n", name)
			os.Exit(1)
		}
		if !ui.NewPrompter(yes).Confirm(fmt.Sprintf("Are you sure you want to delete project %q?", name)) {
			return
		}

		if github {
			fmt.Printf("\n%s GitHub projects cannot be deleted by ghtower.\n", ui.RenderWarn("⚠"))
			fmt.Println("   Delete the project manually on GitHub if needed.")
			if p, ok := st.LoadProject(); ok && p.Synced() {
				printLinkedProject(cmd.Context(), c.Org, p)
			}
		}

		if err := st.Remove(); err != nil {
			fail("cannot delete project", err)
		}
		fmt.Printf("%s Deleted local project: %s\n", ui.RenderPass("✓"), name)
	},
}

// printLinkedProject prints the GitHub project p is linked to. Lookup
// failures are printed, not fatal.
func printLinkedProject(ctx context.Context, org string, p *board.Project) {
	client := newRemote(cfg)

	var rp remote.Project
	var err error
	if p.Graph {
		owner := p.Owner
		if owner == "" {
			owner = org
		}
		rp, err = client.FindGraphProject(ctx, owner, p.Name)
	} else {
		rp, err = client.GetRESTProject(ctx, p.RemoteID)
	}
	if err != nil {
		fmt.Println(ui.RenderDim(fmt.Sprintf("Could not fetch project details: %v", err)))
		return
	}

	fmt.Printf("\n%s\n", ui.RenderWarn("Project on GitHub:"))
	switch rp := rp.(type) {
	case *remote.RESTProject:
		fmt.Printf("  Name: %s\n  ID: %d\n  URL: %s\n", rp.Name, rp.ID, orNone(rp.URL))
	case *remote.GraphProject:
		fmt.Printf("  Title: %s\n  Number: %d\n  URL: %s\n", rp.Title, rp.Number, orNone(rp.URL))
	}
}

// remoteIDLabel formats the remote identity of a synced project.
func remoteIDLabel(p *board.Project) string {
	if p.Graph {
		return fmt.Sprintf("#%d (v2)", p.RemoteID)
	}
	return strconv.FormatInt(p.RemoteID, 10)
}

func firstCards(cards []board.Card, n int) []board.Card {
	if len(cards) > n {
		return cards[:n]
	}
	return cards
}

func init() {
	for _, cmd := range []*cobra.Command{listProjectsCmd, showCmd, deleteCmd} {
		cmd.Flags().String("folder", "", "Folder (relative to the working directory) holding the projects")
	}
	deleteCmd.Flags().Bool("github", false, "Also show the linked GitHub project")
	deleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	rootCmd.AddCommand(listProjectsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
}
