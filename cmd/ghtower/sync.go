package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/githubtower/ghtower/internal/syncer"
	"github.com/githubtower/ghtower/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync <project>",
	GroupID: "sync",
	Short:   "Sync a project between local YAML and GitHub",
	Long: `Sync a project between local YAML files and GitHub.

Directions:
  to-github    local → GitHub: creates the project if missing, then every
               missing column and every card with a note
  from-github  GitHub → local: overwrites the local project
  auto         (default) to-github when the project exists locally,
               from-github when it only exists on GitHub

Nothing on GitHub is ever updated or deleted. Pushing the same cards twice
creates them twice; columns are matched by name and never duplicated.

Every remote creation asks for confirmation unless --yes is given. Without
a terminal, questions are answered no.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		githubID, _ := cmd.Flags().GetInt64("github-id")
		directionFlag, _ := cmd.Flags().GetString("direction")
		folder, _ := cmd.Flags().GetString("folder")
		yes, _ := cmd.Flags().GetBool("yes")

		direction, err := syncer.ParseDirection(directionFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		c := withFolder(folder, true)
		client := newRemote(c)
		s := newSyncer(c, client, yes)

		res, err := runSync(cmd.Context(), s, name, direction, githubID)
		if err != nil {
			syncFailureHelp(name, err)
			fail("sync failed", err)
		}
		ui.PrintResult(os.Stdout, res)
	},
}

func init() {
	syncCmd.Flags().Int64("github-id", 0, "GitHub project ID (for from-github)")
	syncCmd.Flags().String("direction", string(syncer.DirectionAuto), "Sync direction: to-github, from-github or auto")
	syncCmd.Flags().String("folder", "", "Folder (relative to the working directory) holding the projects")
	syncCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompts")

	rootCmd.AddCommand(syncCmd)
}
