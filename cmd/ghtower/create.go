package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/githubtower/ghtower/internal/board"
	"github.com/githubtower/ghtower/internal/syncer"
	"github.com/githubtower/ghtower/internal/templates"
	"github.com/githubtower/ghtower/internal/ui"
)

var createCmd = &cobra.Command{
	Use:     "create <project>",
	GroupID: "projects",
	Short:   "Create a new local project",
	Long: `Create a new project locally and optionally on GitHub.

Without a template the project gets To Do, In Progress and Done columns and
one example card. With --template a template is chosen interactively;
--template-name picks one by key (see 'ghtower list-templates').

After the files are written you are asked whether to create the project on
GitHub right away. That runs the same push as 'ghtower sync <project>'.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		projectName := args[0]
		name, _ := cmd.Flags().GetString("name")
		body, _ := cmd.Flags().GetString("body")
		owner, _ := cmd.Flags().GetString("owner")
		pickTemplate, _ := cmd.Flags().GetBool("template")
		templateName, _ := cmd.Flags().GetString("template-name")
		folder, _ := cmd.Flags().GetString("folder")
		yes, _ := cmd.Flags().GetBool("yes")

		c := withFolder(folder, true)
		prompter := ui.NewPrompter(yes)

		if _, err := c.EnsureProjectDir(projectName); err != nil {
			fail("cannot create project directory", err)
		}
		st := projectStore(c, projectName)
		if _, ok := st.LoadProject(); ok {
			if !prompter.Confirm(fmt.Sprintf("Project %q already exists. Overwrite?", projectName)) {
				return
			}
		}

		if name == "" {
			name = projectName
		}

		key := templateName
		if pickTemplate && key == "" {
			selected, err := prompter.SelectTemplate()
			if err != nil {
				fmt.Println(ui.RenderWarn("Cancelled project creation"))
				return
			}
			key = selected
		}

		var (
			p       *board.Project
			columns []board.Column
			cards   []board.Card
			err     error
		)
		if key != "" {
			p, columns, cards, err = templates.Apply(key, name, body)
			if err != nil {
				fail("cannot apply template", err)
			}
		} else {
			if body == "" {
				body = "Project description"
			}
			p, columns, _, err = templates.Apply(templates.DefaultKey, name, body)
			if err != nil {
				fail("cannot create project", err)
			}
			cards = []board.Card{{Column: "To Do", Note: "Example card", Position: board.DefaultPosition}}
		}
		p.Owner = owner

		if err := st.SaveProject(p); err != nil {
			fail("cannot save project", err)
		}
		if err := st.SaveColumns(columns); err != nil {
			fail("cannot save columns", err)
		}
		if err := st.SaveCards(cards); err != nil {
			fail("cannot save cards", err)
		}

		if key != "" {
			fmt.Printf("%s Created project with template '%s' in: %s\n", ui.RenderPass("✓"), key, st.Dir())
		} else {
			fmt.Printf("%s Created project files in: %s\n", ui.RenderPass("✓"), st.Dir())
		}

		if !prompter.Confirm("Create project on GitHub now?") {
			return
		}

		target := p.Owner
		if target == "" {
			target = c.Org
		}
		fmt.Printf("\n%s This will create a new project on GitHub\n", ui.RenderWarn("⚠"))
		fmt.Printf("  Project name: %s\n", p.Name)
		fmt.Printf("  Owner: %s\n", orNone(target))
		if p.Body != "" {
			fmt.Printf("  Description: %s\n", board.Truncate(p.Body, 100))
		}
		fmt.Println()

		client := newRemote(c)
		s := newSyncer(c, client, yes)
		res, err := runSync(cmd.Context(), s, projectName, syncer.DirectionPush, 0)
		if err != nil {
			fail("cannot create project on GitHub", err)
		}
		ui.PrintResult(os.Stdout, res)
	},
}

func init() {
	createCmd.Flags().String("name", "", "Project name on GitHub (defaults to the project argument)")
	createCmd.Flags().String("body", "", "Project description")
	createCmd.Flags().String("owner", "", "GitHub owner (organization or user)")
	createCmd.Flags().Bool("template", false, "Select a project template interactively")
	createCmd.Flags().String("template-name", "", "Use a template by key (kanban, scrum, bug-tracking, ...)")
	createCmd.Flags().String("folder", "", "Folder (relative to the working directory) to store the project in")
	createCmd.Flags().BoolP("yes", "y", false, "Answer yes to every question")

	rootCmd.AddCommand(createCmd)
}
