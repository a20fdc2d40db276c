package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/githubtower/ghtower/internal/templates"
	"github.com/githubtower/ghtower/internal/ui"
)

var listTemplatesCmd = &cobra.Command{
	Use:     "list-templates",
	GroupID: "projects",
	Short:   "List project templates",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("\n%s\n\n", ui.RenderAccent("Available project templates:"))
		for i, t := range templates.All() {
			fmt.Printf("  %s %s\n", ui.RenderAccent(fmt.Sprintf("%d.", i+1)), ui.RenderBold(t.Name))
			fmt.Printf("     %s\n", ui.RenderDim(t.Description))
			if len(t.Columns) > 0 {
				fmt.Printf("     %s\n", ui.RenderDim("Columns: "+strings.Join(t.Columns, " → ")))
			}
			fmt.Printf("     %s\n\n", ui.RenderDim("Key: "+t.Key))
		}
	},
}

func init() {
	rootCmd.AddCommand(listTemplatesCmd)
}
