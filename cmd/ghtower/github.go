package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/githubtower/ghtower/internal/board"
	"github.com/githubtower/ghtower/internal/remote"
	"github.com/githubtower/ghtower/internal/ui"
)

var listGithubCmd = &cobra.Command{
	Use:     "list-github",
	GroupID: "sync",
	Short:   "List projects on GitHub",
	Long: `List projects on GitHub.

With an organization configured (GITHUB_ORG or --owner) its Projects v2
are listed through GraphQL. Otherwise, or when that fails, the classic
projects of the owner (default: your account) are listed.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		owner, _ := cmd.Flags().GetString("owner")
		if owner == "" {
			owner = cfg.Org
		}
		client := newRemote(cfg)

		if owner != "" && client.ResolveOwner(ctx, owner) == remote.OwnerOrganization {
			projects, err := client.ListGraphProjects(ctx, owner)
			if err == nil {
				if len(projects) == 0 {
					fmt.Printf("%s No projects found on GitHub for %s\n", ui.RenderWarn("⚠"), owner)
					return
				}
				var rows [][]string
				for _, p := range projects {
					status := "Open"
					if p.Closed {
						status = "Closed"
					}
					rows = append(rows, []string{
						strconv.FormatInt(p.Number, 10),
						p.Title,
						board.Truncate(p.ShortDescription, 50),
						status,
						p.URL,
					})
				}
				fmt.Println(ui.RenderBold(fmt.Sprintf("GitHub Projects (%s)", owner)))
				fmt.Println(ui.Table([]string{"Number", "Title", "Description", "Status", "URL"}, rows))
				return
			}
			fmt.Printf("%s Could not list Projects v2: %v\n", ui.RenderWarn("⚠"), err)
			if hint := remote.HintOf(err); hint != "" {
				fmt.Println(ui.RenderDim(hint))
			}
			fmt.Println(ui.RenderDim("Falling back to classic projects..."))
		}

		projects, err := client.ListRESTProjects(ctx, owner)
		if err != nil {
			fail("cannot list projects", err)
		}
		if len(projects) == 0 {
			fmt.Printf("%s No projects found on GitHub\n", ui.RenderWarn("⚠"))
			return
		}
		var rows [][]string
		for _, p := range projects {
			rows = append(rows, []string{
				strconv.FormatInt(p.ID, 10),
				p.Name,
				board.Truncate(p.Body, 50),
				p.State,
			})
		}
		fmt.Println(ui.RenderBold("GitHub Projects (Classic)"))
		fmt.Println(ui.Table([]string{"ID", "Name", "Body", "State"}, rows))
	},
}

var checkTokenCmd = &cobra.Command{
	Use:     "check-token",
	GroupID: "maint",
	Short:   "Check GitHub token permissions and access",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("\n%s\n\n", ui.RenderAccent("Checking GitHub token permissions..."))

		if cfg.RequireToken() != nil {
			fmt.Printf("%s No GitHub token found\n", ui.RenderFail("✗"))
			fmt.Println(ui.RenderWarn("Set GITHUB_TOKEN or GH_TOKEN"))
			os.Exit(1)
		}
		fmt.Printf("%s Token found\n\n", ui.RenderPass("✓"))

		client := newRemote(cfg)
		report := client.CheckToken(cmd.Context(), cfg.Org)

		fmt.Println(ui.RenderBold("REST API:"))
		printCheck("  ", report.REST, "Authenticated as")
		fmt.Println(ui.RenderBold("\nGraphQL API:"))
		printCheck("  ", report.Graph, "Authenticated as")
		if !report.Graph.OK {
			fmt.Println(ui.RenderWarn("  GraphQL requires the 'read:org' scope at minimum"))
		}

		if report.Org != "" {
			fmt.Println(ui.RenderBold(fmt.Sprintf("\nOrganization %s:", report.Org)))
			fmt.Print("  REST API: ")
			printCheck("", report.OrgREST, "Name")
			fmt.Print("  GraphQL API: ")
			printCheck("", report.OrgNodeID, "Node ID")
			if !report.OrgNodeID.OK {
				fmt.Println(ui.RenderWarn("  Required scopes: 'read:org' (to read), 'project' (to create projects)"))
			}
		}

		fmt.Println(ui.RenderBold("\nSummary:"))
		if report.REST.OK {
			fmt.Printf("  %s Can create user projects (REST API)\n", ui.RenderPass("✓"))
		} else {
			fmt.Printf("  %s Cannot create user projects\n", ui.RenderFail("✗"))
			fmt.Println(ui.RenderWarn("    Required scope: 'repo'"))
		}
		if report.Org != "" {
			if report.Graph.OK && report.OrgNodeID.OK {
				fmt.Printf("  %s Can create organization projects for '%s' (GraphQL API)\n", ui.RenderPass("✓"), report.Org)
			} else {
				fmt.Printf("  %s Cannot create organization projects for '%s'\n", ui.RenderFail("✗"), report.Org)
				fmt.Println(ui.RenderWarn("    Required scopes: 'read:org' and 'project', or 'write:org'"))
			}
		}

		if !report.OK() {
			os.Exit(1)
		}
	},
}

func printCheck(indent string, p remote.Check, detailLabel string) {
	if p.OK {
		fmt.Printf("%s%s Accessible\n", indent, ui.RenderPass("✓"))
		if p.Detail != "" {
			fmt.Printf("%s  %s\n", indent, ui.RenderDim(detailLabel+": "+p.Detail))
		}
		return
	}
	fmt.Printf("%s%s Not accessible\n", indent, ui.RenderFail("✗"))
	if p.Err != nil {
		fmt.Printf("%s  %s\n", indent, ui.RenderFail("Error: "+p.Err.Error()))
		if hint := remote.HintOf(p.Err); hint != "" {
			fmt.Printf("%s  %s\n", indent, ui.RenderDim(hint))
		}
	}
}

func init() {
	listGithubCmd.Flags().String("owner", "", "Organization or user to list (default: GITHUB_ORG, then your account)")

	rootCmd.AddCommand(listGithubCmd)
	rootCmd.AddCommand(checkTokenCmd)
}
