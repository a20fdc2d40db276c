package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/githubtower/ghtower/internal/backup"
	"github.com/githubtower/ghtower/internal/store"
	"github.com/githubtower/ghtower/internal/ui"
)

// newBackup connects to the configured bucket or exits.
func newBackup(cmd *cobra.Command) *backup.Backup {
	client, err := backup.NewClient(cmd.Context(), cfg.S3)
	if err != nil {
		if errors.Is(err, backup.ErrNotConfigured) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "Configure the s3 section of %s/config.yaml.\n", cfg.Dir)
			os.Exit(1)
		}
		fail("cannot create S3 client", err)
	}
	return backup.New(client, cfg.S3.Bucket, cfg.S3.Prefix, newLogger("[backup] "))
}

var backupCmd = &cobra.Command{
	Use:     "backup [project...]",
	GroupID: "maint",
	Short:   "Back up local projects to an S3 bucket",
	Long: `Upload local projects to the configured S3-compatible bucket.

Each project is stored as <prefix>/<project>/project.yaml in unified form.
Without arguments every local project is uploaded. --list shows the
projects already in the bucket.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		list, _ := cmd.Flags().GetBool("list")
		folder, _ := cmd.Flags().GetString("folder")
		c := withFolder(folder, false)
		b := newBackup(cmd)

		if err := b.Check(ctx); err != nil {
			fail("bucket not reachable", err)
		}

		if list {
			names, err := b.List(ctx)
			if err != nil {
				fail("cannot list backups", err)
			}
			if len(names) == 0 {
				fmt.Printf("%s No backups in bucket %s\n", ui.RenderWarn("⚠"), cfg.S3.Bucket)
				return
			}
			var rows [][]string
			for _, name := range names {
				rows = append(rows, []string{name, b.Key(name)})
			}
			fmt.Println(ui.Table([]string{"Project", "Key"}, rows))
			return
		}

		names := args
		if len(names) == 0 {
			var err error
			if names, err = store.ListProjects(c.ProjectsDir); err != nil {
				fail("cannot list projects", err)
			}
		}

		failed := 0
		for _, name := range names {
			if err := b.Save(ctx, name, projectStore(c, name)); err != nil {
				failed++
				fmt.Printf("%s %s: %v\n", ui.RenderFail("✗"), name, err)
				continue
			}
			fmt.Printf("%s %s → s3://%s/%s\n", ui.RenderPass("✓"), name, cfg.S3.Bucket, b.Key(name))
		}
		if failed > 0 {
			os.Exit(1)
		}
	},
}

var restoreCmd = &cobra.Command{
	Use:     "restore <project>",
	GroupID: "maint",
	Short:   "Restore a project from the S3 bucket",
	Long: `Download a project from the configured S3-compatible bucket and write it
locally in unified form, replacing the local project.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		folder, _ := cmd.Flags().GetString("folder")
		yes, _ := cmd.Flags().GetBool("yes")
		c := withFolder(folder, true)

		st := projectStore(c, name)
		if st.Exists() && !ui.NewPrompter(yes).Confirm(fmt.Sprintf("Project %q exists locally. Replace it?", name)) {
			return
		}

		tree, err := newBackup(cmd).Restore(cmd.Context(), name, st)
		if err != nil {
			fail("restore failed", err)
		}
		fmt.Printf("%s Restored %s: %d columns, %d cards\n", ui.RenderPass("✓"), name, len(tree.Columns), tree.CardCount())
	},
}

func init() {
	backupCmd.Flags().Bool("list", false, "List the projects in the bucket")
	backupCmd.Flags().String("folder", "", "Folder (relative to the working directory) holding the projects")
	restoreCmd.Flags().String("folder", "", "Folder (relative to the working directory) holding the projects")
	restoreCmd.Flags().BoolP("yes", "y", false, "Replace an existing local project without asking")

	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}
