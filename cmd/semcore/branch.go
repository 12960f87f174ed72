package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"semcore/internal/model"
	"semcore/internal/query"
	"semcore/internal/version"
)

var (
	commitMigrationID string
	commitBranch      string
	commitAuthor      string
	commitMessage     string
	commitVersions    []string

	branchMigrationID string

	diffMigrationID string
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Group a set of already-recorded block versions into a semantic commit",
	Long: `Each --version is the id of a BlockVersion created by an earlier
recommit (e.g. via "semcore watch"); its parent version becomes the
change's before-state automatically.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(commitVersions) == 0 {
			return fmt.Errorf("at least one --version is required")
		}
		changes := make([]model.SemanticChange, 0, len(commitVersions))
		for _, vid := range commitVersions {
			v, err := st.GetVersion(vid)
			if err != nil {
				return fmt.Errorf("version %s: %w", vid, err)
			}
			changes = append(changes, model.SemanticChange{
				ID:            version.NewChangeID(),
				BlockID:       v.BlockID,
				BeforeVersion: v.ParentVersionID,
				AfterVersion:  v.ID,
			})
		}

		c, err := version.CreateCommit(st, commitMigrationID, commitBranch, commitAuthor, commitMessage, changes)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", c.Hash)
		return nil
	},
}

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "List or show semantic branches",
}

var branchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List branches in a migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		branches, err := st.ListBranches(branchMigrationID)
		if err != nil {
			return err
		}
		for _, b := range branches {
			fmt.Printf("%s\t%s\n", b.Name, b.HeadCommitHash)
		}
		return nil
	},
}

var branchShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show one branch's head commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := st.GetBranch(branchMigrationID, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("head=%s base=%s\n", b.HeadCommitHash, b.BaseCommitHash)
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff [version-a] [version-b]",
	Short: "Show the classified semantic diff between two recorded block versions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := query.New(st, diffMigrationID)
		if err != nil {
			return err
		}
		result, err := eng.SemanticDiff(args[0], args[1])
		if err != nil {
			return err
		}
		if result.Identical {
			fmt.Println("identical")
			return nil
		}
		fmt.Printf("breaking=%v changes=%v\n", result.BreakingChange, result.ChangeTypes)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [block-id]",
	Short: "List every recorded version of a block, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		versions, err := st.ListVersions(args[0])
		if err != nil {
			return err
		}
		for _, v := range versions {
			fmt.Printf("v%d\t%s\tbreaking=%v\t%v\n", v.VersionNumber, v.ID, v.BreakingChange, v.ChangeTypes)
		}
		return nil
	},
}

func init() {
	commitCmd.Flags().StringVar(&commitMigrationID, "migration", "", "migration id (required)")
	commitCmd.Flags().StringVar(&commitBranch, "branch", "main", "branch to fast-forward")
	commitCmd.Flags().StringVar(&commitAuthor, "author", "", "commit author")
	commitCmd.Flags().StringVar(&commitMessage, "message", "", "commit message")
	commitCmd.Flags().StringArrayVar(&commitVersions, "version", nil, "a changed block's new BlockVersion id (repeatable)")
	commitCmd.MarkFlagRequired("migration")

	branchCmd.PersistentFlags().StringVar(&branchMigrationID, "migration", "", "migration id (required)")
	branchCmd.MarkPersistentFlagRequired("migration")
	branchCmd.AddCommand(branchListCmd, branchShowCmd)

	diffCmd.Flags().StringVar(&diffMigrationID, "migration", "", "migration id (required)")
	diffCmd.MarkFlagRequired("migration")
}
