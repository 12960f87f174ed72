package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"semcore/internal/query"
)

var (
	queryMigrationID string
	searchLanguage   string
	searchBlockType  string
	searchLimit      int
	depsMaxDepth     int
)

func openEngine() (*query.Engine, error) {
	if queryMigrationID == "" {
		return nil, fmt.Errorf("--migration is required")
	}
	return query.New(st, queryMigrationID)
}

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Rank blocks in a migration by relevance to a search term",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		hits, truncated, err := eng.Search(query.SearchRequest{
			Term:      args[0],
			Language:  searchLanguage,
			BlockType: searchBlockType,
			Limit:     searchLimit,
		})
		if err != nil {
			return err
		}
		for _, h := range hits {
			name := "<anonymous>"
			if h.Block.SemanticName != nil {
				name = *h.Block.SemanticName
			}
			fmt.Printf("%s\t%s\t%s\t%s\n", h.Block.ID, h.Block.BlockType, name, h.ContainerName)
		}
		if truncated {
			fmt.Printf("(truncated at %d results)\n", searchLimit)
		}
		return nil
	},
}

var depsCmd = &cobra.Command{
	Use:   "deps [block-id]",
	Short: "Walk the calls/depends_on/imports graph outward from a block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		nodes, cycle, err := eng.DependencyGraph(args[0], depsMaxDepth)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			fmt.Printf("depth=%d via=%s %s\n", n.Depth, n.Via, n.BlockID)
		}
		if cycle != nil {
			fmt.Printf("(cycle detected: %s)\n", strings.Join(cycle, " -> "))
		}
		return nil
	},
}

var couplingCmd = &cobra.Command{
	Use:   "coupling [block-id]",
	Short: "Report efferent/afferent coupling and instability for a block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		m, err := eng.Coupling(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("efferent=%d afferent=%d instability=%.2f\n", m.Efferent, m.Afferent, m.Instability)
		return nil
	},
}

var patternsCmd = &cobra.Command{
	Use:   "patterns [name]",
	Short: "List block ids matching a named structural or lexical pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		ids, err := eng.FindPattern(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, depsCmd, couplingCmd, patternsCmd} {
		c.Flags().StringVar(&queryMigrationID, "migration", "", "migration id to query (required)")
		c.MarkFlagRequired("migration")
	}
	searchCmd.Flags().StringVar(&searchLanguage, "language", "", "filter by language")
	searchCmd.Flags().StringVar(&searchBlockType, "type", "", "filter by block type")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum results")

	depsCmd.Flags().IntVar(&depsMaxDepth, "depth", 0, "maximum hops (0 means the full 64-hop safety cap)")
}
