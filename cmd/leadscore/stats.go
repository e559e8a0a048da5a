package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/leadscore/internal/domain"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show ICP score statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.res.LeadService.Stats(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return writeJSON(out, stats)
	}

	fmt.Fprintf(out, "Leads: %d total, %d scored above baseline\n", stats.TotalLeads, stats.ScoredLeads)
	if stats.AverageScore != nil {
		fmt.Fprintf(out, "Score: avg %.1f, min %d, max %d\n", *stats.AverageScore, *stats.MinScore, *stats.MaxScore)
	}
	fmt.Fprintln(out, "Distribution:")
	for s := domain.MinPossibleScore; s <= domain.MaxPossibleScore; s++ {
		fmt.Fprintf(out, "  %2d: %d\n", s, stats.Distribution[strconv.Itoa(s)])
	}
	if len(stats.TopLeads) > 0 {
		fmt.Fprintln(out, "Top leads:")
		for _, l := range stats.TopLeads {
			fmt.Fprintf(out, "  %2d  %s, %s\n", l.Score, l.Name, l.Company)
		}
	}
	return nil
}
