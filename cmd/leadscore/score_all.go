package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/leadscore/internal/config"
	"github.com/honeycarbs/leadscore/internal/domain/lead"
)

var (
	scoreAllForce        bool
	scoreAllBatchSize    int
	scoreAllDryRun       bool
	scoreAllMinEmployees int
	scoreAllIndustries   string
	scoreAllCities       string
	scoreAllLevels       string
	scoreAllCriteriaFile string
)

var scoreAllCmd = &cobra.Command{
	Use:   "score-all",
	Short: "Score every lead at the baseline score (or all with --force)",
	Long: `Score leads in batches. By default only leads that were never scored or sit
at the minimum score are processed; --force rescores everything.

Criteria flags override the configured ICP for this run only.`,
	Args: cobra.NoArgs,
	RunE: runScoreAll,
}

func init() {
	f := scoreAllCmd.Flags()
	f.BoolVar(&scoreAllForce, "force", false, "Rescore leads that already have a score")
	f.IntVar(&scoreAllBatchSize, "batch-size", lead.DefaultBatchSize, "Leads per batch")
	f.BoolVar(&scoreAllDryRun, "dry-run", false, "Compute scores without saving them")
	f.IntVar(&scoreAllMinEmployees, "min-employees", 0, "Override the minimum company size")
	f.StringVar(&scoreAllIndustries, "industries", "", "Comma-separated target industries")
	f.StringVar(&scoreAllCities, "cities", "", "Comma-separated target cities")
	f.StringVar(&scoreAllLevels, "levels", "", "Comma-separated target seniority levels")
	f.StringVar(&scoreAllCriteriaFile, "criteria-file", "", "YAML file with ICP criteria")
	rootCmd.AddCommand(scoreAllCmd)
}

func runScoreAll(cmd *cobra.Command, _ []string) error {
	if scoreAllBatchSize <= 0 {
		return fmt.Errorf("--batch-size must be positive")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newApp(ctx, applyCriteriaFlags)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if !isJSON() {
		criteria := a.res.LeadService.Criteria()
		fmt.Fprintf(out, "ICP: min %d employees, industries %v, cities %v\n",
			criteria.MinEmployees, criteria.TargetIndustries, criteria.TargetCities)
		if scoreAllDryRun {
			fmt.Fprintln(out, "Dry run: no scores will be saved")
		}
	}

	res, err := a.res.LeadService.ScoreAll(ctx, lead.ScoreAllOptions{
		Force:     scoreAllForce,
		BatchSize: scoreAllBatchSize,
		DryRun:    scoreAllDryRun,
		Progress: func(p lead.BatchProgress) {
			if !isJSON() {
				fmt.Fprintf(out, "Batch %d/%d: scored %d lead(s) (%d/%d)\n", p.Batch, p.Batches, p.Size, p.Done, p.Total)
			}
		},
	})
	if err != nil {
		return err
	}

	if isJSON() {
		return writeJSON(out, res)
	}

	fmt.Fprintln(out, res.Message)
	if res.ScoredCount > 0 {
		fmt.Fprintf(out, "Average score: %.1f\n", res.AverageScore)
		grades := make([]string, 0, len(res.Grades))
		for g := range res.Grades {
			grades = append(grades, g)
		}
		sort.Strings(grades)
		for _, g := range grades {
			fmt.Fprintf(out, "  %-2s %d\n", g, res.Grades[g])
		}
	}
	return nil
}

func applyCriteriaFlags(cfg *config.Config) {
	if scoreAllCriteriaFile != "" {
		cfg.ICP.CriteriaFile = scoreAllCriteriaFile
	}
	if scoreAllMinEmployees > 0 {
		cfg.ICP.MinEmployees = scoreAllMinEmployees
	}
	if list := config.SplitList(scoreAllIndustries); len(list) > 0 {
		cfg.ICP.Industries = list
	}
	if list := config.SplitList(scoreAllCities); len(list) > 0 {
		cfg.ICP.Cities = list
	}
	if list := config.SplitList(scoreAllLevels); len(list) > 0 {
		cfg.ICP.Levels = list
	}
}
