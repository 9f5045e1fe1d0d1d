package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"stockout-app/logger"
	"stockout-app/pipeline"
)

var (
	scoreIn       string
	scoreOut      string
	scoreCategory string
	scoreStore    string
	scoreTop      int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one CSV file from the command line",
	Long: `Score an inventory CSV and write the augmented table as CSV.

The export carries stockout_risk, demand_14d, units_at_risk,
profit_per_unit and economic_loss after the uploaded columns, sorted by
risk with the highest first.`,
	Example: `  stockout score --in inventory.csv --out predictions.csv --category Toys --top 50`,
	RunE:    runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreIn, "in", "", "inventory CSV to score (required)")
	scoreCmd.Flags().StringVar(&scoreOut, "out", "", "output CSV path, stdout when empty")
	scoreCmd.Flags().StringVar(&scoreCategory, "category", pipeline.All, "only export this category")
	scoreCmd.Flags().StringVar(&scoreStore, "store", pipeline.All, "only export this store id")
	scoreCmd.Flags().IntVar(&scoreTop, "top", 0, "only export the N riskiest rows, 0 for all")
	_ = scoreCmd.MarkFlagRequired("in")
}

func runScore(cmd *cobra.Command, _ []string) error {
	if scoreTop < 0 {
		return fmt.Errorf("--top must not be negative")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, cleanup, err := initializeApp(cfg)
	defer cleanup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	f, err := os.Open(scoreIn)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := a.runner.Run(ctx, filepath.Base(scoreIn), f)
	if err != nil {
		return err
	}
	ctx = logger.WithRun(ctx, res.RunID, res.FileName)

	filters := pipeline.Filters{Category: scoreCategory, Store: scoreStore}
	data, err := pipeline.ExportCSV(res, filters, scoreTop, a.format())
	if err != nil {
		return err
	}

	if scoreOut == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(scoreOut, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", scoreOut, err)
	}

	view := pipeline.TopN(pipeline.SortByRiskDescending(pipeline.Filter(res, filters)), scoreTop)
	sum := pipeline.Summarize(view, cfg.Present.HighlightThreshold)
	a.log.Infof(ctx, "wrote %d rows to %s: mean risk %.3f, %d high risk, economic loss %.2f",
		sum.Rows, scoreOut, sum.MeanRisk, sum.HighRiskRows, sum.TotalEconomicLoss)
	return nil
}
