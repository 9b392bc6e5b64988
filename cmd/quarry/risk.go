package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/quarrydev/quarry/internal/output"
	"github.com/quarrydev/quarry/pkg/analyzer/risk"
)

func riskCmd() *cli.Command {
	return &cli.Command{
		Name:      "risk",
		Usage:     "Score functions by blast radius and criticality",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Value: 20,
				Usage: "Number of highest-risk functions to show",
			},
			&cli.StringFlag{
				Name:  "coverage",
				Usage: "Path to a JSON file of per-function coverage records",
			},
		},
		Action: runRisk,
	}
}

func runRisk(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	files, err := scanFiles(cfg, getPaths(c))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	result, err := buildGraph(c, cfg, files)
	if err != nil {
		return err
	}

	opts := []risk.Option{
		risk.WithThresholds(cfg.Thresholds.HighRiskBlastRadius, cfg.Thresholds.CriticalDependencyCount),
		risk.WithMaxDepth(cfg.Graph.MaxDepth),
	}
	if path := c.String("coverage"); path != "" {
		records, err := loadCoverage(path)
		if err != nil {
			return err
		}
		opts = append(opts, risk.WithCoverage(records))
	}

	report := risk.New(result.Graph, opts...).Analyze()

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(output.RiskReport(report, c.Int("top")))
}

func loadCoverage(path string) ([]risk.CoverageRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading coverage file: %w", err)
	}
	var records []risk.CoverageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing coverage file: %w", err)
	}
	return records, nil
}
