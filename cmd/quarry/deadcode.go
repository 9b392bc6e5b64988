package main

import (
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/quarrydev/quarry/internal/output"
	"github.com/quarrydev/quarry/pkg/analyzer/deadcode"
)

func deadcodeCmd() *cli.Command {
	return &cli.Command{
		Name:      "deadcode",
		Aliases:   []string{"dc"},
		Usage:     "Detect functions unreachable from any entry point",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "confidence",
				Usage: "Minimum confidence threshold (0.0-1.0); overrides config",
			},
		},
		Action: runDeadcode,
	}
}

func runDeadcode(c *cli.Context) error {
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

	confidence := cfg.Thresholds.DeadCodeConfidence
	if c.IsSet("confidence") {
		confidence = c.Float64("confidence")
	}

	report := deadcode.New(result.Graph, deadcode.WithConfidence(confidence)).Analyze()

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(output.DeadCodeReport(report))
}
