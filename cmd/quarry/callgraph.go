package main

import (
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/quarrydev/quarry/internal/output"
)

func callgraphCmd() *cli.Command {
	return &cli.Command{
		Name:      "callgraph",
		Aliases:   []string{"cg"},
		Usage:     "Build the call graph and show its structure",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Value: 20,
				Usage: "Number of most depended-on functions to show",
			},
		},
		Action: runCallgraph,
	}
}

func runCallgraph(c *cli.Context) error {
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

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if result.FilesSkipped > 0 {
		formatter.Warning("%d files could not be parsed", result.FilesSkipped)
	}
	return formatter.Output(output.CallGraphReport(result.Graph, c.Int("top")))
}
