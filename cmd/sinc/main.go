// Command sinc is the compression tool's entry point (spec.md §6.1): it
// wires command-line flags through internal/config into internal/sinc's
// driver and reports the exit code spec.md §6.1 requires (0 on normal or
// interrupted completion, non-zero on a config or I/O error).
package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"

	"github.com/TramsWang/SInC-sub001/internal/config"
	"github.com/TramsWang/SInC-sub001/internal/sinc"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	log := hclog.New(&hclog.LoggerOptions{
		Name:  "sinc",
		Level: hclog.Info,
	})

	c := cli.NewCLI("sinc", "1.0.0")
	c.Args = args
	c.Commands = map[string]cli.CommandFactory{
		"compress": func() (cli.Command, error) {
			return &compressCommand{log: log}, nil
		},
	}

	exitCode, err := c.Run()
	if err != nil {
		log.Error("cli dispatch failed", "error", err)
		return 1
	}
	return exitCode
}

// compressCommand is the sole subcommand: load a KB, mine a hypothesis,
// dump the compressed result (spec.md §2's overview pipeline).
type compressCommand struct {
	log hclog.Logger
}

func (c *compressCommand) Help() string {
	return "Usage: sinc compress -I path,name [options]\n\n" +
		"Compresses a relational knowledge base by mining first-order Horn\n" +
		"rules over it. Run with -h for the full flag list."
}

func (c *compressCommand) Synopsis() string {
	return "compress a knowledge base by mining Horn rules"
}

func (c *compressCommand) Run(args []string) int {
	cfg, err := config.Parse(args)
	if err != nil {
		c.log.Error("configuration error", "error", err)
		return 2
	}

	d := sinc.New(cfg, c.log)
	stop := d.InstallSignalHandler()
	defer stop()

	stats, err := d.Run()
	if err != nil {
		c.log.Error("compression run failed", "error", err)
		return 1
	}

	fmt.Printf("relations mined: %d, rules found: %d, interrupted: %v\n",
		stats.RelationsMined, stats.RulesFound, stats.Interrupted)
	return 0
}
