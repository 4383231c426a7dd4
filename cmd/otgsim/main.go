// Command otgsim runs the OTG device driver against the register model in
// otg/sim and walks it through enumeration, logging every bus event.
//
// Usage:
//
//	otgsim [-v] [--json] [--cpuprofile file] [--memprofile file] run [--config file] [--variant fs|hs]
//	otgsim variant [--config file] [--variant fs|hs]
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ardnew/otgfs/pkg"
	"github.com/ardnew/otgfs/pkg/prof"
)

var (
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "enable debug logging",
	}
	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "log in JSON format",
	}
	cpuProfileFlag = &cli.StringFlag{
		Name:  "cpuprofile",
		Usage: "write a CPU profile to `FILE` (requires -tags profile)",
	}
	memProfileFlag = &cli.StringFlag{
		Name:  "memprofile",
		Usage: "write a heap profile to `FILE` on exit (requires -tags profile)",
	}
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "load controller overrides from TOML `FILE`",
	}
	variantFlag = &cli.StringFlag{
		Name:  "variant",
		Value: "fs",
		Usage: "controller preset: fs (OTG_FS) or hs (OTG_HS)",
	}
)

var app = &cli.App{
	Name:  "otgsim",
	Usage: "exercise the OTG device driver on a simulated core",
	Flags: []cli.Flag{verboseFlag, jsonFlag, cpuProfileFlag, memProfileFlag},
	Commands: []*cli.Command{
		{
			Name:   "run",
			Usage:  "run a scripted enumeration session",
			Flags:  []cli.Flag{configFlag, variantFlag},
			Action: runCommand,
		},
		{
			Name:   "variant",
			Usage:  "print the effective controller configuration as TOML",
			Flags:  []cli.Flag{configFlag, variantFlag},
			Action: variantCommand,
		},
	},
	Before: setup,
	After:  teardown,
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup configures logging and profiling from the global flags.
func setup(ctx *cli.Context) error {
	if ctx.Bool(jsonFlag.Name) {
		pkg.SetLogFormat(pkg.LogFormatJSON)
	}
	if ctx.Bool(verboseFlag.Name) {
		pkg.SetLogLevel(slog.LevelDebug)
	} else {
		pkg.SetLogLevel(slog.LevelInfo)
	}

	if path := ctx.String(cpuProfileFlag.Name); path != "" {
		if err := prof.StartCPU(path); err != nil {
			pkg.LogWarn(pkg.ComponentCmd, "cpu profile not started", "error", err)
		}
	}
	return nil
}

func teardown(ctx *cli.Context) error {
	prof.StopCPU()
	if path := ctx.String(memProfileFlag.Name); path != "" {
		if err := prof.Write(prof.ProfileHeap, path); err != nil {
			pkg.LogWarn(pkg.ComponentCmd, "heap profile not written", "error", err)
		}
	}
	return nil
}

func runCommand(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx.String(configFlag.Name), ctx.String(variantFlag.Name))
	if err != nil {
		return err
	}
	report, err := runSession(cfg)
	if err != nil {
		return err
	}
	report.print(ctx.App.Writer)
	return nil
}

func variantCommand(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx.String(configFlag.Name), ctx.String(variantFlag.Name))
	if err != nil {
		return err
	}
	return writeConfig(ctx.App.Writer, cfg)
}
