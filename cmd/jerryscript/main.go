// Command jerryscript is the CLI front end for the engine (spec §6 "CLI",
// SPEC_FULL.md §A8): run a file, evaluate a one-off expression, drop into
// a REPL, or save/execute a compiled-code snapshot.
//
// Grounded on the teacher's cmd/paserati (flag-based file/REPL/-e driver)
// restructured onto github.com/spf13/cobra's multi-subcommand shape per
// SPEC_FULL.md §6/§11, with github.com/fatih/color used only at this CLI
// edge for diagnostics, matching the teacher's plain-stderr-and-exit-code
// reporting style but in the pack's color convention.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ecmago/pkg/api"
	"ecmago/pkg/config"
	"ecmago/pkg/heap"
	"ecmago/pkg/port"
)

// Exit codes mirror spec §6's fatal code list, with 0 for success and a
// distinct non-zero for a plain script/compile error versus an internal
// engine fatal (which port.Default.Fatal already calls os.Exit from).
const (
	exitOK        = 0
	exitUsage     = 64
	exitScriptErr = 70
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:   "jerryscript",
		Short: "an embeddable ECMAScript 5.1 execution engine",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a TOML engine config file")

	root.AddCommand(runCmd(), evalCmd(), replCmd(), snapshotCmd())

	if err := root.Execute(); err != nil {
		os.Exit(exitUsage)
	}
}

func loadConfig() config.Config {
	if cfgPath == "" {
		return config.Default
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("config error: %s", err))
		os.Exit(exitUsage)
	}
	return cfg
}

func newContext() *api.Context {
	return api.Init(loadConfig(), port.Default{})
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "compile and execute a script file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			src, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, color.RedString("%s", err))
				os.Exit(exitUsage)
			}
			ctx := newContext()
			if _, err := ctx.Eval(string(src), false); err != nil {
				reportError(err)
				os.Exit(exitScriptErr)
			}
		},
	}
}

func evalCmd() *cobra.Command {
	var expr string
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "evaluate a one-off expression and print its result",
		Run: func(cmd *cobra.Command, args []string) {
			if expr == "" {
				fmt.Fprintln(os.Stderr, color.RedString("eval: -e <source> is required"))
				os.Exit(exitUsage)
			}
			ctx := newContext()
			v, err := ctx.Eval(expr, false)
			if err != nil {
				reportError(err)
				os.Exit(exitScriptErr)
			}
			printResult(ctx, v)
		},
	}
	cmd.Flags().StringVarP(&expr, "expr", "e", "", "source text to evaluate")
	return cmd
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "start an interactive read-eval-print loop",
		Run: func(cmd *cobra.Command, args []string) {
			runRepl()
		},
	}
}

func runRepl() {
	ctx := newContext()
	fmt.Println(color.CyanString("ecmago") + " — ECMAScript 5.1 engine REPL. Ctrl-D to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		v, err := ctx.Eval(line, false)
		if err != nil {
			reportError(err)
			continue
		}
		printResult(ctx, v)
	}
}

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "save or execute a compiled-code snapshot (JRY1 container)",
	}
	cmd.AddCommand(snapshotSaveCmd(), snapshotExecCmd())
	return cmd
}

func snapshotSaveCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "compile a script and write it as a JRY1 snapshot",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			src, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, color.RedString("%s", err))
				os.Exit(exitUsage)
			}
			ctx := newContext()
			data, err := ctx.ParseAndSaveSnapshot(string(src), args[0], false)
			if err != nil {
				reportError(err)
				os.Exit(exitScriptErr)
			}
			if out == "" {
				out = args[0] + ".jsc"
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				fmt.Fprintln(os.Stderr, color.RedString("%s", err))
				os.Exit(exitScriptErr)
			}
			fmt.Println(color.GreenString("wrote %s (%d bytes)", out, len(data)))
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output snapshot path (default: <file>.jsc)")
	return cmd
}

func snapshotExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <file>",
		Short: "execute a previously saved JRY1 snapshot",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, color.RedString("%s", err))
				os.Exit(exitUsage)
			}
			ctx := newContext()
			if _, err := ctx.ExecSnapshot(data, false); err != nil {
				reportError(err)
				os.Exit(exitScriptErr)
			}
		},
	}
}

func reportError(err error) {
	fmt.Fprintln(os.Stderr, color.RedString(err.Error()))
}

func printResult(ctx *api.Context, v heap.Value) {
	if v.IsUndefined() {
		return
	}
	fmt.Println(ctx.Realm.ToGoString(v))
}
