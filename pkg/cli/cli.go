// Package cli implements the mmdispatch command.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/multimethods/internal/config"
	"github.com/funvibe/multimethods/internal/goscan"
	"github.com/funvibe/multimethods/internal/report"
	"github.com/funvibe/multimethods/internal/schema"
	"github.com/funvibe/multimethods/pkg/multimethods"
)

const usage = `Usage: mmdispatch [--config <file>] <command> [arguments]

Commands:
  inspect <schema.yaml>                     print nodes, masks, slots, groups and tables
  resolve <schema.yaml> <method> <class>... print the winner and next chain of a call
  scan <dir> [package pattern...]           derive lattices from Go struct embedding
  export <schema.yaml>                      write the derived state as YAML

Ordinary arguments are passed to resolve as "_".

Flags:
  -version   print the version
  -help      print this message
`

// env abstracts the process environment for tests.
type env struct {
	stdout, stderr io.Writer
	lookup         func(string) (string, bool)
	isTerminal     func(io.Writer) bool
}

// Run executes mmdispatch with args (without the program name) and returns
// the exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	return run(args, env{
		stdout:     stdout,
		stderr:     stderr,
		lookup:     os.LookupEnv,
		isTerminal: isTerminal,
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func run(args []string, e env) int {
	if len(args) == 1 {
		switch args[0] {
		case "-v", "-version", "--version":
			fmt.Fprintln(e.stdout, "mmdispatch "+config.Version)
			return 0
		}
	}
	if len(args) == 0 || args[0] == "-help" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(e.stdout, usage)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	configPath := ""
	if args[0] == "--config" {
		if len(args) < 2 {
			fmt.Fprintln(e.stderr, "Error: --config requires a file")
			return 2
		}
		configPath, args = args[1], args[2:]
	}
	opts, err := loadOptions(configPath, e.lookup)
	if err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return 1
	}
	logger := slog.New(slog.NewTextHandler(e.stderr, &slog.HandlerOptions{Level: opts.Level()}))

	if len(args) == 0 {
		fmt.Fprint(e.stderr, usage)
		return 2
	}
	cmd, rest := args[0], args[1:]
	logger.Debug("running command", slog.String("command", cmd), slog.Any("args", rest))

	switch cmd {
	case "inspect":
		err = handleInspect(rest, opts, logger, e)
	case "resolve":
		err = handleResolve(rest, opts, logger, e)
	case "scan":
		err = handleScan(rest, opts, logger, e)
	case "export":
		err = handleExport(rest, opts, logger, e)
	default:
		fmt.Fprintf(e.stderr, "Error: unknown command %q\n%s", cmd, usage)
		return 2
	}

	var ue usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue):
		fmt.Fprintf(e.stderr, "Usage: mmdispatch %s\n", ue)
		return 2
	default:
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return 1
	}
}

type usageError string

func (u usageError) Error() string { return string(u) }

// loadOptions reads the explicit config file, or mmdispatch.yaml found
// from the working directory, then applies the environment.
func loadOptions(path string, lookup func(string) (string, bool)) (*config.Options, error) {
	if path == "" {
		found, err := config.FindConfig(".")
		if err != nil {
			return nil, err
		}
		path = found
	}
	opts := config.Default()
	if path != "" {
		var err error
		if opts, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if err := opts.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	return opts, nil
}

func (e env) color(opts *config.Options) bool {
	switch opts.Color {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return e.isTerminal(e.stdout)
	}
}

func loadSchema(path string, opts *config.Options, logger *slog.Logger) (*multimethods.Registry, error) {
	f, err := schema.Load(path)
	if err != nil {
		return nil, err
	}
	reg := multimethods.NewRegistry(multimethods.WithConfig(opts), multimethods.WithLogger(logger))
	if err := f.Build(reg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := reg.Initialize(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Info("schema loaded", slog.String("path", path),
		slog.Int("classes", len(reg.Classes())), slog.Int("multimethods", len(reg.Methods())))
	return reg, nil
}

func handleInspect(args []string, opts *config.Options, logger *slog.Logger, e env) error {
	if len(args) != 1 {
		return usageError("inspect <schema.yaml>")
	}
	reg, err := loadSchema(args[0], opts, logger)
	if err != nil {
		return err
	}
	s, err := reg.Snapshot()
	if err != nil {
		return err
	}
	return report.Render(e.stdout, s, e.color(opts))
}

func handleResolve(args []string, opts *config.Options, logger *slog.Logger, e env) error {
	if len(args) < 3 {
		return usageError("resolve <schema.yaml> <method> <class>...")
	}
	reg, err := loadSchema(args[0], opts, logger)
	if err != nil {
		return err
	}
	m, ok := reg.Method(args[1])
	if !ok {
		return fmt.Errorf("unknown multimethod %s", args[1])
	}
	callArgs, err := schema.Instances(reg, args[2:]...)
	if err != nil {
		return err
	}
	cell, err := m.Lookup(callArgs...)
	if err != nil {
		return err
	}
	call := fmt.Sprintf("%s(%s)", m.Name(), strings.Join(args[2:], ", "))
	if w := cell.Winner(); w != nil {
		fmt.Fprintf(e.stdout, "%s -> %s\n", call, w.Label())
		if len(cell.Chain) > 1 {
			fmt.Fprintf(e.stdout, "next: %s\n", strings.Join(report.Labels(cell.Chain[1:]), " > "))
		}
		return nil
	}
	fmt.Fprintf(e.stdout, "%s -> %s\n", call, cell.Fault)
	return nil
}

func handleScan(args []string, opts *config.Options, logger *slog.Logger, e env) error {
	if len(args) < 1 {
		return usageError("scan <dir> [package pattern...]")
	}
	res, err := goscan.Scan(args[0], args[1:]...)
	if err != nil {
		return err
	}
	logger.Info("packages scanned", slog.Any("packages", res.Packages), slog.Int("types", len(res.Types)))
	if len(res.Types) == 0 {
		fmt.Fprintln(e.stdout, "no embedding found")
		return nil
	}
	reg := multimethods.NewRegistry(multimethods.WithConfig(opts), multimethods.WithLogger(logger))
	if _, err := res.Build(reg); err != nil {
		return err
	}
	s, err := reg.Snapshot()
	if err != nil {
		return err
	}
	return report.Render(e.stdout, s, e.color(opts))
}

func handleExport(args []string, opts *config.Options, logger *slog.Logger, e env) error {
	if len(args) != 1 {
		return usageError("export <schema.yaml>")
	}
	reg, err := loadSchema(args[0], opts, logger)
	if err != nil {
		return err
	}
	s, err := reg.Snapshot()
	if err != nil {
		return err
	}
	return report.WriteYAML(e.stdout, s)
}
