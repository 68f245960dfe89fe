package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/eshaffer321/statement-reconciler/internal/cli"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/config"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/logging"
)

func main() {
	global, args, err := cli.ParseGlobalFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	if err := run(global, args[0], args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(global cli.GlobalFlags, subcommand string, subArgs []string) error {
	cfg := loadConfig(global.ConfigFile)
	if global.DBPath != "" {
		cfg.Storage.DatabasePath = global.DBPath
	}
	if global.Verbose {
		cfg.Observability.Logging.Level = "debug"
	}

	// Parse subcommand flags before opening anything
	var (
		importFlags cli.ImportFlags
		listFlags   cli.ListFlags
		autoFlags   cli.AutoFlags
		serveFlags  cli.ServeFlags
		positional  []string
		err         error
	)
	switch subcommand {
	case "import":
		importFlags, positional, err = cli.ParseImportFlags(subArgs, os.Stderr)
		if err == nil && len(positional) != 1 {
			err = fmt.Errorf("usage: reconcile import [-extract] [-name NAME] [-delimiter D] <file>")
		}
		if importFlags.Delimiter != "" {
			cfg.Parser.Delimiter = importFlags.Delimiter
		}
	case "list":
		listFlags, err = cli.ParseListFlags(subArgs, os.Stderr)
	case "auto":
		autoFlags, err = cli.ParseAutoFlags(subArgs, os.Stderr)
	case "serve":
		serveFlags, err = cli.ParseServeFlags(subArgs, os.Stderr)
	case "report":
		if len(subArgs) != 1 {
			err = fmt.Errorf("usage: reconcile report <recurring|vendors>")
		}
	case "stats":
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %s", subcommand)
	}
	if err != nil {
		return err
	}

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, subcommand)

	ctx := context.Background()
	rt, err := cli.NewRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	out := os.Stdout
	switch subcommand {
	case "import":
		cli.PrintHeader(out, "import", cfg.Storage.DatabasePath)
		return cli.RunImport(ctx, rt, out, importFlags, positional[0])
	case "list":
		return cli.RunList(ctx, rt, out, listFlags)
	case "auto":
		cli.PrintHeader(out, "auto", cfg.Storage.DatabasePath)
		return cli.RunAuto(ctx, rt, out, autoFlags)
	case "report":
		return cli.RunReport(ctx, rt, out, subArgs[0])
	case "stats":
		return cli.RunStats(ctx, rt, out)
	default:
		return cli.RunServe(rt, serveFlags)
	}
}

func printUsage() {
	fmt.Println("Statement Reconciler CLI")
	fmt.Println("========================")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  reconcile [global options] <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  import <file>       Import a CSV statement (-extract for AI extraction)")
	fmt.Println("  list                List transactions (-status, -import, -limit)")
	fmt.Println("  auto                Confirm best matches (-min-score)")
	fmt.Println("  report <name>       Print a report: recurring or vendors")
	fmt.Println("  stats               Print counts and totals")
	fmt.Println("  serve               Run the HTTP API (-port)")
	fmt.Println()
	fmt.Println("Global Options:")
	fmt.Println("  -config string      Configuration file path")
	fmt.Println("  -db string          Database path")
	fmt.Println("  -verbose            Enable verbose logging")
}

func loadConfig(configFile string) *config.Config {
	if configFile == "" {
		// Try to find config file
		for _, candidate := range []string{"config.yaml", "config.yml"} {
			if _, err := os.Stat(candidate); err == nil {
				configFile = candidate
				break
			}
		}
	}

	if configFile == "" {
		return config.LoadFromEnv()
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", configFile, err)
		os.Exit(1)
	}
	return cfg
}
