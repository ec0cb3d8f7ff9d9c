package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eshaffer321/travel-backoffice/internal/cli"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage()
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global, rest, err := cli.ParseGlobalFlags(args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		printUsage()
		return errors.New("no subcommand given")
	}

	cfg, err := loadConfig(global.ConfigPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	subcommand, subArgs := rest[0], rest[1:]
	switch subcommand {
	case "serve":
		stop()
		flags, err := cli.ParseServeFlags(subArgs)
		if err != nil {
			return err
		}
		return cli.RunServe(cfg, flags, global.Verbose)

	case "audit":
		flags, err := cli.ParseAuditFlags(subArgs)
		if err != nil {
			return err
		}
		svcs, err := cli.OpenServices(cfg, cli.LoggingConfig(cfg, global.Verbose))
		if err != nil {
			return err
		}
		defer func() { _ = svcs.Close() }()
		return cli.RunAudit(ctx, svcs, flags, os.Stdout)

	case "reconcile":
		flags, err := cli.ParseReconcileFlags(subArgs)
		if err != nil {
			return err
		}
		svcs, err := cli.OpenServices(cfg, cli.LoggingConfig(cfg, global.Verbose))
		if err != nil {
			return err
		}
		defer func() { _ = svcs.Close() }()
		return cli.RunReconcile(ctx, svcs, flags, os.Stdout)

	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %s", subcommand)
	}
}

// loadConfig loads an explicit config file strictly; without one it tries
// config.yaml and falls back to the environment.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadOrEnv(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func printUsage() {
	fmt.Println("Travel agency back office")
	fmt.Println()
	fmt.Println("Usage: backoffice [-config file] [-verbose] <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve      [-port N]                       Run the HTTP API")
	fmt.Println("  audit      [-json]                         Re-audit stored flight reports")
	fmt.Println("  reconcile  -company F -supplier F          Reconcile two statements (JSON rows)")
	fmt.Println("             [-filters F] [-out F]")
}
