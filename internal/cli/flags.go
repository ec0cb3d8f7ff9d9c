package cli

import (
	"errors"
	"flag"
	"io"
)

// GlobalFlags are flags accepted before the subcommand.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
}

// ParseGlobalFlags parses global flags and returns the remaining arguments
// (subcommand first).
func ParseGlobalFlags(args []string) (GlobalFlags, []string, error) {
	var flags GlobalFlags
	fs := newFlagSet("backoffice")
	fs.StringVar(&flags.ConfigPath, "config", "", "Configuration file path (default config.yaml, then environment)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return flags, nil, err
	}
	return flags, fs.Args(), nil
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port int // 0 uses the configured port
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags(args []string) (*ServeFlags, error) {
	flags := &ServeFlags{}
	fs := newFlagSet("serve")
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on (default from config)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// AuditFlags holds the CLI flags for the audit command.
type AuditFlags struct {
	JSON bool
}

// ParseAuditFlags parses command line flags for the audit command.
func ParseAuditFlags(args []string) (*AuditFlags, error) {
	flags := &AuditFlags{}
	fs := newFlagSet("audit")
	fs.BoolVar(&flags.JSON, "json", false, "Print audited reports as JSON instead of a summary")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// ReconcileFlags holds the CLI flags for the reconcile command.
type ReconcileFlags struct {
	CompanyPath  string
	SupplierPath string
	FiltersPath  string
	OutputPath   string
}

// ErrMissingInput is returned when a required row file is not given.
var ErrMissingInput = errors.New("both -company and -supplier are required")

// ParseReconcileFlags parses command line flags for the reconcile command.
func ParseReconcileFlags(args []string) (*ReconcileFlags, error) {
	flags := &ReconcileFlags{}
	fs := newFlagSet("reconcile")
	fs.StringVar(&flags.CompanyPath, "company", "", "JSON file with company statement rows")
	fs.StringVar(&flags.SupplierPath, "supplier", "", "JSON file with supplier statement rows")
	fs.StringVar(&flags.FiltersPath, "filters", "", "JSON file with filter rules (default from config)")
	fs.StringVar(&flags.OutputPath, "out", "", "Write reconciled records as JSON to this file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if flags.CompanyPath == "" || flags.SupplierPath == "" {
		return nil, ErrMissingInput
	}
	return flags, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
