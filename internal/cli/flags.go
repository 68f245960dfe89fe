package cli

import (
	"flag"
	"io"
)

// GlobalFlags are accepted before any subcommand.
type GlobalFlags struct {
	ConfigFile string
	DBPath     string
	Verbose    bool
}

// ParseGlobalFlags parses the global flags from args and returns the remaining arguments.
func ParseGlobalFlags(args []string, output io.Writer) (GlobalFlags, []string, error) {
	var flags GlobalFlags
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	fs.StringVar(&flags.DBPath, "db", "", "Database path (overrides config)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return flags, nil, err
	}
	return flags, fs.Args(), nil
}

// ImportFlags are the flags of the import command.
type ImportFlags struct {
	Name      string
	Extract   bool
	Delimiter string
}

// ParseImportFlags parses import flags. The statement path is the first positional argument.
func ParseImportFlags(args []string, output io.Writer) (ImportFlags, []string, error) {
	var flags ImportFlags
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&flags.Name, "name", "", "Import name (default: file name)")
	fs.BoolVar(&flags.Extract, "extract", false, "Send the file through the AI extractor instead of the CSV parser")
	fs.StringVar(&flags.Delimiter, "delimiter", "", "CSV delimiter (overrides config)")
	if err := fs.Parse(args); err != nil {
		return flags, nil, err
	}
	return flags, fs.Args(), nil
}

// ListFlags are the flags of the list command.
type ListFlags struct {
	Status   string
	ImportID string
	Limit    int
}

// ParseListFlags parses list flags.
func ParseListFlags(args []string, output io.Writer) (ListFlags, error) {
	var flags ListFlags
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&flags.Status, "status", "", "Filter by status (pending, matched, discrepancy)")
	fs.StringVar(&flags.ImportID, "import", "", "Filter by import run id")
	fs.IntVar(&flags.Limit, "limit", 50, "Maximum transactions to show (0 = all)")
	err := fs.Parse(args)
	return flags, err
}

// AutoFlags are the flags of the auto command.
type AutoFlags struct {
	MinScore int
}

// ParseAutoFlags parses auto-reconcile flags.
func ParseAutoFlags(args []string, output io.Writer) (AutoFlags, error) {
	var flags AutoFlags
	fs := flag.NewFlagSet("auto", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&flags.MinScore, "min-score", 0, "Minimum score to confirm (0 = config default)")
	err := fs.Parse(args)
	return flags, err
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port int
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags(args []string, output io.Writer) (ServeFlags, error) {
	var flags ServeFlags
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on (0 = config default)")
	err := fs.Parse(args)
	return flags, err
}
