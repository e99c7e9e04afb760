// Package cli implements the nxctl command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fbuehrmann/netxms/pkg/config"
	"github.com/fbuehrmann/netxms/pkg/logger"
	"github.com/fbuehrmann/netxms/pkg/output"
)

// app is the state shared by all subcommands of one root command.
type app struct {
	// Global flags
	cfgFile      string
	serverURL    string
	outputFormat string
	logLevel     string

	// Set during PersistentPreRun
	cfg       *config.Config
	log       *logger.Logger
	formatter output.Formatter

	getenv func(string) string
}

// NewRootCmd returns a fresh nxctl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{getenv: os.Getenv}

	root := &cobra.Command{
		Use:   "nxctl",
		Short: "NetXMS client: browse the object tree and modify objects",
		Long: `nxctl connects to a NetXMS server, replicates its object tree and
lets you inspect objects, follow live changes and send modifications.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.nxctl/config.yaml)")
	root.PersistentFlags().StringVar(&a.serverURL, "server", "", "server endpoint (tcp://host:port, unix:///path or pipe://name)")
	root.PersistentFlags().StringVarP(&a.outputFormat, "output", "o", "", "output format: table, json, yaml (default \"table\")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, notice, warning, error, off")

	root.AddCommand(
		a.newVersionCmd(),
		a.newGetCmd(),
		a.newDescendantsCmd(),
		a.newWatchCmd(),
		a.newModifyCmd(),
	)
	return root
}

// setup loads the configuration. Precedence: flags, environment, file.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	path := a.cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv(a.getenv)

	if a.serverURL != "" {
		cfg.Server = a.serverURL
	}
	if a.outputFormat != "" {
		cfg.OutputFormat = a.outputFormat
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !logger.Level.SetByName(cfg.LogLevel) {
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}

	a.cfg = cfg
	if w := cmd.ErrOrStderr(); w == os.Stderr {
		a.log = logger.New()
	} else {
		a.log = logger.NewWriter(w)
	}
	a.formatter = output.NewFormatter(cfg.OutputFormat)
	return nil
}

// Execute runs nxctl with the process arguments.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
