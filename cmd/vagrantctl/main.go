package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vagrant-mcp/govagrant/internal/config"
	"github.com/vagrant-mcp/govagrant/internal/logger"
	"github.com/vagrant-mcp/govagrant/internal/output"
	"github.com/vagrant-mcp/govagrant/pkg/vagrant"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// an interrupt kills the running vagrant invocation
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the settings shared by every subcommand
type app struct {
	configPath string
	root       string
	executable string
	strict     bool
	timeout    time.Duration
	logLevel   string
	format     string
	noHeaders  bool

	client *vagrant.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "vagrantctl",
		Short: "vagrantctl - drive vagrant from scripts",
		Long: `vagrantctl runs vagrant commands against one project directory and
prints typed results.

Status, box and plugin listings are parsed from vagrant's machine-readable
output and can be printed as a table, YAML or JSON.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", os.Getenv(config.EnvConfigFile), "YAML config file")
	flags.StringVarP(&a.root, "root", "C", "", "project directory holding the Vagrantfile")
	flags.StringVar(&a.executable, "vagrant", "", "vagrant executable to run")
	flags.BoolVar(&a.strict, "strict", false, "fail on malformed vagrant output instead of warning")
	flags.DurationVar(&a.timeout, "timeout", 0, "kill vagrant after this long (0 means no limit)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVarP(&a.format, "output", "o", defaultFormat(), "output format: table, yaml, json")
	flags.BoolVar(&a.noHeaders, "no-headers", false, "omit table headers")

	rootCmd.AddCommand(
		newVersionCmd(a),
		newStatusCmd(a),
		newInitCmd(a),
		newUpCmd(a),
		newProvisionCmd(a),
		newReloadCmd(a),
		newMachineCmd(a, "suspend", "Save machine state and stop the machines", (*vagrant.Client).Suspend),
		newMachineCmd(a, "resume", "Resume suspended machines", (*vagrant.Client).Resume),
		newHaltCmd(a),
		newMachineCmd(a, "destroy", "Destroy machines without confirmation", (*vagrant.Client).Destroy),
		newPackageCmd(a),
		newValidateCmd(a),
		newBoxCmd(a),
		newPluginCmd(a),
		newSSHConfigCmd(a),
		newSSHCmd(a),
		newSnapshotCmd(a),
		newSandboxCmd(a),
	)
	return rootCmd
}

// defaultFormat prints tables to a terminal and JSON to pipes
func defaultFormat() string {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return string(output.FormatTable)
	}
	return string(output.FormatJSON)
}

// setup loads configuration, lets flags override it and builds the client
func (a *app) setup(cmd *cobra.Command) error {
	if err := output.ValidateFormat(a.format); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.root != "" {
		cfg.Root = a.root
	}
	if a.executable != "" {
		cfg.Executable = a.executable
	}
	if cmd.Flags().Changed("strict") {
		cfg.StrictParse = a.strict
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = a.timeout
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lc := cfg.Logger()
	lc.Output = cmd.ErrOrStderr()
	logger.Setup(lc)

	a.client, err = vagrant.NewFromConfig(cfg, nil)
	return err
}

func (a *app) formatter() (output.Formatter, error) {
	return output.NewFormatter(output.Options{
		Format:    output.Format(a.format),
		NoHeaders: a.noHeaders,
	})
}

// stream sends vagrant's output straight to the terminal
func stream(cmd *cobra.Command) vagrant.Output {
	return vagrant.Output{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
}

// vmArg returns the optional machine name argument
func vmArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
