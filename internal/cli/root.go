// Package cli implements guardianctl, the operator command line: offline
// evaluation, policy inspection, schema migrations, incident pruning and
// reading the audit trail.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"guardian/internal/guardian"
	"guardian/internal/platform/config"
	"guardian/internal/platform/logger"
)

// All linker flags are set at build time.
var (
	version = "dev"
	commit  = "none"
)

// app carries the resolved configuration shared by every subcommand.
type app struct {
	v *viper.Viper
}

// NewRootCommand builds the command tree with its own viper instance, so
// separate trees never share flag state.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "guardianctl",
		Short:         "Operate and simulate the Guardian risk-verdict service.",
		Version:       version + " (" + commit + ")",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to config file (default .guardianctl.yaml in . or $HOME)")
	flags.String("store", config.BackendMemory, "Store backend: memory, sqlite or postgres")
	flags.String("database-url", "", "Postgres connection URL")
	flags.String("sqlite-path", "guardian.db", "SQLite database file")
	flags.String("policy", "", "Policy YAML file (default: built-in policy)")
	flags.String("color", "auto", "Colored output: auto, yes or no")
	flags.String("log-level", "warn", "Log level for diagnostics on stderr")
	if err := a.v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("bind root flags: %v", err))
	}

	root.AddCommand(
		a.newEvaluateCommand(),
		a.newPolicyCommand(),
		a.newMigrateCommand(),
		a.newPruneCommand(),
		a.newAuditCommand(),
	)
	return root
}

// Execute runs guardianctl with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) loadConfig() error {
	if file := a.v.GetString("config"); file != "" {
		a.v.SetConfigFile(file)
	} else {
		a.v.SetConfigName(".guardianctl")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		a.v.AddConfigPath("$HOME")
	}
	a.v.SetEnvPrefix("GUARDIANCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	switch strings.ToLower(a.v.GetString("color")) {
	case "yes", "true", "1", "always":
		color.NoColor = false
	case "no", "false", "0", "never":
		color.NoColor = true
	}
	return nil
}

func (a *app) logger(w io.Writer) *slog.Logger {
	return logger.NewWithWriter(w, a.v.GetString("log-level"))
}

// policy returns the configured policy, or the built-in one.
func (a *app) policy() (guardian.Policy, error) {
	path := a.v.GetString("policy")
	if path == "" {
		return guardian.DefaultPolicy(), nil
	}
	return guardian.LoadPolicy(path)
}
