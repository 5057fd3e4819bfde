package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/CoopHive/bacalhau/cmd/cli/job"
	"github.com/CoopHive/bacalhau/cmd/cli/version"
	"github.com/CoopHive/bacalhau/cmd/util"
	"github.com/CoopHive/bacalhau/cmd/util/flags"
	"github.com/CoopHive/bacalhau/pkg/config"
	"github.com/CoopHive/bacalhau/pkg/config/types"
	"github.com/CoopHive/bacalhau/pkg/logger"
	"github.com/CoopHive/bacalhau/pkg/system"
	"github.com/CoopHive/bacalhau/pkg/telemetry"
)

type rootOptions struct {
	LoggingMode logger.LogMode
	ConfigFile  string
	APIURL      string
	APIToken    string
}

func NewRootCmd() *cobra.Command {
	o := &rootOptions{LoggingMode: logger.LogModeDefault}
	if logtype, set := os.LookupEnv("LOG_TYPE"); set {
		if mode, err := logger.ParseLogMode(logtype); err == nil {
			o.LoggingMode = mode
		}
	}

	rootCmd := &cobra.Command{
		Use:           "jobview",
		Short:         "Inspect jobs and moderate them through the dashboard",
		Long:          `Inspect jobs and moderate them through the dashboard`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			logger.ConfigureLogging(o.LoggingMode)

			cfg, err := config.Load(config.WithFileName(o.ConfigFile))
			if err != nil {
				return err
			}
			ctx = context.WithValue(ctx, util.ConfigKey, cfg)

			cm := system.NewCleanupManager()
			cm.RegisterCallback(telemetry.Cleanup)
			ctx = context.WithValue(ctx, util.SystemManagerKey, cm)

			var names []string
			root := cmd
			for ; root.HasParent(); root = root.Parent() {
				names = append([]string{root.Name()}, names...)
			}
			name := fmt.Sprintf("jobview.%s", strings.Join(names, "."))
			ctx, span := telemetry.NewSpan(ctx, telemetry.GetTracer(), name, trace.WithNewRoot())
			ctx = context.WithValue(ctx, spanKey, span)

			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			if span, ok := ctx.Value(spanKey).(trace.Span); ok {
				span.End()
			}
			if cm, ok := ctx.Value(util.SystemManagerKey).(*system.CleanupManager); ok {
				cm.Cleanup(ctx)
			}
		},
	}

	rootCmd.AddCommand(job.NewCmd())
	rootCmd.AddCommand(version.NewCmd())

	pflags := rootCmd.PersistentFlags()
	pflags.StringVar(&o.ConfigFile, "config", o.ConfigFile,
		`Path to a YAML config file.`)
	pflags.Var(flags.URLFlag(&o.APIURL, "http", "https"), "api-url",
		fmt.Sprintf(`The base URL of the dashboard API (default %q).
Overrides %s.`, types.DefaultAPIURL, config.KeyAsEnvVar(types.APIURL)))
	pflags.StringVar(&o.APIToken, "api-token", o.APIToken,
		fmt.Sprintf(`Session token for moderation. Overrides %s.`, config.KeyAsEnvVar(types.APIToken)))
	pflags.Var(flags.LoggingFlag(&o.LoggingMode), "log-mode",
		`Log format: 'default','json','combined','event'`)

	bindFlag(rootCmd, types.APIURL, "api-url")
	bindFlag(rootCmd, types.APIToken, "api-token")
	return rootCmd
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("DEVELOPER ERROR: binding %s: %s", flag, err))
	}
}

func Execute() {
	telemetry.SetupFromEnvs()
	rootCmd := NewRootCmd()

	// Ensure commands are able to stop cleanly if someone presses ctrl+c
	ctx, cancel := signal.NotifyContext(context.Background(), util.ShutdownSignals...)
	defer cancel()
	rootCmd.SetContext(ctx)

	// Use stdout for cmd.Print output, so that e.g. describe -o json | jq works
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		util.Fatal(rootCmd, err, 1)
	}
}

type contextKey struct {
	name string
}

var spanKey = contextKey{name: "context key for storing the root span"}
