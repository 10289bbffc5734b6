package root

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/segmentio/cli"
	"github.com/spf13/cobra"

	"github.com/pegasus-infra/pegasusctl/internal/build"
	"github.com/pegasus-infra/pegasusctl/internal/cmd"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/common"
	profilecmd "github.com/pegasus-infra/pegasusctl/internal/cmd/root/profile"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/root/themes"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/root/verbs/dashboard"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/root/verbs/get"
	"github.com/pegasus-infra/pegasusctl/internal/cmd/root/version"
	"github.com/pegasus-infra/pegasusctl/internal/config"
	"github.com/pegasus-infra/pegasusctl/internal/iostreams"
	"github.com/pegasus-infra/pegasusctl/internal/log"
	"github.com/pegasus-infra/pegasusctl/internal/meta"
	"github.com/pegasus-infra/pegasusctl/internal/pegasus"
	"github.com/pegasus-infra/pegasusctl/internal/profile"
	"github.com/pegasus-infra/pegasusctl/internal/theme"
	"github.com/pegasus-infra/pegasusctl/internal/util"
	"github.com/pegasus-infra/pegasusctl/internal/util/i18n"
	"github.com/pegasus-infra/pegasusctl/internal/util/normalizers"
)

var (
	rootLong = normalizers.LongDesc(i18n.T("root.rootLong", `
  Pegasus CLI is the terminal client for the Pegasus passive infrastructure API.

  It browses the read-only operational datasets (sites, trouble tickets,
  preventive and support work orders) and renders KPI dashboards.`))

	rootShort = i18n.T("root.rootShort",
		fmt.Sprintf("%s browses %s data", meta.CLIName, meta.ProductName))

	rootCmd *cobra.Command

	// Stores the global runtime value for the Configuration file path,
	configFilePath = config.ExpandDefaultConfigFilePath()
	currProfile    = profile.DefaultProfile

	currConfig   config.Hook
	streams      *iostreams.IOStreams
	logger       *slog.Logger
	pMgr         profile.Manager
	outputFormat = cmd.NewEnum([]string{"json", "yaml", "text"}, "text")
	logLevel     = cmd.NewEnum([]string{"trace", "debug", "info", "warn", "error"},
		common.DefaultLogLevel)

	buildInfo *build.Info
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   meta.CLIName,
		Short: rootShort,
		Long:  rootLong,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			ctx := context.WithValue(c.Context(), config.ConfigKey, currConfig)
			ctx = context.WithValue(ctx, iostreams.StreamsKey, streams)
			ctx = context.WithValue(ctx, log.LoggerKey, logger)
			ctx = context.WithValue(ctx, profile.ProfileManagerKey, pMgr)
			ctx = context.WithValue(ctx, build.InfoKey, buildInfo)
			ctx = context.WithValue(ctx, cmd.PegasusClientFactoryKey, defaultClientFactory)
			c.SetContext(ctx)
		},
	}

	// parses all flags not just the target command
	rootCmd.TraverseChildren = true

	rootCmd.PersistentFlags().StringVar(&configFilePath, common.ConfigFilePathFlagName,
		config.ExpandDefaultConfigFilePath(),
		i18n.T("root."+common.ConfigFilePathFlagName, "Path to the configuration file to load."))

	rootCmd.PersistentFlags().StringVarP(&currProfile, common.ProfileFlagName, common.ProfileFlagShort,
		profile.DefaultProfile,
		"Specify the profile to use for this command.")

	// -------------------------------------------------------------------------
	// Add the output flag, which defines the text output format.
	// This requires some extra gymnastics to ensure that the output flag is
	// from a valid set of values. There may be a way to do this more elegantly
	// in the pFlag library
	rootCmd.PersistentFlags().VarP(outputFormat, common.OutputFlagName, common.OutputFlagShort,
		fmt.Sprintf(`Configures the output format.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.OutputConfigPath, strings.Join(outputFormat.Allowed, "|")))
	// -------------------------------------------------------------------------

	rootCmd.PersistentFlags().Var(logLevel, common.LogLevelFlagName,
		fmt.Sprintf(`Configures the logging verbosity.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.LogLevelConfigPath, strings.Join(logLevel.Allowed, "|")))

	return rootCmd
}

var defaultClientFactory cmd.PegasusClientFactory = func(
	cfg config.Hook, logger *slog.Logger,
) (*pegasus.Client, error) {
	baseURL := cfg.GetString(common.BaseURLConfigPath)
	if baseURL == "" {
		baseURL = common.DefaultBaseURL
	}
	timeout := time.Duration(
		cfg.GetIntOrElse(common.RequestTimeoutConfigPath, common.DefaultRequestTimeoutSecs)) * time.Second

	return pegasus.New(baseURL, logger, pegasus.WithTimeout(timeout))
}

// addCommands adds the root subcommands to the command.
func addCommands() error {
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(profilecmd.NewProfileCmd())
	rootCmd.AddCommand(themes.NewThemesCmd())

	c, e := get.NewGetCmd()
	if e != nil {
		return e
	}
	rootCmd.AddCommand(c)

	c, e = dashboard.NewDashboardCmd()
	if e != nil {
		return e
	}
	rootCmd.AddCommand(c)

	return nil
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd = newRootCmd()
	err := addCommands()
	util.CheckError(err)

	// Because the profile is not part of the configuration, we can't use viper
	// to read it following it's built in priorities.  So here we look for a well known
	// profile variable and set our package level variable if it's set before
	// continuing to process the command run.  This creates a ENV_VAR < CLI_FLAG priority
	profileEnvVar, found := os.LookupEnv(fmt.Sprintf("%s_PROFILE", strings.ToUpper(meta.CLIName)))
	if found {
		currProfile = profileEnvVar
	}
}

func initConfig() {
	cfg, e1 := config.GetConfig(configFilePath, currProfile, config.ExpandDefaultConfigFilePath())
	util.CheckError(e1)
	currConfig = cfg

	pMgr = profile.NewManager(cfg.Viper)

	f := rootCmd.Flags().Lookup(common.OutputFlagName)
	util.CheckError(cfg.BindFlag(common.OutputConfigPath, f))

	f = rootCmd.Flags().Lookup(common.LogLevelFlagName)
	util.CheckError(cfg.BindFlag(common.LogLevelConfigPath, f))

	logger = buildLogger(cfg)

	if err := theme.SetCurrent(cfg.GetString(common.ThemeConfigPath)); err != nil {
		logger.Warn("falling back to the default color theme", "error", err.Error())
	}
}

// buildLogger writes structured records to a log file next to the config file
// and mirrors error level records to stderr. Interactive views toggle the
// mirroring off so records do not corrupt the terminal UI.
func buildLogger(cfg config.Hook) *slog.Logger {
	level := log.ConfigLevelStringToSlogLevel(cfg.GetString(common.LogLevelConfigPath))

	replaceLevel := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.LevelKey {
			if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == log.LevelTrace {
				a.Value = slog.StringValue("TRACE")
			}
		}
		return a
	}

	var primary slog.Handler
	logPath := filepath.Join(filepath.Dir(cfg.GetPath()), meta.CLIName+".log")
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err == nil {
		primary = slog.NewJSONHandler(logFile, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: replaceLevel,
		})
	}

	secondary := slog.NewTextHandler(streams.ErrOut, &slog.HandlerOptions{
		Level:       slog.LevelError,
		ReplaceAttr: replaceLevel,
	})

	return slog.New(log.NewDualHandler(primary, secondary))
}

func Execute(ctx context.Context, s *iostreams.IOStreams, bi *build.Info) {
	buildInfo = bi
	cobra.EnableTraverseRunHooks = true
	streams = s
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		var executionError *cmd.ExecutionError
		if errors.As(err, &executionError) {
			if logger != nil {
				attrs := append([]any{"error", executionError.Err.Error()}, executionError.Attrs...)
				logger.Error(executionError.Msg, attrs...)
			} else {
				fmt.Fprintln(s.ErrOut, executionError.Msg)
			}
			os.Exit(1)
		}
		var configurationError *cmd.ConfigurationError
		if errors.As(err, &configurationError) {
			os.Exit(2)
		}

		printer, e := cli.Format(outputFormat.String(), s.ErrOut)
		if e == nil {
			printer.Print(err)
			printer.Flush()
		}
		os.Exit(1)
	}
}
