package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/lu-zhengda/reclaim/internal/cancel"
	"github.com/lu-zhengda/reclaim/internal/cleanup"
	"github.com/lu-zhengda/reclaim/internal/config"
	"github.com/lu-zhengda/reclaim/internal/engine"
	"github.com/lu-zhengda/reclaim/internal/history"
	"github.com/lu-zhengda/reclaim/internal/ignore"
	"github.com/lu-zhengda/reclaim/internal/logging"
	"github.com/lu-zhengda/reclaim/internal/mounts"
	"github.com/lu-zhengda/reclaim/internal/safety"
	"github.com/lu-zhengda/reclaim/internal/scanner"
	"github.com/lu-zhengda/reclaim/internal/trash"
	"github.com/lu-zhengda/reclaim/internal/utils"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	yesFlag    bool
	jsonFlag   bool
	configPath string
	logLevel   string

	appConfig *config.Config
	appLogger = zerolog.Nop()
	appIgnore *ignore.Manager
	logCloser io.Closer

	// Set via ldflags at build time.
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:     "reclaim",
	Short:   "Find duplicate files and reclaim disk space safely",
	Long:    "reclaim walks a directory tree, reports duplicate and large files, and deletes\nwhat you pick through the Trash with a safety check on every path.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Flags().Changed("version") {
			appConfig = config.Default()
			return nil
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		appConfig = cfg

		level := appConfig.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		logger, closer, err := logging.New(logging.Options{
			Level:   level,
			File:    utils.ExpandPath(appConfig.Log.File),
			Console: os.Stderr,
		})
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		appLogger = logger
		logCloser = closer

		for _, w := range appConfig.Validate() {
			appLogger.Warn().Str("field", w.Field).Msg(w.Message)
		}

		mgr, err := ignore.Load(ignore.DefaultPath(), appConfig.Exclude)
		if err != nil {
			return fmt.Errorf("failed to load ignore patterns: %w", err)
		}
		appIgnore = mgr
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser == nil {
			return nil
		}
		return logCloser.Close()
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("reclaim %s\n", version))
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.config/reclaim/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(dupesCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(ignoreCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(configCmd)
}

// RootCmd returns the root cobra command for documentation generation.
func RootCmd() *cobra.Command {
	return rootCmd
}

func currentConfig() *config.Config {
	if appConfig == nil {
		appConfig = config.Default()
	}
	return appConfig
}

func pathValidator() *safety.PathValidator {
	return safety.NewPathValidator(safety.DefaultRules(utils.HomeDir()), appLogger)
}

func buildEngine() *engine.Engine {
	cfg := currentConfig()
	opts := engine.Options{
		Validator:         pathValidator(),
		Mounts:            mounts.Default(),
		Logger:            appLogger,
		ProgressEvery:     cfg.Scan.ProgressEvery,
		LargeDirThreshold: cfg.Scan.LargeDirThreshold,
		MinDuplicateSize:  cfg.Scan.MinDuplicateSize,
		LargeFileMin:      cfg.Scan.LargeFileMin,
		HashWorkers:       cfg.Scan.HashWorkers,
	}
	// A nil *ignore.Manager stored in the interface would not compare
	// equal to nil inside the walker.
	if appIgnore != nil {
		opts.Ignore = appIgnore
	}
	e := engine.New(opts)
	e.Register(func() engine.Collector { return scanner.NewCollector() })
	return e
}

func auditLog() *history.Log {
	path := utils.ExpandPath(currentConfig().AuditLog)
	if path == "" {
		path = history.DefaultPath()
	}
	return history.NewOS(path, appLogger)
}

func buildCleanupService(token *cancel.Token) *cleanup.Service {
	cfg := currentConfig()
	exec := cleanup.NewExecutor(trash.Default(), auditLog(), appLogger)
	exec.Token = token
	exec.VerifyDelay = cfg.Cleanup.VerifyDelayDuration(cleanup.DefaultVerifyDelay)
	exec.RetryBackoff = cfg.Cleanup.RetryBackoffDuration(cleanup.DefaultRetryBackoff)
	if cfg.Cleanup.CloudRetries > 0 {
		exec.CloudRetries = cfg.Cleanup.CloudRetries
	}
	return cleanup.NewService(safety.NewDeletionValidator(pathValidator()), exec)
}

// interruptToken returns a token that is cancelled on SIGINT. The stop
// function releases the signal handler.
func interruptToken(ctx context.Context) (*cancel.Token, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt)
	token := cancel.New()
	unbind := token.Bind(ctx)
	return token, func() {
		unbind()
		stopSignals()
	}
}
