package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/NeverVane/historic/internal/apperr"
	"github.com/NeverVane/historic/internal/config"
	"github.com/NeverVane/historic/internal/history"
	"github.com/NeverVane/historic/internal/logger"
	"github.com/NeverVane/historic/internal/output"
	"github.com/NeverVane/historic/internal/sentry"
	"github.com/NeverVane/historic/internal/shell"
	"github.com/NeverVane/historic/internal/storage"
	"github.com/NeverVane/historic/internal/tui"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			sentry.RecoverPanic(r)
			sentry.Flush(2 * time.Second)
			fmt.Fprintf(os.Stderr, "historic encountered a fatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := sentry.Initialize(cfg, version); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize crash reporting: %v\n", err)
	}
	defer sentry.Close()

	if err := initLogger(cfg, false); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	formatter := output.NewFormatter(cfg)
	rootCmd := newRootCmd(cfg, formatter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if k, ok := apperr.KindOf(err); ok && k != apperr.KindTerminalCapability {
			sentry.CaptureError(err, "main", "execute")
		}
		formatter.Error("%s", apperr.UserMessage(err))
		sentry.Flush(2 * time.Second)
		_ = logger.Close()
		os.Exit(1)
	}
}

// initLogger (re)configures the global logger from cfg
func initLogger(cfg *config.Config, verbose bool) error {
	loggerConfig := &logger.Config{
		Level:     cfg.Log.Level,
		Output:    cfg.Log.Output,
		Color:     false,
		Timestamp: cfg.Log.Timestamp,
		Caller:    cfg.Log.Caller,
	}
	if verbose {
		loggerConfig.Level = "debug"
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	return logger.Init(loggerConfig)
}

func newRootCmd(cfg *config.Config, formatter *output.Formatter) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "historic",
		Short: "Per-session shell history with frecency ranking",
		Long: `historic keeps a separate, ranked command history for every terminal
session. A session is the multiplexer pane (tmux or zellij) plus the working
directory, so each project and pane gets its own history.

Running historic with no command opens the interactive selector and prints
the chosen command on stdout.

Get started:
  eval "$(historic init bash)"    Record commands and bind Ctrl+R in bash
  eval "$(historic init zsh)"     Same for zsh`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			noColor, _ := cmd.Flags().GetBool("no-color")
			configPath, _ := cmd.Flags().GetString("config")

			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				*cfg = *loaded
			}

			if configPath != "" || verbose {
				if err := initLogger(cfg, verbose); err != nil {
					return err
				}
			}

			formatter.SetFlags(verbose, noColor)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			noHelp, _ := cmd.Flags().GetBool("no-help")

			return runSelector(cmd.Context(), cfg, formatter, query, !noHelp)
		},
	}

	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.config/historic/config.toml)")

	rootCmd.Flags().StringP("query", "q", "", "Start the selector with this search")
	rootCmd.Flags().Bool("no-help", false, "Hide the key help line")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(addCmd(cfg, formatter))
	rootCmd.AddCommand(initCmd(cfg, formatter))
	rootCmd.AddCommand(listCmd(cfg, formatter))
	rootCmd.AddCommand(sessionCmd(cfg, formatter))
	rootCmd.AddCommand(statusCmd(cfg, formatter))
	rootCmd.AddCommand(versionCmd(formatter))

	return rootCmd
}

// openRecorder opens the history database and returns a recorder over it.
// The caller must call the returned close function.
func openRecorder(ctx context.Context, cfg *config.Config) (*history.Recorder, func(), error) {
	db, err := storage.NewDatabase(cfg, nil)
	if err != nil {
		return nil, nil, apperr.Storage("open database", err)
	}

	store := storage.NewHistoryStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := db.Close(); err != nil {
			logger.GetLogger().Storage().WithError(err).Warn().Msg("Failed to close database")
		}
	}
	return history.NewRecorder(store), closeFn, nil
}

func currentSession(ctx context.Context, cfg *config.Config) (shell.SessionID, shell.Context, error) {
	capture := shell.NewContextCapture(cfg.GetTmuxTimeout())
	return shell.NewSessionManager(capture).Current(ctx)
}

func runSelector(ctx context.Context, cfg *config.Config, formatter *output.Formatter, query string, showHelp bool) error {
	sid, _, err := currentSession(ctx, cfg)
	if err != nil {
		return err
	}

	recorder, closeDB, err := openRecorder(ctx, cfg)
	if err != nil {
		return err
	}
	records, err := recorder.List(ctx, string(sid))
	closeDB()
	if err != nil {
		return err
	}

	selection, ok, err := tui.Run(ctx, history.Commands(records), tui.Options{
		Threshold:       cfg.TUI.FuzzyThreshold,
		MaxVisible:      cfg.TUI.MaxVisible,
		ShowHelp:        showHelp && cfg.TUI.ShowHelp,
		ColorScheme:     cfg.TUI.ColorScheme,
		InitialQuery:    query,
		ShutdownTimeout: cfg.GetPollInterval(),
	})
	if err != nil {
		return err
	}

	if ok {
		formatter.Println("%s", selection)
	}
	return nil
}

// addCmd records a command; the shell hooks call it after every prompt
func addCmd(cfg *config.Config, formatter *output.Formatter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <command>...",
		Short: "Record a command in the current session",
		Long: `Record a command in the current session. Every argument is part of the
command, including ones that look like flags:

  historic add git commit --amend`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			command := strings.Join(args, " ")
			if strings.TrimSpace(command) == "" {
				return nil
			}

			sid, _, err := currentSession(ctx, cfg)
			if err != nil {
				return err
			}

			recorder, closeDB, err := openRecorder(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			res, err := recorder.Record(ctx, string(sid), command)
			if err != nil {
				return err
			}

			formatter.Info("%s %q with rank %d", res.Action, command, res.Rank)
			return nil
		},
	}

	// Flags end at the first command token
	cmd.Flags().SetInterspersed(false)

	return cmd
}

// initCmd prints the integration script for a shell
func initCmd(cfg *config.Config, formatter *output.Formatter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <shell>",
		Short: "Print shell integration code",
		Long: `Print the integration script for bash or zsh. Load it from your shell's rc file:

  eval "$(historic init bash)"

The script records every command through "historic add" and binds Ctrl+R to
the selector.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: cfg.Shell.SupportedShells,
		RunE: func(cmd *cobra.Command, args []string) error {
			hm, err := shell.NewHookManager(cfg.Shell.SupportedShells)
			if err != nil {
				return err
			}

			script, err := hm.GenerateHooks(args[0])
			if err != nil {
				return err
			}

			formatter.Println("%s", strings.TrimRight(script, "\n"))
			return nil
		},
	}

	return cmd
}

// listCmd prints the current session's records, highest rank first
func listCmd(cfg *config.Config, formatter *output.Formatter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the current session's history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			limit, _ := cmd.Flags().GetInt("limit")

			sid, _, err := currentSession(ctx, cfg)
			if err != nil {
				return err
			}

			recorder, closeDB, err := openRecorder(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			records, err := recorder.List(ctx, string(sid))
			if err != nil {
				return err
			}

			if len(records) == 0 {
				formatter.Warning("No history for this session")
				return nil
			}

			shown := 0
			for i := len(records) - 1; i >= 0; i-- {
				if limit > 0 && shown == limit {
					break
				}
				r := records[i]
				when := r.Timestamp
				if t, err := r.LastUsed(); err == nil {
					when = t.Local().Format("2006-01-02 15:04")
				}
				formatter.Println("%6d  %s  %s", r.Rank, when, r.Cmd)
				shown++
			}
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 0, "Show at most n commands (0 for all)")

	return cmd
}

// sessionCmd shows how the current terminal is fingerprinted
func sessionCmd(cfg *config.Config, formatter *output.Formatter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show the current session fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, tc, err := currentSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			formatter.Println("%s", sid)
			formatter.Info("%s", tc)
			return nil
		},
	}

	return cmd
}

// statusCmd reports the database schema and runs an integrity check
func statusCmd(cfg *config.Config, formatter *output.Formatter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the history database",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.NewDatabase(cfg, nil)
			if err != nil {
				return apperr.Storage("open database", err)
			}
			defer db.Close()

			st, err := db.Status(cmd.Context())
			if err != nil {
				return apperr.Storage("read database status", err)
			}

			formatter.Println("Database:       %s", st.Path)
			formatter.Println("Schema version: %d", st.Version)
			for _, v := range st.History {
				applied := time.UnixMilli(v.AppliedAt).Local().Format("2006-01-02 15:04")
				formatter.Println("  v%d  %s  %s", v.Version, applied, v.Description)
			}

			if st.Integrity != nil {
				return apperr.Storage("check integrity", st.Integrity)
			}
			formatter.Success("Integrity check passed")
			return nil
		},
	}

	return cmd
}

func versionCmd(formatter *output.Formatter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter.Println("historic %s", version)
			formatter.Println("  Commit:     %s", commit)
			formatter.Println("  Built:      %s", date)
			formatter.Println("  OS/Arch:    %s/%s", runtime.GOOS, runtime.GOARCH)
			formatter.Println("  Go Version: %s", runtime.Version())
			return nil
		},
	}

	return cmd
}
