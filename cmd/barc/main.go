package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"barc/internal/app"
	"barc/internal/barc"
	"barc/internal/config"
)

// usageError marks invalid invocations. They exit with status 2.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var uerr *usageError
	if errors.As(err, &uerr) {
		os.Exit(2)
	}
	os.Exit(1)
}

// loadConfig reads the config named by --config, or the default location.
// A missing file yields the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	path := defaults["config_path"]
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		path = p
	}

	cfg, err := config.Load(path, defaults["base_dir"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, path, nil
}

// newApp loads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "backup", "extract").
func newApp(cmd *cobra.Command, cfg *config.Config, operation string) (*app.App, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	a, err := app.New(cfg, operation, app.Options{Verbose: verbose, Console: cmd.ErrOrStderr()})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// passphraseFromFlags returns the --passphrase value, or prompts for one when
// --ask-passphrase is set. confirm asks a second time and requires a match.
func passphraseFromFlags(cmd *cobra.Command, confirm bool) (string, error) {
	passphrase, _ := cmd.Flags().GetString("passphrase")
	ask, _ := cmd.Flags().GetBool("ask-passphrase")

	if ask && cmd.Flags().Changed("passphrase") {
		return "", usagef("--passphrase and --ask-passphrase cannot be used together")
	}
	if !ask {
		return passphrase, nil
	}
	return promptPassphrase(confirm)
}

var rootCmd = &cobra.Command{
	Use:           "barc",
	Short:         "Back up files and directories into compressed, encrypted archives",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		path := defaults["config_path"]
		if p, _ := cmd.Flags().GetString("config"); p != "" {
			path = p
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(path, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", path)
		fmt.Printf("Log Dir: %s\n", cfg.LogDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	Args:  noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Destination:  %s\n", orNone(cfg.Destination))
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Scratch Dir:  %s\n", orNone(cfg.ScratchDir))
		fmt.Printf("Ignore:       %v\n", cfg.Ignore)
		fmt.Printf("Compression:  %s\n", cfg.Archive.Compression)
		fmt.Printf("Encryption:   %s (scrypt work factor %d)\n", cfg.Encryption.Type, cfg.Encryption.ScryptWorkFactor)
		fmt.Printf("History:      %s\n", cfg.History.Type)
		if cfg.History.Type == "sqlite" {
			fmt.Printf("History Dir:  %s\n", cfg.History.DataDir)
		}
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup SOURCE...",
	Short: "Copy sources into a destination, or pack them into one archive",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return usagef("at least one SOURCE is required")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		destination, _ := cmd.Flags().GetString("destination")
		archive, _ := cmd.Flags().GetBool("archive")
		verbose, _ := cmd.Flags().GetBool("verbose")
		if destination == "" {
			return usagef("--destination is required")
		}

		passphrase, err := passphraseFromFlags(cmd, true)
		if err != nil {
			return err
		}
		if passphrase != "" && !archive && verbose {
			fmt.Fprintln(cmd.ErrOrStderr(), "Warning: passphrase is ignored without --archive")
		}

		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cmd, cfg, "backup")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Backup(cmd.Context(), args, destination, archive, passphrase)
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}

		// Failed sources were already reported by the logger.
		if verbose {
			printBackupSummary(cmd.OutOrStdout(), result)
		}
		return nil
	},
}

// extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Unpack an archive",
	Args:  noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		archivePath, _ := cmd.Flags().GetString("archive-path")
		destination, _ := cmd.Flags().GetString("destination")
		verbose, _ := cmd.Flags().GetBool("verbose")
		if archivePath == "" {
			return usagef("--archive-path is required")
		}

		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if destination == "" && cfg.Destination == "" {
			return usagef("--destination is required when the config sets no destination")
		}

		passphrase, err := passphraseFromFlags(cmd, false)
		if err != nil {
			return err
		}

		a, err := newApp(cmd, cfg, "extract")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Extract(cmd.Context(), archivePath, destination, passphrase)
		if err != nil {
			if errors.Is(err, barc.ErrPassphraseRequired) {
				return fmt.Errorf("extract failed: %w (use --passphrase or --ask-passphrase)", err)
			}
			return fmt.Errorf("extract failed: %w", err)
		}

		if verbose {
			out := cmd.OutOrStdout()
			for _, root := range result.Roots {
				fmt.Fprintf(out, "Extracted %s\n", filepath.Join(result.Destination, root))
			}
			fmt.Fprintf(out, "Restored %d file(s) in %d director(ies)\n", result.Files, result.Dirs)
		}
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archives in a destination",
	Args:  noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		destination, _ := cmd.Flags().GetString("destination")

		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if destination == "" {
			destination = cfg.Destination
		}
		if destination == "" {
			return usagef("--destination is required when the config sets no destination")
		}

		a, err := newApp(cmd, cfg, "list")
		if err != nil {
			return err
		}
		defer a.Close()

		archives, err := a.ListArchives(destination)
		if err != nil {
			return err
		}

		if len(archives) == 0 {
			fmt.Println("No archives found.")
			return nil
		}

		for _, ar := range archives {
			lock := " "
			if ar.Encrypted {
				lock = "E"
			}
			fmt.Printf("%s  %s  %10d  %s\n",
				lock,
				ar.CreatedAt.Format("2006-01-02 15:04:05"),
				ar.Size,
				ar.Name,
			)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View backup and extract history",
	Args:  noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			return usagef("--limit must be positive")
		}

		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.History.Type == "none" {
			fmt.Println("History is disabled. Set [history] type = \"sqlite\" in the config to enable it.")
			return nil
		}

		a, err := newApp(cmd, cfg, "history")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.Finished() {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-8s  %s  %-8s  %-8s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
			if op.Error != "" {
				fmt.Printf("    error: %s\n", op.Error)
			}
		}
		return nil
	},
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("%s takes no arguments, got %q", cmd.CommandPath(), args)
	}
	return nil
}

func printBackupSummary(w io.Writer, result *barc.Result) {
	if result.Archive != "" {
		encrypted := ""
		if result.Encrypted {
			encrypted = " (encrypted)"
		}
		fmt.Fprintf(w, "Created archive %s%s\n", result.Archive, encrypted)
	}
	fmt.Fprintf(w, "Backed up %d file(s) in %d director(ies)", result.Report.Files(), result.Report.Dirs())
	if failed := len(result.Report.Failed()); failed > 0 {
		fmt.Fprintf(w, ", %d source(s) failed", failed)
	}
	fmt.Fprintln(w)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	rootCmd.PersistentFlags().String("config", "", "Config file path (default $BARC_CONFIG_PATH or ~/.config/barc.toml)")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)

	rootCmd.AddCommand(backupCmd)
	backupCmd.Flags().StringP("destination", "d", "", "Directory receiving the copy or archive")
	backupCmd.Flags().BoolP("archive", "a", false, "Pack sources into a single archive")
	backupCmd.Flags().StringP("passphrase", "p", "", "Encrypt the archive with this passphrase")
	backupCmd.Flags().Bool("ask-passphrase", false, "Prompt for the passphrase")
	backupCmd.Flags().BoolP("verbose", "v", false, "Show progress and a summary")

	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("archive-path", "f", "", "Archive to unpack")
	extractCmd.Flags().StringP("destination", "d", "", "Directory to unpack into (default from config)")
	extractCmd.Flags().StringP("passphrase", "p", "", "Passphrase of an encrypted archive")
	extractCmd.Flags().Bool("ask-passphrase", false, "Prompt for the passphrase")
	extractCmd.Flags().BoolP("verbose", "v", false, "Show progress and a summary")

	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringP("destination", "d", "", "Directory holding archives (default from config)")

	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of operations to show")
}
