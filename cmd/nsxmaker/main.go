package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"nsx-policy-maker/internal/config"
	"nsx-policy-maker/internal/output"
	"nsx-policy-maker/internal/parser"
	"nsx-policy-maker/internal/shortcut"
)

// app carries the settings of one invocation from the root command to its
// subcommands.
type app struct {
	configPath string
	cfg        config.Config
	overwrite  output.OverwritePolicy
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "nsxmaker",
		Short: "Generate NSX-T Terraform configuration from spreadsheets",
		Long: `nsxmaker reads firewall policy workbooks and IP set sheets and writes
Terraform configuration for the NSX-T provider: security policies as .tf.json
documents and shared IP sets as HCL.`,
		PersistentPreRunE: a.setup,
	}

	def := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default: ./nsxmaker.toml when present)")
	pf.String("input-dir", def.InputDir, "Directory input file names are resolved in")
	pf.String("output-dir", def.OutputDir, "Directory for single policies and IP sets")
	pf.String("applications-dir", def.ApplicationsDir, "Directory for batch policy folders")
	pf.String("overwrite", def.Overwrite, "Existing output files: 'prompt', 'always' or 'never'")
	pf.String("provider", def.Provider, "Input provider: 'file' or 'mariadb'")
	pf.String("dsn", "", "Database connection string (for 'mariadb' provider)")
	pf.String("log-level", def.Log.Level, "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "Log file path (default: stderr)")
	pf.String("log-format", def.Log.Format, "Log format: 'json' or 'text'")

	rootCmd.AddCommand(newPolicyCmd(a), newBatchCmd(a), newIPSetCmd(a))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup runs after argument validation, so usage is only printed for
// argument errors.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	slog.SetDefault(setupLogger(cfg.Log.Level, cfg.Log.File, cfg.Log.Format))

	a.overwrite, err = output.ParsePolicy(cfg.Overwrite, cmd.InOrStdin(), cmd.OutOrStdout())
	return err
}

func setupLogger(level, logFilePath, format string) *slog.Logger {
	var logWriter io.Writer = os.Stderr
	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			logWriter = f
		}
		// The logger is not set up yet, so a failed open silently falls back to stderr.
	}

	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "INFO":
		lvl = slog.LevelInfo
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	if strings.EqualFold(format, "text") {
		return slog.New(log.NewWithOptions(logWriter, log.Options{
			Level:           log.Level(lvl),
			ReportTimestamp: true,
		}))
	}
	return slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: lvl}))
}

// openSource returns the provider the run reads from and the name to read.
// File inputs are resolved under the input directory, following shortcuts.
func (a *app) openSource(name string) (parser.Source, string, func(), error) {
	switch a.cfg.Provider {
	case config.ProviderFile:
		path, err := resolveInput(a.cfg.InputDir, name)
		if err != nil {
			return nil, "", nil, err
		}
		return parser.FileSource{}, path, func() {}, nil
	case config.ProviderMariaDB:
		src, err := parser.NewMariaDBSource(a.cfg.DSN)
		if err != nil {
			return nil, "", nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return src, name, src.Close, nil
	default:
		return nil, "", nil, fmt.Errorf("unknown input provider: %s", a.cfg.Provider)
	}
}

func resolveInput(dir, name string) (string, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, name)
	}
	if err := exists(path); err != nil {
		return "", err
	}

	if shortcut.IsShortcut(path) {
		slog.Info("Detected shortcut file, resolving target", "path", path)
		target, err := shortcut.Resolve(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve shortcut: %w", err)
		}
		if err := exists(target); err != nil {
			return "", fmt.Errorf("shortcut target: %w", err)
		}
		slog.Info("Resolved shortcut", "target", target)
		path = target
	}

	if _, err := parser.DetectFormat(path); err != nil {
		return "", err
	}
	return path, nil
}

func exists(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", parser.ErrInputNotFound, path)
		}
		return err
	}
	return nil
}

// fileName keeps a policy name from escaping its output directory.
func fileName(name string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(name)
}
