package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/parsegest/internal/app"
	"github.com/dgallion1/parsegest/internal/cli"
	"github.com/dgallion1/parsegest/internal/config"
	"github.com/dgallion1/parsegest/internal/console"
	"github.com/dgallion1/parsegest/internal/mcpserver"
	"github.com/dgallion1/parsegest/internal/pipeline"
	"github.com/dgallion1/parsegest/internal/preprocess"
	"github.com/dgallion1/parsegest/internal/resource"
)

// Global flags
var (
	verbose bool
	params  []string
)

var rootCmd = &cobra.Command{
	Use:           "parsegest",
	Short:         "Parse structured sources into typed objects",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv()
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>...",
	Short: "Parse files and print the resulting objects",
	Long: `Parse files and print the resulting objects.

The target type is picked from each file's extension unless --type is given.

Examples:
  parsegest parse db.changelog.yaml
  parsegest parse data.csv --output yaml
  parsegest parse db.changelog.yaml --param schema=public --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typeName, _ := cmd.Flags().GetString("type")
		output, _ := cmd.Flags().GetString("output")
		watch, _ := cmd.Flags().GetBool("watch")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		files, err := absPaths(args)
		if err != nil {
			return err
		}
		f, err := newFactory()
		if err != nil {
			return err
		}

		run := func(files []string) error {
			return cli.WriteResults(cmd.OutOrStdout(), cmd.ErrOrStderr(), cli.ParseFiles(ctx, f, files, typeName), output)
		}
		err = run(files)
		if !watch {
			return err
		}
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), console.FormatWarningMessage(err.Error()))
		}

		fmt.Fprintln(cmd.ErrOrStderr(), console.FormatInfoMessage("Watching for file changes. Press Ctrl+C to stop."))
		return cli.Watch(ctx, files, cli.DebounceDelay, func(changed []string) {
			if err := run(changed); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), console.FormatWarningMessage(err.Error()))
			}
		})
	},
}

var executeSQLCmd = &cobra.Command{
	Use:   "execute-sql",
	Short: "Run a SQL script in one transaction and print what each statement did",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		opts := cli.SQLOptions{Driver: cfg.SQLDriver, DSN: cfg.SQLDSN, Delimiter: cfg.SQLDelimiter, StripComments: cfg.SQLStripComments}
		opts.SQL, _ = cmd.Flags().GetString("sql")
		opts.SQLFile, _ = cmd.Flags().GetString("sql-file")
		if _, err := os.Stat(opts.SQLFile); opts.SQLFile != "" && err == nil {
			opts.SQLFile, _ = filepath.Abs(opts.SQLFile)
		}
		if cmd.Flags().Changed("driver") {
			opts.Driver, _ = cmd.Flags().GetString("driver")
		}
		if cmd.Flags().Changed("dsn") {
			opts.DSN, _ = cmd.Flags().GetString("dsn")
		}
		if cmd.Flags().Changed("delimiter") {
			opts.Delimiter, _ = cmd.Flags().GetString("delimiter")
		}
		if cmd.Flags().Changed("strip-comments") {
			opts.StripComments, _ = cmd.Flags().GetBool("strip-comments")
		}

		p, err := cliParams()
		if err != nil {
			return err
		}
		opts.Params = p

		log := newLogger()
		out, err := cli.ExecuteSQL(cmd.Context(), opts, cliResources(cfg, log), log)
		fmt.Fprint(cmd.OutOrStdout(), out)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), console.FormatSuccessMessage("SQL executed and committed"))
		return nil
	},
}

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List registered parsers, preprocessors, mappings and postprocessors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := newFactory()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), cli.RenderPlugins(f.Plugins()))
		return nil
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the parse tools over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := newLogger()
		f, err := app.NewFactory(cfg, app.Resources(cfg, log), nil, log)
		if err != nil {
			return err
		}
		return mcpserver.NewServer(f, app.Version).Serve(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), console.FormatInfoMessage("parsegest version "+app.Version))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline stages to stderr")
	rootCmd.PersistentFlags().StringArrayVarP(&params, "param", "p", nil, "Set a ${name} parameter (key=value, repeatable)")

	parseCmd.Flags().StringP("type", "t", "", "Target type (changelog, document, table, script, any)")
	parseCmd.Flags().StringP("output", "o", "json", "Output format (json, yaml)")
	parseCmd.Flags().BoolP("watch", "w", false, "Re-parse files when they change")

	executeSQLCmd.Flags().String("sql", "", "SQL to execute")
	executeSQLCmd.Flags().String("sql-file", "", "File holding the SQL to execute")
	executeSQLCmd.Flags().String("delimiter", "", "Statement delimiter (default \";\")")
	executeSQLCmd.Flags().String("driver", "", "database/sql driver name")
	executeSQLCmd.Flags().String("dsn", "", "Data source name")
	executeSQLCmd.Flags().Bool("strip-comments", true, "Remove comments before executing")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(executeSQLCmd)
	rootCmd.AddCommand(pluginsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

func newLogger() *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func cliParams() (preprocess.Parameters, error) {
	return cli.ParseParams(params)
}

// cliResources resolves absolute paths on the local disk, then the remote
// resource service when one is configured.
func cliResources(cfg config.Config, log *slog.Logger) resource.SearchPath {
	path := resource.SearchPath{resource.Dir("/")}
	if cfg.RemoteResourceURL != "" {
		path = append(path, resource.NewHTTP(cfg.RemoteResourceURL, cfg.RemoteResourceAPIKey, log))
	}
	return path
}

func newFactory() (*pipeline.Factory, error) {
	cfg := config.Load()
	p, err := cliParams()
	if err != nil {
		return nil, err
	}
	log := newLogger()
	return app.NewFactory(cfg, cliResources(cfg, log), p, log)
}

func absPaths(args []string) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		abs, err := filepath.Abs(a)
		if err != nil {
			return nil, err
		}
		out[i] = abs
	}
	return out, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		os.Exit(1)
	}
}
