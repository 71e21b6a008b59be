package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/absolutely-right/internal/config"
	"github.com/benvon/absolutely-right/internal/logger"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the backfill command. A positional argument is the
// upload secret and is only accepted together with --upload.
func NewRootCmd() *cobra.Command {
	var (
		jsonOut      bool
		uploadURL    string
		projectsDir  string
		patternsFile string
		debug        bool
	)

	cmd := &cobra.Command{
		Use:   "backfill [--json] [--upload <url> [<secret>]]",
		Short: "Count \"You're absolutely right\" replies in Claude Code logs",
		Long: "Scan every Claude Code project log, count assistant messages matching each pattern per day,\n" +
			"and optionally upload the daily counts to a collector (http(s):// or amqp:// URL).\n" +
			"The secret may also be supplied via ABSOLUTELY_SECRET. A positional secret that equals a\n" +
			"subcommand name (check, help, completion) is read as that subcommand; pass such secrets\n" +
			"through ABSOLUTELY_SECRET instead.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			secret := cfg.UploadSecret
			if len(args) == 1 {
				if uploadURL == "" {
					return fmt.Errorf("unexpected argument %q: a secret requires --upload", args[0])
				}
				secret = args[0]
			}

			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			zapLogger, err := logger.NewCLILogger(debug || cfg.Debug)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync(zapLogger) }()

			opts := Options{
				ProjectsDir:   firstNonEmpty(projectsDir, cfg.ProjectsDir),
				PatternsFile:  firstNonEmpty(patternsFile, cfg.PatternsFile),
				Location:      loc,
				JSON:          jsonOut,
				UploadURL:     strings.TrimSpace(uploadURL),
				Secret:        secret,
				UploadTimeout: cfg.UploadTimeout,
			}
			return Run(cmd.Context(), opts, IO{
				In:  cmd.InOrStdin(),
				Out: cmd.OutOrStdout(),
				Err: cmd.ErrOrStderr(),
			}, zapLogger)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the per-pattern daily counts as JSON")
	cmd.Flags().StringVar(&uploadURL, "upload", "", "Collector URL to upload daily rows to")
	cmd.Flags().StringVar(&projectsDir, "projects", "", "Claude projects directory (default $CLAUDE_PROJECTS or ~/.claude/projects)")
	cmd.Flags().StringVar(&patternsFile, "patterns", "", "YAML file with pattern definitions (default $PATTERNS_FILE or built-in)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging on stderr")

	cmd.AddCommand(NewCheckCmd())

	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
