package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/wizzomafizzo/browserslist-lint/internal/browserdata"
	"github.com/wizzomafizzo/browserslist-lint/internal/config"
	"github.com/wizzomafizzo/browserslist-lint/internal/constants"
	"github.com/wizzomafizzo/browserslist-lint/internal/lint"
	"github.com/wizzomafizzo/browserslist-lint/internal/logging"
	"github.com/wizzomafizzo/browserslist-lint/internal/storage"
)

const description = "Lint your Browserslist config for common mistakes"

type rootFlags struct {
	config string
	env    string
	stats  string
	json   bool
}

// createNewRootCommand creates the single browserslist-lint command for the
// given command line.
func createNewRootCommand(d *deps, args []string) *cobra.Command {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:           "browserslist-lint [QUERIES]",
		Short:         description,
		Long:          description,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, d, args, flags)
		},
	}

	rootCmd.SetOut(d.stdout)
	rootCmd.SetErr(d.stderr)

	rootCmd.Flags().StringVarP(&flags.config, "config", "b", "", "Path to Browserslist config")
	rootCmd.Flags().StringVarP(&flags.env, "env", "e", "", "Browserslist environment")
	rootCmd.Flags().StringVarP(&flags.stats, "stats", "s", "", "Path to custom usage statistics")
	rootCmd.Flags().BoolVar(&flags.json, "json", false, "Print problems as JSON")

	rootCmd.SetVersionTemplate("browserslist-lint {{.Version}}\n")
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s", cmd.Long, cmd.UsageString())
	})
	rootCmd.SetFlagErrorFunc(flagErrorFunc(args))
	rootCmd.SetArgs(args)

	return rootCmd
}

// flagErrorFunc reports bad flags the way the rest of the tool reports
// errors, naming the argument as it was typed in args.
func flagErrorFunc(args []string) func(*cobra.Command, error) error {
	return func(cmd *cobra.Command, err error) error {
		if flag, ok := unknownArgument(err); ok {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "browserslist-lint: Unknown arguments %s.\n\n%s",
				rawArgument(args, flag), cmd.UsageString())
		} else {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "browserslist-lint: %v\n\n%s", err, cmd.UsageString())
		}
		return &ExitError{Code: 1}
	}
}

// unknownArgument extracts the offending flag from a pflag parse error.
func unknownArgument(err error) (string, bool) {
	msg := err.Error()
	if arg, ok := strings.CutPrefix(msg, "unknown flag: "); ok {
		return arg, true
	}
	if strings.HasPrefix(msg, "unknown shorthand flag: ") {
		if i := strings.LastIndex(msg, " in "); i >= 0 {
			return msg[i+len(" in "):], true
		}
	}
	return "", false
}

// rawArgument finds the argument flag came from, so "--fix=true" is
// reported whole rather than as the "--fix" pflag names.
func rawArgument(args []string, flag string) string {
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if arg == flag || strings.HasPrefix(arg, flag+"=") {
			return arg
		}
	}
	return flag
}

func runLint(cmd *cobra.Command, d *deps, args []string, flags rootFlags) error {
	settingsPath := firstNonEmpty(d.settingsPath, storage.New(d.fs).GetSettingsPath())
	settings, err := config.Load(d.fs, settingsPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	level, err := logging.ParseLevel(settings.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}
	ctx, err := logging.New(cmd.Context(), d.fs, logging.Config{
		Writer: d.logWriter,
		File:   settings.Log.File,
		Level:  level,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if noColor := settings.NoColor(color.NoColor); noColor != color.NoColor {
		color.NoColor = noColor
	}

	queries, opts := resolveInputs(d.getenv, args, flags, settings.Defaults)
	logging.Get(ctx).Info().
		Strs("queries", queries).
		Str("config", opts.Config).
		Str("env", opts.Env).
		Bool("json", flags.json).
		Msg("lint run")

	provider, err := browserdata.New(d.fs, browserdata.WithDir(d.dir))
	if err != nil {
		return fmt.Errorf("failed to load browser data: %w", err)
	}

	problems, err := lint.New(provider).Lint(ctx, queries, opts)
	if err != nil {
		var configErr *browserdata.Error
		if errors.As(err, &configErr) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "browserslist-lint: %s\n", configErr.Error())
			return &ExitError{Code: 1}
		}
		return err //nolint:wrapcheck // passed to main unchanged
	}

	if len(problems) == 0 {
		return nil
	}
	if err := printProblems(cmd.OutOrStdout(), problems, flags.json); err != nil {
		return err
	}
	return &ExitError{Code: 1}
}

// resolveInputs picks the query set and provider options. The last
// positional argument wins over BROWSERSLIST; flags win over environment
// variables, which win over the settings file.
func resolveInputs(
	getenv func(string) string, args []string, flags rootFlags, defaults lint.Options,
) ([]string, lint.Options) {
	var queries []string
	if len(args) > 0 {
		queries = []string{stripQuotes(args[len(args)-1])}
	} else if env := getenv(constants.EnvQueries); env != "" {
		queries = []string{env}
	}

	opts := lint.Options{
		Config: firstNonEmpty(stripQuotes(flags.config), getenv(constants.EnvConfig), defaults.Config),
		Env:    firstNonEmpty(stripQuotes(flags.env), getenv(constants.EnvEnv), defaults.Env),
		Stats:  firstNonEmpty(stripQuotes(flags.stats), getenv(constants.EnvStats), defaults.Stats),
	}
	return queries, opts
}

// stripQuotes removes one pair of matching surrounding quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func printProblems(w io.Writer, problems []lint.Problem, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(problems, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode problems: %w", err)
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return fmt.Errorf("failed to write problems: %w", err)
		}
		return nil
	}

	if _, err := fmt.Fprintln(w, lint.FormatReport(problems)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// firstNonEmpty returns the first non-empty value, or "" if all are empty.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
