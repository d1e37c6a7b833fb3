// Package lint checks a Browserslist query set for common configuration
// mistakes and renders the problems it finds.
package lint

import (
	"context"

	"github.com/wizzomafizzo/browserslist-lint/internal/logging"
)

// Kind identifies the type of a parsed query clause.
type Kind string

// Query kinds understood by the rules. Providers may emit other kinds; rules
// treat them as non-matching.
const (
	KindLastVersions             Kind = "last_versions"
	KindLastMajorVersions        Kind = "last_major_versions"
	KindLastBrowserVersions      Kind = "last_browser_versions"
	KindLastBrowserMajorVersions Kind = "last_browser_major_versions"
	KindUnreleasedVersions       Kind = "unreleased_versions"
	KindUnreleasedBrowserVersion Kind = "unreleased_browser_versions"
	KindPopularity               Kind = "popularity"
	KindPopularityInRegion       Kind = "popularity_in_region"
	KindPopularityInMyStats      Kind = "popularity_in_my_stats"
	KindFirefoxESR               Kind = "firefox_esr"
	KindDead                     Kind = "dead"
	KindDefaults                 Kind = "defaults"
	KindBrowserVersion           Kind = "browser_version"
	KindBrowserRange             Kind = "browser_range"
	KindBrowserRay               Kind = "browser_ray"
)

// Query is a single parsed clause of a query set.
type Query struct {
	Kind    Kind
	Not     bool
	Browser string
	Version string
	// Raw is the clause as written, including a leading "not".
	Raw string
}

// Options are handed to the provider untouched.
type Options struct {
	Config string `yaml:"config"`
	Env    string `yaml:"env"`
	Stats  string `yaml:"stats"`
}

// Problem is a single finding reported by a rule.
type Problem struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Fixed   string `json:"fixed,omitempty"`
}

// Provider supplies parsing, resolution and usage statistics.
type Provider interface {
	// Parse splits and classifies the query set.
	Parse(queries []string, opts Options) ([]Query, error)
	// Resolve returns the "<name> <version>" pairs selected by the query set.
	Resolve(queries []string, opts Options) ([]string, error)
	// Coverage returns the share of region usage covered by browsers.
	Coverage(browsers []string, region string) float64
	// Usage returns per-browser usage for a region keyed by "<name> <version>".
	Usage(region string) map[string]float64
	// Normalize maps a browser name or alias to its canonical name.
	Normalize(browser string) string
}

// Context is the read-only input shared by every rule during one call.
type Context struct {
	Provider Provider
	Queries  []Query
	Browsers []string
	// Dead is the set of pairs selected by the "dead" query.
	Dead map[string]bool
	// Options are the provider options of the run, for rules that resolve
	// the queries they suggest.
	Options Options
}

// Linter runs the registered rules against query sets.
type Linter struct {
	provider Provider
	rules    []Rule
}

// New creates a linter backed by provider with the default rule set.
func New(provider Provider) *Linter {
	return &Linter{
		provider: provider,
		rules:    DefaultRules(),
	}
}

// Rules returns the registered rules in evaluation order.
func (l *Linter) Rules() []Rule {
	rules := make([]Rule, len(l.rules))
	copy(rules, l.rules)
	return rules
}

// Lint evaluates queries and returns problems in rule order. Provider errors
// are returned as is.
func (l *Linter) Lint(ctx context.Context, queries []string, opts Options) ([]Problem, error) {
	logger := logging.Get(ctx)

	parsed, err := l.provider.Parse(queries, opts)
	if err != nil {
		return nil, err //nolint:wrapcheck // provider errors are user-facing as is
	}

	// Resolve what was parsed so a discovered config is read only once.
	var browsers []string
	if len(parsed) > 0 {
		browsers, err = l.provider.Resolve(rawClauses(parsed), opts)
		if err != nil {
			return nil, err //nolint:wrapcheck // provider errors are user-facing as is
		}
	}

	dead, err := l.provider.Resolve([]string{"dead"}, opts)
	if err != nil {
		return nil, err //nolint:wrapcheck // provider errors are user-facing as is
	}

	lintCtx := &Context{
		Provider: l.provider,
		Queries:  parsed,
		Browsers: browsers,
		Dead:     make(map[string]bool, len(dead)),
		Options:  opts,
	}
	for _, browser := range dead {
		lintCtx.Dead[browser] = true
	}

	problems := make([]Problem, 0, len(l.rules))
	for _, rule := range l.rules {
		problem, found := rule.Check(lintCtx)
		logger.Debug().
			Str("rule", rule.ID()).
			Bool("found", found).
			Msg("rule evaluated")
		if found {
			problems = append(problems, problem)
		}
	}

	logger.Info().
		Int("queries", len(parsed)).
		Int("browsers", len(browsers)).
		Int("problems", len(problems)).
		Msg("lint finished")

	return problems, nil
}
