package lint

import (
	"fmt"
	"slices"
	"strings"
)

const (
	// LimitedBrowsersCount is the minimum number of distinct browsers a
	// config made only of browser-specific queries should name.
	LimitedBrowsersCount = 7

	// CountryMinCoverage is the minimum acceptable coverage, in percent, of a
	// region's tracked browser usage.
	CountryMinCoverage = 80

	// CountryFixQuery is the popularity query suggested for poorly covered
	// regions.
	CountryFixQuery = ">0.3%"

	// BaselineFixQuery is the broad query suggested for vendor-limited configs.
	BaselineFixQuery = "last 2 versions, not dead"

	// maxListedRegions is how many failing regions are named before the rest
	// are summarized as a count.
	maxListedRegions = 5
)

// Rule ids in evaluation order.
const (
	MissedNotDeadID     = "missedNotDead"
	LimitedBrowsersID   = "limitedBrowsers"
	CountryWasIgnoredID = "countryWasIgnored"
	AlreadyDeadID       = "alreadyDead"
)

// Rule is a single independent check. Check reports at most one problem.
type Rule interface {
	ID() string
	Check(ctx *Context) (Problem, bool)
}

// DefaultRules returns the built-in rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		missedNotDeadRule{},
		limitedBrowsersRule{},
		countryWasIgnoredRule{},
		alreadyDeadRule{},
	}
}

type missedNotDeadRule struct{}

func (missedNotDeadRule) ID() string { return MissedNotDeadID }

func (r missedNotDeadRule) Check(ctx *Context) (Problem, bool) {
	hasLast := false
	for _, query := range ctx.Queries {
		if isLastKind(query.Kind) {
			hasLast = true
			break
		}
	}
	if !hasLast || hasNotDead(ctx.Queries) {
		return Problem{}, false
	}

	return Problem{
		ID:      r.ID(),
		Message: "The `not dead` query skipped when using `last N versions` query",
		Fixed:   joinClauses(append(rawClauses(ctx.Queries), "not dead")),
	}, true
}

type limitedBrowsersRule struct{}

func (limitedBrowsersRule) ID() string { return LimitedBrowsersID }

func (r limitedBrowsersRule) Check(ctx *Context) (Problem, bool) {
	if len(ctx.Queries) == 0 {
		return Problem{}, false
	}

	browsers := make(map[string]struct{})
	for _, query := range ctx.Queries {
		if !isBrowserScoped(query.Kind) {
			return Problem{}, false
		}
		browsers[ctx.Provider.Normalize(query.Browser)] = struct{}{}
	}
	if len(browsers) >= LimitedBrowsersCount {
		return Problem{}, false
	}

	return Problem{
		ID:      r.ID(),
		Message: "Given config is narrowly limited for specific vendors",
		Fixed:   joinClauses(append(rawClauses(ctx.Queries), BaselineFixQuery)),
	}, true
}

type countryWasIgnoredRule struct{}

func (countryWasIgnoredRule) ID() string { return CountryWasIgnoredID }

func (r countryWasIgnoredRule) Check(ctx *Context) (Problem, bool) {
	failing := failingRegions(ctx.Provider, ctx.Browsers)
	if len(failing) == 0 {
		return Problem{}, false
	}

	return Problem{
		ID: r.ID(),
		Message: fmt.Sprintf("Less than %d%% coverage in %s regions",
			CountryMinCoverage, joinList(failing, maxListedRegions)),
		Fixed: joinClauses(countryFix(ctx)),
	}, true
}

// failingRegions names the regions where browsers cover less than
// CountryMinCoverage of the tracked usage.
func failingRegions(provider Provider, browsers []string) []string {
	tracked := trackedBrowsers(provider, browsers)
	if len(tracked) == 0 {
		return nil
	}

	var failing []string
	for _, region := range Regions {
		total := totalUsage(provider.Usage(region.Code))
		if total <= 0 {
			continue
		}
		coverage := provider.Coverage(tracked, region.Code)
		if coverage*(100/total) < CountryMinCoverage {
			failing = append(failing, region.Name)
		}
	}
	return failing
}

// countryFix adds CountryFixQuery ahead of the first exclusion when the
// result covers every region, and after the exclusions otherwise so they
// cannot remove the browsers it adds.
func countryFix(ctx *Context) []string {
	candidates := countryFixCandidates(ctx.Queries)
	for _, candidate := range candidates {
		browsers, err := ctx.Provider.Resolve([]string{joinClauses(candidate)}, ctx.Options)
		if err == nil && len(failingRegions(ctx.Provider, browsers)) == 0 {
			return candidate
		}
	}
	return candidates[0]
}

// countryFixCandidates drops any existing CountryFixQuery clause and places
// it once, before the first negation and at the end.
func countryFixCandidates(queries []Query) [][]string {
	kept := make([]Query, 0, len(queries))
	for _, query := range queries {
		if !isCountryFix(query) {
			kept = append(kept, query)
		}
	}

	before := insertBeforeNegations(kept, CountryFixQuery)
	after := append(rawClauses(kept), CountryFixQuery)
	if slices.Equal(before, after) {
		return [][]string{before}
	}
	return [][]string{before, after}
}

func isCountryFix(query Query) bool {
	return !query.Not && strings.ReplaceAll(query.Raw, " ", "") == CountryFixQuery
}

type alreadyDeadRule struct{}

func (alreadyDeadRule) ID() string { return AlreadyDeadID }

func (r alreadyDeadRule) Check(ctx *Context) (Problem, bool) {
	var source string
	switch {
	case hasNotDead(ctx.Queries):
		source = "not dead"
	case hasDefaults(ctx.Queries):
		source = "defaults"
	default:
		return Problem{}, false
	}

	var redundant []string
	kept := make([]string, 0, len(ctx.Queries))
	for _, query := range ctx.Queries {
		if query.Not && query.Kind == KindBrowserVersion {
			name := ctx.Provider.Normalize(query.Browser) + " " + query.Version
			if ctx.Dead[name] {
				redundant = append(redundant, "`"+query.Raw+"`")
				continue
			}
		}
		kept = append(kept, query.Raw)
	}
	if len(redundant) == 0 {
		return Problem{}, false
	}

	return Problem{
		ID:      r.ID(),
		Message: fmt.Sprintf("%s already in `%s`", joinList(redundant, len(redundant)), source),
		Fixed:   joinClauses(kept),
	}, true
}

func isLastKind(kind Kind) bool {
	switch kind {
	case KindLastVersions, KindLastMajorVersions,
		KindLastBrowserVersions, KindLastBrowserMajorVersions:
		return true
	default:
		return false
	}
}

func isBrowserScoped(kind Kind) bool {
	switch kind {
	case KindLastBrowserVersions, KindLastBrowserMajorVersions, KindUnreleasedBrowserVersion,
		KindBrowserRange, KindBrowserVersion, KindBrowserRay:
		return true
	default:
		return false
	}
}

func hasNotDead(queries []Query) bool {
	for _, query := range queries {
		if query.Kind == KindDead && query.Not {
			return true
		}
	}
	return false
}

func hasDefaults(queries []Query) bool {
	for _, query := range queries {
		if query.Kind == KindDefaults && !query.Not {
			return true
		}
	}
	return false
}

// trackedBrowsers drops browsers that no reference region has usage data
// for, such as Node.js.
func trackedBrowsers(provider Provider, browsers []string) []string {
	tracked := make(map[string]bool)
	for _, region := range Regions {
		for key := range provider.Usage(region.Code) {
			tracked[browserName(key)] = true
		}
	}

	kept := make([]string, 0, len(browsers))
	for _, browser := range browsers {
		if tracked[browserName(browser)] {
			kept = append(kept, browser)
		}
	}
	return kept
}

func browserName(browser string) string {
	name, _, _ := strings.Cut(browser, " ")
	return name
}

func totalUsage(usage map[string]float64) float64 {
	total := 0.0
	for _, share := range usage {
		total += share
	}
	return total
}

func rawClauses(queries []Query) []string {
	clauses := make([]string, 0, len(queries)+1)
	for _, query := range queries {
		clauses = append(clauses, query.Raw)
	}
	return clauses
}

// insertBeforeNegations places clause ahead of the first negated query so
// that exclusions still apply to it.
func insertBeforeNegations(queries []Query, clause string) []string {
	clauses := make([]string, 0, len(queries)+1)
	inserted := false
	for _, query := range queries {
		if query.Not && !inserted {
			clauses = append(clauses, clause)
			inserted = true
		}
		clauses = append(clauses, query.Raw)
	}
	if !inserted {
		clauses = append(clauses, clause)
	}
	return clauses
}

func joinClauses(clauses []string) string {
	return strings.Join(clauses, ", ")
}

// joinList renders items as "a, b, and c", naming at most limit items and
// summarizing the remainder as "<k> more".
func joinList(items []string, limit int) string {
	if len(items) > limit {
		return strings.Join(items[:limit], ", ") + fmt.Sprintf(", and %d more", len(items)-limit)
	}
	if len(items) == 1 {
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
}
