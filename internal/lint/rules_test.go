package lint

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider serves canned answers so rules can be checked in isolation.
type fakeProvider struct {
	queries    []Query
	browsers   []string
	dead       []string
	usage      map[string]map[string]float64
	aliases    map[string]string
	parseErr   error
	resolveErr error
	// resolved answers specific joined query sets instead of browsers.
	resolved map[string][]string

	mu       sync.Mutex
	resolves [][]string
}

func (f *fakeProvider) Parse([]string, Options) ([]Query, error) {
	return f.queries, f.parseErr
}

func (f *fakeProvider) Resolve(queries []string, _ Options) ([]string, error) {
	f.mu.Lock()
	f.resolves = append(f.resolves, queries)
	f.mu.Unlock()

	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	if len(queries) == 1 && queries[0] == "dead" {
		return f.dead, nil
	}
	if browsers, ok := f.resolved[strings.Join(queries, ", ")]; ok {
		return browsers, nil
	}
	return f.browsers, nil
}

func (f *fakeProvider) resolveCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolves
}

func (f *fakeProvider) Coverage(browsers []string, region string) float64 {
	total := 0.0
	for _, browser := range browsers {
		total += f.usage[region][browser]
	}
	return total
}

func (f *fakeProvider) Usage(region string) map[string]float64 {
	return f.usage[region]
}

func (f *fakeProvider) Normalize(browser string) string {
	name := strings.ToLower(browser)
	if canonical, ok := f.aliases[name]; ok {
		return canonical
	}
	return name
}

func checkRule(t *testing.T, rule Rule, ctx *Context) (Problem, bool) {
	t.Helper()
	if ctx.Provider == nil {
		ctx.Provider = &fakeProvider{}
	}
	return rule.Check(ctx)
}

func TestMissedNotDead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     []Query
		want      Problem
		wantFound bool
	}{
		{
			name:  "last versions without not dead",
			input: []Query{{Kind: KindLastVersions, Raw: "last 2 versions"}},
			want: Problem{
				ID:      MissedNotDeadID,
				Message: "The `not dead` query skipped when using `last N versions` query",
				Fixed:   "last 2 versions, not dead",
			},
			wantFound: true,
		},
		{
			name: "browser major versions",
			input: []Query{
				{Kind: KindLastBrowserMajorVersions, Browser: "firefox", Raw: "last 2 firefox major versions"},
				{Kind: KindBrowserVersion, Not: true, Browser: "firefox", Version: "120", Raw: "not firefox 120"},
			},
			want: Problem{
				ID:      MissedNotDeadID,
				Message: "The `not dead` query skipped when using `last N versions` query",
				Fixed:   "last 2 firefox major versions, not firefox 120, not dead",
			},
			wantFound: true,
		},
		{
			name: "not dead present",
			input: []Query{
				{Kind: KindLastMajorVersions, Raw: "last 2 major versions"},
				{Kind: KindDead, Not: true, Raw: "not dead"},
			},
		},
		{
			name:  "positive dead does not count",
			input: []Query{{Kind: KindLastVersions, Raw: "last 1 version"}, {Kind: KindDead, Raw: "dead"}},
			want: Problem{
				ID:      MissedNotDeadID,
				Message: "The `not dead` query skipped when using `last N versions` query",
				Fixed:   "last 1 version, dead, not dead",
			},
			wantFound: true,
		},
		{
			name:  "no last query",
			input: []Query{{Kind: KindPopularity, Raw: "> 1%"}},
		},
		{
			name: "no queries",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, found := checkRule(t, missedNotDeadRule{}, &Context{Queries: tt.input})
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLimitedBrowsers(t *testing.T) {
	t.Parallel()

	vendors := func(names ...string) []Query {
		queries := make([]Query, 0, len(names))
		for _, name := range names {
			queries = append(queries, Query{Kind: KindBrowserRay, Browser: name, Raw: name + " > 0"})
		}
		return queries
	}

	tests := []struct {
		name      string
		input     []Query
		wantFixed string
		wantFound bool
	}{
		{
			name: "two vendors",
			input: []Query{
				{Kind: KindLastBrowserVersions, Browser: "chrome", Raw: "last 2 chrome versions"},
				{Kind: KindBrowserVersion, Browser: "firefox", Version: "121", Raw: "firefox 121"},
			},
			wantFixed: "last 2 chrome versions, firefox 121, last 2 versions, not dead",
			wantFound: true,
		},
		{
			name:      "six vendors",
			input:     vendors("chrome", "firefox", "edge", "opera", "safari", "samsung"),
			wantFixed: "chrome > 0, firefox > 0, edge > 0, opera > 0, safari > 0, samsung > 0, last 2 versions, not dead",
			wantFound: true,
		},
		{
			name:  "seven vendors",
			input: vendors("chrome", "firefox", "edge", "opera", "safari", "samsung", "ios_saf"),
		},
		{
			name:      "aliases count once",
			input:     vendors("chrome", "firefox", "ff", "fx", "explorer", "ie", "edge", "opera"),
			wantFixed: "chrome > 0, firefox > 0, ff > 0, fx > 0, explorer > 0, ie > 0, edge > 0, opera > 0, last 2 versions, not dead",
			wantFound: true,
		},
		{
			name: "negated browser query counts",
			input: []Query{
				{Kind: KindBrowserRange, Browser: "chrome", Version: "100-120", Raw: "chrome 100-120"},
				{Kind: KindBrowserVersion, Not: true, Browser: "chrome", Version: "110", Raw: "not chrome 110"},
			},
			wantFixed: "chrome 100-120, not chrome 110, last 2 versions, not dead",
			wantFound: true,
		},
		{
			name: "general query present",
			input: []Query{
				{Kind: KindBrowserVersion, Browser: "chrome", Version: "121", Raw: "chrome 121"},
				{Kind: KindPopularity, Raw: "> 1%"},
			},
		},
		{
			name:  "unknown kind",
			input: []Query{{Kind: "future_kind", Raw: "something new"}},
		},
		{
			name: "no queries",
		},
	}

	provider := &fakeProvider{aliases: map[string]string{"ff": "firefox", "fx": "firefox", "explorer": "ie"}}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, found := checkRule(t, limitedBrowsersRule{}, &Context{Provider: provider, Queries: tt.input})
			require.Equal(t, tt.wantFound, found)
			if !found {
				return
			}
			assert.Equal(t, LimitedBrowsersID, got.ID)
			assert.Equal(t, "Given config is narrowly limited for specific vendors", got.Message)
			assert.Equal(t, tt.wantFixed, got.Fixed)
		})
	}
}

func TestCountryWasIgnored(t *testing.T) {
	t.Parallel()

	split := func(covered float64) map[string]float64 {
		return map[string]float64{"chrome 120": covered, "uc 15": 100 - covered}
	}
	everywhere := func(covered float64) map[string]map[string]float64 {
		usage := make(map[string]map[string]float64, len(Regions))
		for _, region := range Regions {
			usage[region.Code] = split(covered)
		}
		return usage
	}

	queries := []Query{
		{Kind: KindBrowserVersion, Browser: "chrome", Version: "120", Raw: "chrome 120"},
		{Kind: KindBrowserVersion, Not: true, Browser: "uc", Version: "15", Raw: "not uc 15"},
	}

	tests := []struct {
		name        string
		usage       map[string]map[string]float64
		browsers    []string
		wantMessage string
		wantFound   bool
	}{
		{
			name: "two regions below threshold",
			usage: map[string]map[string]float64{
				"CN": split(50),
				"IN": split(79.9),
				"US": split(80),
			},
			browsers:    []string{"chrome 120"},
			wantMessage: "Less than 80% coverage in China, and India regions",
			wantFound:   true,
		},
		{
			name:        "single region",
			usage:       map[string]map[string]float64{"DE": split(10)},
			browsers:    []string{"chrome 120"},
			wantMessage: "Less than 80% coverage in Germany regions",
			wantFound:   true,
		},
		{
			name:     "coverage is relative to region total",
			usage:    map[string]map[string]float64{"JP": {"chrome 120": 8, "uc 15": 2}},
			browsers: []string{"chrome 120"},
		},
		{
			name:        "more than five regions",
			usage:       everywhere(10),
			browsers:    []string{"chrome 120"},
			wantMessage: "Less than 80% coverage in China, India, United States, Indonesia, Brazil, and 11 more regions",
			wantFound:   true,
		},
		{
			name:     "every region covered",
			usage:    everywhere(90),
			browsers: []string{"chrome 120"},
		},
		{
			name:     "untracked browsers only",
			usage:    everywhere(10),
			browsers: []string{"node 20.10.0"},
		},
		{
			name:     "no browsers",
			usage:    everywhere(10),
			browsers: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := &Context{
				Provider: &fakeProvider{usage: tt.usage},
				Queries:  queries,
				Browsers: tt.browsers,
			}

			got, found := checkRule(t, countryWasIgnoredRule{}, ctx)
			require.Equal(t, tt.wantFound, found)
			if !found {
				return
			}
			assert.Equal(t, CountryWasIgnoredID, got.ID)
			assert.Equal(t, tt.wantMessage, got.Message)
			assert.Equal(t, "chrome 120, >0.3%, not uc 15", got.Fixed)
		})
	}
}

func TestCountryWasIgnored_FixAppendsWithoutNegations(t *testing.T) {
	t.Parallel()

	ctx := &Context{
		Provider: &fakeProvider{usage: map[string]map[string]float64{"CN": {"chrome 120": 10, "uc 15": 90}}},
		Queries:  []Query{{Kind: KindLastVersions, Raw: "last 2 versions"}},
		Browsers: []string{"chrome 120"},
	}

	got, found := checkRule(t, countryWasIgnoredRule{}, ctx)

	require.True(t, found)
	assert.Equal(t, "last 2 versions, >0.3%", got.Fixed)
}

func TestCountryWasIgnored_FixPlacement(t *testing.T) {
	t.Parallel()

	usage := map[string]map[string]float64{"CN": {"chrome 120": 10, "chrome 109": 80, "uc 15": 10}}
	chrome := Query{Kind: KindBrowserVersion, Browser: "chrome", Version: "120", Raw: "chrome 120"}
	notOld := Query{Kind: KindBrowserVersion, Not: true, Browser: "chrome", Version: "109", Raw: "not chrome 109"}
	notUC := Query{Kind: KindBrowserVersion, Not: true, Browser: "uc", Version: "15", Raw: "not uc 15"}

	tests := []struct {
		name     string
		queries  []Query
		resolved map[string][]string
		want     string
	}{
		{
			name:    "before exclusions when that covers every region",
			queries: []Query{chrome, notUC},
			resolved: map[string][]string{
				"chrome 120, >0.3%, not uc 15": {"chrome 120", "chrome 109"},
				"chrome 120, not uc 15, >0.3%": {"chrome 120", "chrome 109", "uc 15"},
			},
			want: "chrome 120, >0.3%, not uc 15",
		},
		{
			name:    "after exclusions when they would undo it",
			queries: []Query{chrome, notOld},
			resolved: map[string][]string{
				"chrome 120, >0.3%, not chrome 109": {"chrome 120", "uc 15"},
				"chrome 120, not chrome 109, >0.3%": {"chrome 120", "chrome 109", "uc 15"},
			},
			want: "chrome 120, not chrome 109, >0.3%",
		},
		{
			name:    "existing popularity clause is not repeated",
			queries: []Query{chrome, {Kind: KindPopularity, Raw: "> 0.3%"}, notOld},
			resolved: map[string][]string{
				"chrome 120, >0.3%, not chrome 109": {"chrome 120"},
				"chrome 120, not chrome 109, >0.3%": {"chrome 120", "chrome 109"},
			},
			want: "chrome 120, not chrome 109, >0.3%",
		},
		{
			name:    "neither placement covers",
			queries: []Query{chrome, notOld},
			want:    "chrome 120, >0.3%, not chrome 109",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := &Context{
				Provider: &fakeProvider{usage: usage, browsers: []string{"chrome 120"}, resolved: tt.resolved},
				Queries:  tt.queries,
				Browsers: []string{"chrome 120"},
			}

			got, found := checkRule(t, countryWasIgnoredRule{}, ctx)

			require.True(t, found)
			assert.Equal(t, tt.want, got.Fixed)
			assert.Equal(t, 1, strings.Count(got.Fixed, "0.3%"))
		})
	}
}

func TestAlreadyDead(t *testing.T) {
	t.Parallel()

	notVersion := func(browser, version string) Query {
		return Query{
			Kind:    KindBrowserVersion,
			Not:     true,
			Browser: browser,
			Version: version,
			Raw:     "not " + browser + " " + version,
		}
	}
	notDead := Query{Kind: KindDead, Not: true, Raw: "not dead"}
	popularity := Query{Kind: KindPopularity, Raw: "> 0.5%"}
	defaults := Query{Kind: KindDefaults, Raw: "defaults"}

	tests := []struct {
		name      string
		input     []Query
		want      Problem
		wantFound bool
	}{
		{
			name:  "redundant exclusions after not dead",
			input: []Query{popularity, notDead, notVersion("ie", "11"), notVersion("bb", "10")},
			want: Problem{
				ID:      AlreadyDeadID,
				Message: "`not ie 11`, and `not bb 10` already in `not dead`",
				Fixed:   "> 0.5%, not dead",
			},
			wantFound: true,
		},
		{
			name:  "defaults excludes dead browsers",
			input: []Query{defaults, notVersion("ie", "11")},
			want: Problem{
				ID:      AlreadyDeadID,
				Message: "`not ie 11` already in `defaults`",
				Fixed:   "defaults",
			},
			wantFound: true,
		},
		{
			name:  "not dead wins over defaults",
			input: []Query{defaults, notDead, notVersion("explorer", "11"), notVersion("chrome", "120")},
			want: Problem{
				ID:      AlreadyDeadID,
				Message: "`not explorer 11` already in `not dead`",
				Fixed:   "defaults, not dead, not chrome 120",
			},
			wantFound: true,
		},
		{
			name:  "living browser exclusion",
			input: []Query{popularity, notDead, notVersion("chrome", "120")},
		},
		{
			name:  "no dead exclusion source",
			input: []Query{popularity, notVersion("ie", "11")},
		},
		{
			name:  "negated defaults is not a source",
			input: []Query{popularity, {Kind: KindDefaults, Not: true, Raw: "not defaults"}, notVersion("ie", "11")},
		},
		{
			name:  "ranges are not checked",
			input: []Query{popularity, notDead, {Kind: KindBrowserRange, Not: true, Browser: "ie", Version: "10-11", Raw: "not ie 10-11"}},
		},
	}

	provider := &fakeProvider{aliases: map[string]string{"explorer": "ie"}}
	dead := map[string]bool{"ie 11": true, "ie 10": true, "bb 10": true}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, found := checkRule(t, alreadyDeadRule{}, &Context{Provider: provider, Queries: tt.input, Dead: dead})
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJoinList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []string
		limit int
		want  string
	}{
		{name: "single", input: []string{"China"}, limit: 5, want: "China"},
		{name: "pair", input: []string{"China", "India"}, limit: 5, want: "China, and India"},
		{name: "three", input: []string{"A", "B", "C"}, limit: 5, want: "A, B, and C"},
		{name: "at limit", input: []string{"A", "B", "C", "D", "E"}, limit: 5, want: "A, B, C, D, and E"},
		{name: "over limit", input: []string{"A", "B", "C", "D", "E", "F", "G"}, limit: 5, want: "A, B, C, D, E, and 2 more"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, joinList(tt.input, tt.limit))
		})
	}
}

func TestDefaultRules_Order(t *testing.T) {
	t.Parallel()

	var ids []string
	for _, rule := range DefaultRules() {
		ids = append(ids, rule.ID())
	}

	assert.Equal(t, []string{MissedNotDeadID, LimitedBrowsersID, CountryWasIgnoredID, AlreadyDeadID}, ids)
}
