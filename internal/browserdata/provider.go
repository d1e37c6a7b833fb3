// Package browserdata parses and resolves Browserslist queries against a
// bundled snapshot of browser versions and usage statistics.
package browserdata

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"
	"github.com/wizzomafizzo/browserslist-lint/internal/lint"
)

// DefaultsQuery is what the "defaults" query expands to.
const DefaultsQuery = "> 0.5%, last 2 versions, firefox esr, not dead"

var _ lint.Provider = (*Provider)(nil)

// Provider implements lint.Provider. Config and stats files named in options
// are read through fs.
type Provider struct {
	fs       afero.Fs
	dir      string
	snapshot *Snapshot
}

// Option configures a Provider.
type Option func(*Provider)

// WithDir sets the directory config discovery starts from.
func WithDir(dir string) Option {
	return func(p *Provider) {
		p.dir = dir
	}
}

// WithSnapshot replaces the bundled snapshot.
func WithSnapshot(snapshot *Snapshot) Option {
	return func(p *Provider) {
		p.snapshot = snapshot
	}
}

// New creates a provider reading files from fs.
func New(fs afero.Fs, opts ...Option) (*Provider, error) {
	p := &Provider{fs: fs, dir: "."}
	for _, opt := range opts {
		opt(p)
	}

	if p.snapshot == nil {
		snapshot, err := BundledSnapshot()
		if err != nil {
			return nil, err
		}
		p.snapshot = snapshot
	}
	return p, nil
}

// Parse splits queries into clauses. Empty queries fall back to the config
// named in opts, a discovered config, or the defaults.
func (p *Provider) Parse(queries []string, opts lint.Options) ([]lint.Query, error) {
	clauses, err := p.clauses(queries, opts)
	if err != nil {
		return nil, err
	}

	parsed := make([]lint.Query, 0, len(clauses))
	for _, c := range clauses {
		parsed = append(parsed, c.query())
	}
	return parsed, nil
}

// Resolve returns the selected browsers sorted by name, newest version first.
func (p *Provider) Resolve(queries []string, opts lint.Options) ([]string, error) {
	clauses, err := p.clauses(queries, opts)
	if err != nil {
		return nil, err
	}

	selected, err := p.resolveClauses(clauses, opts)
	if err != nil {
		return nil, err
	}

	browsers := selectedKeys(selected)
	slices.SortFunc(browsers, func(a, b string) int {
		aName, aVersion, _ := strings.Cut(a, " ")
		bName, bVersion, _ := strings.Cut(b, " ")
		if c := strings.Compare(aName, bName); c != 0 {
			return c
		}
		return compareVersions(bVersion, aVersion)
	})
	return browsers, nil
}

// Coverage sums the region usage of browsers.
func (p *Provider) Coverage(browsers []string, region string) float64 {
	usage := p.snapshot.Usage[region]
	total := 0.0
	for _, browser := range browsers {
		total += usage[browser]
	}
	return total
}

// Usage returns a copy of the usage table for region, or nil if the snapshot
// has none.
func (p *Provider) Usage(region string) map[string]float64 {
	return maps.Clone(p.snapshot.Usage[region])
}

// Normalize lower-cases a browser name and resolves aliases.
func (p *Provider) Normalize(browser string) string {
	name := strings.ToLower(browser)
	if canonical, ok := p.snapshot.Aliases[name]; ok {
		return canonical
	}
	return name
}

func (p *Provider) clauses(queries []string, opts lint.Options) ([]clause, error) {
	if isBlank(queries) {
		loaded, err := p.loadQueries(opts)
		if err != nil {
			return nil, err
		}
		queries = loaded
	}
	return parseQueries(queries)
}

func (p *Provider) resolveClauses(clauses []clause, opts lint.Options) (map[string]bool, error) {
	selected := make(map[string]bool)
	for i, c := range clauses {
		if c.not && i == 0 {
			return nil, newError("Write any browsers query (for instance, `defaults`) before `%s`", c.raw)
		}

		browsers, err := p.selectClause(c, opts)
		if err != nil {
			return nil, err
		}
		for _, browser := range browsers {
			if c.not {
				delete(selected, browser)
			} else {
				selected[browser] = true
			}
		}
	}
	return selected, nil
}

func (p *Provider) selectClause(c clause, opts lint.Options) ([]string, error) {
	switch c.kind {
	case lint.KindLastVersions:
		return p.eachBrowser(func(name string, b Browser) []string {
			return lastReleased(name, b, c.count)
		}), nil
	case lint.KindLastMajorVersions:
		return p.eachBrowser(func(name string, b Browser) []string {
			return lastMajors(name, b, c.count)
		}), nil
	case lint.KindUnreleasedVersions:
		return p.eachBrowser(func(name string, b Browser) []string {
			return pairs(name, b.Unreleased)
		}), nil
	case lint.KindLastBrowserVersions, lint.KindLastBrowserMajorVersions,
		lint.KindUnreleasedBrowserVersion, lint.KindBrowserRange,
		lint.KindBrowserRay, lint.KindBrowserVersion:
		return p.selectBrowserClause(c)
	case lint.KindPopularity:
		return popular(p.snapshot.Usage[GlobalRegion], c.op, c.percent), nil
	case lint.KindPopularityInRegion:
		usage, ok := p.snapshot.Usage[c.region]
		if !ok {
			return nil, newError("Unknown region name `%s`", c.region)
		}
		return popular(usage, c.op, c.percent), nil
	case lint.KindPopularityInMyStats:
		usage, err := p.loadStats(opts.Stats)
		if err != nil {
			return nil, err
		}
		return popular(usage, c.op, c.percent), nil
	case lint.KindFirefoxESR:
		return pairs("firefox", p.snapshot.Browsers["firefox"].ESR), nil
	case lint.KindDead:
		var dead []string
		for name, b := range p.snapshot.Browsers {
			if b.Dead {
				dead = append(dead, pairs(name, b.Released)...)
			}
		}
		return dead, nil
	case lint.KindDefaults:
		defaults, err := parseQueries([]string{DefaultsQuery})
		if err != nil {
			return nil, err
		}
		selected, err := p.resolveClauses(defaults, opts)
		if err != nil {
			return nil, err
		}
		return selectedKeys(selected), nil
	default:
		return nil, fmt.Errorf("unsupported query kind %q", c.kind)
	}
}

func (p *Provider) selectBrowserClause(c clause) ([]string, error) {
	name := p.Normalize(c.browser)
	b, ok := p.snapshot.Browsers[name]
	if !ok {
		return nil, newError("Unknown browser %s", c.browser)
	}

	switch c.kind {
	case lint.KindLastBrowserVersions:
		return lastReleased(name, b, c.count), nil
	case lint.KindLastBrowserMajorVersions:
		return lastMajors(name, b, c.count), nil
	case lint.KindUnreleasedBrowserVersion:
		return pairs(name, b.Unreleased), nil
	case lint.KindBrowserRange:
		constraint, err := rangeConstraint(c.version, c.to)
		if err != nil {
			return nil, newError("Unknown version %s-%s of %s", c.version, c.to, c.browser)
		}
		return pairs(name, matchingVersions(b.Released, constraint)), nil
	case lint.KindBrowserRay:
		constraint, err := rayConstraint(c.op, c.version)
		if err != nil {
			return nil, newError("Unknown version %s of %s", c.version, c.browser)
		}
		return pairs(name, matchingVersions(b.Released, constraint)), nil
	default:
		version, ok := findVersion(b, c.version)
		if !ok {
			return nil, newError("Unknown version %s of %s", c.version, c.browser)
		}
		return []string{name + " " + version}, nil
	}
}

// eachBrowser collects versions from every browser except runtimes.
func (p *Provider) eachBrowser(fn func(name string, b Browser) []string) []string {
	var browsers []string
	for name, b := range p.snapshot.Browsers {
		if b.Runtime {
			continue
		}
		browsers = append(browsers, fn(name, b)...)
	}
	return browsers
}

// findVersion looks up an exact version, then the newest release within a
// partial one so "node 20" finds "20.10.0".
func findVersion(b Browser, version string) (string, bool) {
	if slices.Contains(b.Released, version) || slices.Contains(b.Unreleased, version) {
		return version, true
	}
	within, err := semver.NewConstraint(version)
	if err != nil {
		return "", false
	}
	matched := matchingVersions(b.Released, within)
	if len(matched) == 0 {
		return "", false
	}
	return matched[len(matched)-1], true
}

func lastReleased(name string, b Browser, count int) []string {
	start := max(len(b.Released)-count, 0)
	return pairs(name, b.Released[start:])
}

func lastMajors(name string, b Browser, count int) []string {
	var majors []string
	for i := len(b.Released) - 1; i >= 0 && len(majors) < count; i-- {
		major := majorVersion(b.Released[i])
		if !slices.Contains(majors, major) {
			majors = append(majors, major)
		}
	}

	var versions []string
	for _, v := range b.Released {
		if slices.Contains(majors, majorVersion(v)) {
			versions = append(versions, v)
		}
	}
	return pairs(name, versions)
}

func popular(usage map[string]float64, op string, percent float64) []string {
	var browsers []string
	for browser, share := range usage {
		if matchesShare(share, op, percent) {
			browsers = append(browsers, browser)
		}
	}
	return browsers
}

func pairs(name string, versions []string) []string {
	result := make([]string, 0, len(versions))
	for _, v := range versions {
		result = append(result, name+" "+v)
	}
	return result
}

func isBlank(queries []string) bool {
	for _, query := range queries {
		if strings.TrimSpace(query) != "" {
			return false
		}
	}
	return true
}

// selectedKeys returns the keys of selected in unspecified order.
func selectedKeys(selected map[string]bool) []string {
	keys := make([]string, 0, len(selected))
	for k := range selected {
		keys = append(keys, k)
	}
	return keys
}
