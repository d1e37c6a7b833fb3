package browserdata

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wizzomafizzo/browserslist-lint/internal/lint"
)

// clause is a parsed query with everything the resolver needs.
type clause struct {
	kind    lint.Kind
	not     bool
	raw     string
	browser string
	version string
	// to is the upper bound of a range.
	to      string
	op      string
	count   int
	percent float64
	region  string
}

func (c clause) query() lint.Query {
	query := lint.Query{
		Kind:    c.kind,
		Not:     c.not,
		Browser: c.browser,
		Raw:     c.raw,
	}
	switch c.kind {
	case lint.KindBrowserVersion:
		query.Version = c.version
	case lint.KindBrowserRange:
		query.Version = c.version + "-" + c.to
	}
	return query
}

type clauseMatcher struct {
	re    *regexp.Regexp
	build func(m []string) clause
}

var separatorRe = regexp.MustCompile(`(?i)\s*,\s*|\s+or\s+`)

// Order matters: the generic browser forms come last.
var clauseMatchers = []clauseMatcher{
	{
		re: regexp.MustCompile(`^last\s+(\d+)\s+major\s+versions?$`),
		build: func(m []string) clause {
			return clause{kind: lint.KindLastMajorVersions, count: atoi(m[1])}
		},
	},
	{
		re: regexp.MustCompile(`^last\s+(\d+)\s+versions?$`),
		build: func(m []string) clause {
			return clause{kind: lint.KindLastVersions, count: atoi(m[1])}
		},
	},
	{
		re: regexp.MustCompile(`^last\s+(\d+)\s+(\w+)\s+major\s+versions?$`),
		build: func(m []string) clause {
			return clause{kind: lint.KindLastBrowserMajorVersions, count: atoi(m[1]), browser: m[2]}
		},
	},
	{
		re: regexp.MustCompile(`^last\s+(\d+)\s+(\w+)\s+versions?$`),
		build: func(m []string) clause {
			return clause{kind: lint.KindLastBrowserVersions, count: atoi(m[1]), browser: m[2]}
		},
	},
	{
		re: regexp.MustCompile(`^unreleased\s+versions$`),
		build: func([]string) clause {
			return clause{kind: lint.KindUnreleasedVersions}
		},
	},
	{
		re: regexp.MustCompile(`^unreleased\s+(\w+)\s+versions?$`),
		build: func(m []string) clause {
			return clause{kind: lint.KindUnreleasedBrowserVersion, browser: m[1]}
		},
	},
	{
		re: regexp.MustCompile(`^(>=?|<=?)\s*(\d*\.?\d+)%\s+in\s+my\s+stats$`),
		build: func(m []string) clause {
			return clause{kind: lint.KindPopularityInMyStats, op: m[1], percent: atof(m[2])}
		},
	},
	{
		re: regexp.MustCompile(`^(>=?|<=?)\s*(\d*\.?\d+)%\s+in\s+([a-z]{2})$`),
		build: func(m []string) clause {
			return clause{
				kind:    lint.KindPopularityInRegion,
				op:      m[1],
				percent: atof(m[2]),
				region:  strings.ToUpper(m[3]),
			}
		},
	},
	{
		// "%5%" is shorthand for ">= 5%".
		re: regexp.MustCompile(`^(>=?|<=?|%)\s*(\d*\.?\d+)%$`),
		build: func(m []string) clause {
			op := m[1]
			if op == "%" {
				op = ">="
			}
			return clause{kind: lint.KindPopularity, op: op, percent: atof(m[2])}
		},
	},
	{
		re: regexp.MustCompile(`^(?:firefox|ff|fx)\s+esr$`),
		build: func([]string) clause {
			return clause{kind: lint.KindFirefoxESR}
		},
	},
	{
		re: regexp.MustCompile(`^dead$`),
		build: func([]string) clause {
			return clause{kind: lint.KindDead}
		},
	},
	{
		re: regexp.MustCompile(`^defaults$`),
		build: func([]string) clause {
			return clause{kind: lint.KindDefaults}
		},
	},
	{
		re: regexp.MustCompile(`^(\w+)\s+(\d+(?:\.\d+)*)\s*-\s*(\d+(?:\.\d+)*)$`),
		build: func(m []string) clause {
			return clause{kind: lint.KindBrowserRange, browser: m[1], version: m[2], to: m[3]}
		},
	},
	{
		re: regexp.MustCompile(`^(\w+)\s*(>=?|<=?)\s*(\d+(?:\.\d+)*)$`),
		build: func(m []string) clause {
			return clause{kind: lint.KindBrowserRay, browser: m[1], op: m[2], version: m[3]}
		},
	},
	{
		re: regexp.MustCompile(`^(\w+)\s+(all|tp|\d+(?:\.\d+)*)$`),
		build: func(m []string) clause {
			return clause{kind: lint.KindBrowserVersion, browser: m[1], version: m[2]}
		},
	},
}

// parseQueries splits every query string into clauses.
func parseQueries(queries []string) ([]clause, error) {
	var clauses []clause
	for _, query := range queries {
		for _, part := range separatorRe.Split(query, -1) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			parsed, err := parseClause(part)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, parsed)
		}
	}
	return clauses, nil
}

func parseClause(raw string) (clause, error) {
	body := strings.ToLower(raw)
	not := false
	if rest, ok := strings.CutPrefix(body, "not "); ok {
		not = true
		body = strings.TrimSpace(rest)
	}

	for _, matcher := range clauseMatchers {
		m := matcher.re.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		parsed := matcher.build(m)
		parsed.not = not
		parsed.raw = raw
		return parsed, nil
	}

	return clause{}, newError("Unknown browser query `%s`. "+
		"Maybe you are using old Browserslist or made typo in query", raw)
}

// atoi and atof only see digits already checked by the matcher patterns.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
