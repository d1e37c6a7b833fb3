package browserdata

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"github.com/wizzomafizzo/browserslist-lint/internal/constants"
	"github.com/wizzomafizzo/browserslist-lint/internal/lint"
	"github.com/wizzomafizzo/browserslist-lint/internal/project"
)

const (
	defaultSection    = "defaults"
	productionSection = "production"
)

var sectionRe = regexp.MustCompile(`^\[\s*(.+?)\s*\]$`)

// loadQueries reads queries from opts.Config, or from the nearest config
// file above the provider directory. Without either the defaults apply.
func (p *Provider) loadQueries(opts lint.Options) ([]string, error) {
	path := opts.Config
	if path == "" {
		found, ok, err := project.FindConfig(p.fs, p.dir)
		if err != nil {
			return nil, &Error{Message: "Cannot pick config", Err: err}
		}
		if !ok {
			if opts.Env != "" {
				return nil, newError("Missing config for Browserslist environment `%s`", opts.Env)
			}
			return []string{DefaultsQuery}, nil
		}
		path = found
	}

	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return nil, &Error{Message: "Can't read " + path, Err: err}
	}

	var sections map[string][]string
	if filepath.Base(path) == constants.PackageFilename {
		sections, err = parsePackageConfig(data, path)
	} else {
		sections, err = parseRCConfig(string(data), path)
	}
	if err != nil {
		return nil, err
	}

	return pickEnv(sections, opts.Env)
}

// parseRCConfig reads the .browserslistrc format: one query per line, "#"
// comments, and "[env1 env2]" section headers. Lines before any header
// belong to the defaults section.
func parseRCConfig(text, path string) (map[string][]string, error) {
	sections := make(map[string][]string)
	current := []string{defaultSection}

	for _, line := range strings.Split(text, "\n") {
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := sectionRe.FindStringSubmatch(line); m != nil {
			current = strings.Fields(m[1])
			for _, name := range current {
				if _, ok := sections[name]; ok {
					return nil, newError("Duplicate section %s in Browserslist config %s", name, path)
				}
				sections[name] = []string{}
			}
			continue
		}

		for _, name := range current {
			sections[name] = append(sections[name], line)
		}
	}
	return sections, nil
}

// parsePackageConfig reads the "browserslist" key of a package.json. The
// key may hold a query string, a list of queries, or an object of either
// keyed by environment.
func parsePackageConfig(data []byte, path string) (map[string][]string, error) {
	var pkg struct {
		Browserslist json.RawMessage `json:"browserslist"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, &Error{Message: "Can't parse " + path, Err: err}
	}
	if len(pkg.Browserslist) == 0 {
		return nil, newError("%s has no browserslist key", path)
	}

	if queries, ok := decodeQueries(pkg.Browserslist); ok {
		return map[string][]string{defaultSection: queries}, nil
	}

	var envs map[string]json.RawMessage
	if err := json.Unmarshal(pkg.Browserslist, &envs); err != nil {
		return nil, newError("Browserslist config in %s should be a string, an array or an object", path)
	}
	sections := make(map[string][]string, len(envs))
	for env, raw := range envs {
		queries, ok := decodeQueries(raw)
		if !ok {
			return nil, newError("Browserslist config for `%s` in %s should be a string or an array", env, path)
		}
		sections[env] = queries
	}
	return sections, nil
}

func decodeQueries(raw json.RawMessage) ([]string, bool) {
	var query string
	if err := json.Unmarshal(raw, &query); err == nil {
		return []string{query}, true
	}
	var queries []string
	if err := json.Unmarshal(raw, &queries); err == nil {
		return queries, true
	}
	return nil, false
}

func pickEnv(sections map[string][]string, env string) ([]string, error) {
	if env != "" {
		queries, ok := sections[env]
		if !ok {
			return nil, newError("Missing config for Browserslist environment `%s`", env)
		}
		return queries, nil
	}

	if queries, ok := sections[productionSection]; ok {
		return queries, nil
	}
	if queries, ok := sections[defaultSection]; ok && len(queries) > 0 {
		return queries, nil
	}
	return []string{DefaultsQuery}, nil
}
