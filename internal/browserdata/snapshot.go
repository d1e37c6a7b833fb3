package browserdata

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// GlobalRegion is the usage table used by plain popularity queries.
const GlobalRegion = "global"

//go:embed snapshot.yml
var snapshotYAML []byte

// Snapshot is a static copy of browser versions and usage statistics.
type Snapshot struct {
	Aliases  map[string]string             `yaml:"aliases"`
	Browsers map[string]Browser            `yaml:"browsers"`
	Usage    map[string]map[string]float64 `yaml:"usage"`
}

// Browser lists the known versions of one browser, oldest first.
type Browser struct {
	Released   []string `yaml:"released"`
	Unreleased []string `yaml:"unreleased,omitempty"`
	ESR        []string `yaml:"esr,omitempty"`
	// Dead browsers are no longer maintained by their vendor.
	Dead bool `yaml:"dead,omitempty"`
	// Runtime marks non-browser platforms such as Node.js, which version
	// queries spanning every browser skip.
	Runtime bool `yaml:"runtime,omitempty"`
}

var bundledSnapshot = sync.OnceValues(func() (*Snapshot, error) {
	return ParseSnapshot(snapshotYAML)
})

// BundledSnapshot returns the snapshot embedded in the binary. It is decoded
// once and must not be modified.
func BundledSnapshot() (*Snapshot, error) {
	return bundledSnapshot()
}

// ParseSnapshot decodes and validates snapshot YAML.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var snapshot Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if err := snapshot.validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	for name, browser := range snapshot.Browsers {
		slices.SortStableFunc(browser.Released, compareVersions)
		slices.SortStableFunc(browser.Unreleased, compareVersions)
		snapshot.Browsers[name] = browser
	}
	return &snapshot, nil
}

func (s *Snapshot) validate() error {
	if len(s.Browsers) == 0 {
		return errors.New("no browsers")
	}
	for name, browser := range s.Browsers {
		if len(browser.Released) == 0 {
			return fmt.Errorf("browser %s has no released versions", name)
		}
	}
	for alias, name := range s.Aliases {
		if _, ok := s.Browsers[name]; !ok {
			return fmt.Errorf("alias %s points to unknown browser %s", alias, name)
		}
	}
	if _, ok := s.Usage[GlobalRegion]; !ok {
		return errors.New("missing global usage")
	}
	return nil
}
