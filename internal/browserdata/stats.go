package browserdata

import (
	"encoding/json"

	"github.com/spf13/afero"
)

// loadStats reads custom usage statistics in the Browserslist format,
// {"chrome": {"120": 12.5}}, keyed by "<name> <version>".
func (p *Provider) loadStats(path string) (map[string]float64, error) {
	if path == "" {
		return nil, newError("Custom usage statistics was not provided")
	}

	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return nil, &Error{Message: "Can't read " + path, Err: err}
	}

	var byBrowser map[string]map[string]float64
	if err := json.Unmarshal(data, &byBrowser); err != nil {
		return nil, &Error{Message: "Can't parse " + path, Err: err}
	}

	usage := make(map[string]float64)
	for browser, versions := range byBrowser {
		name := p.Normalize(browser)
		for version, share := range versions {
			usage[name+" "+version] += share
		}
	}
	return usage, nil
}
