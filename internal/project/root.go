// Package project locates Browserslist config files for a working directory.
package project

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/wizzomafizzo/browserslist-lint/internal/constants"
)

// FindConfig searches startDir and its parents for a Browserslist config:
// a .browserslistrc or browserslist file, or a package.json with a
// "browserslist" key. The nearest directory wins. A directory holding both a
// config file and such a package.json is an error.
func FindConfig(fsys afero.Fs, startDir string) (string, bool, error) {
	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}

	for {
		path, found, err := configInDir(fsys, currentDir)
		if err != nil {
			return "", false, err
		}
		if found {
			return path, true, nil
		}

		// Move to parent directory
		parentDir := filepath.Dir(currentDir)

		// Stop if we've reached the filesystem root
		if parentDir == currentDir {
			break
		}

		currentDir = parentDir
	}

	return "", false, nil
}

// configInDir checks a single directory for config markers
func configInDir(fsys afero.Fs, dir string) (string, bool, error) {
	var rcPath string
	for _, marker := range []string{constants.RCFilename, constants.PlainConfigFilename} {
		markerPath := filepath.Join(dir, marker)
		if isFile(fsys, markerPath) {
			rcPath = markerPath
			break
		}
	}

	pkgPath := filepath.Join(dir, constants.PackageFilename)
	hasPkgConfig := isFile(fsys, pkgPath) && HasPackageConfig(fsys, pkgPath)

	switch {
	case rcPath != "" && hasPkgConfig:
		return "", false, fmt.Errorf("%s contains both %s and %s with browsers",
			dir, filepath.Base(rcPath), constants.PackageFilename)
	case rcPath != "":
		return rcPath, true, nil
	case hasPkgConfig:
		return pkgPath, true, nil
	default:
		return "", false, nil
	}
}

// HasPackageConfig reports whether the package.json at path has a
// "browserslist" key. Unreadable or malformed files have none.
func HasPackageConfig(fsys afero.Fs, path string) bool {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return false
	}

	var pkg map[string]json.RawMessage
	if err := json.Unmarshal(data, &pkg); err != nil {
		return false
	}
	_, ok := pkg["browserslist"]
	return ok
}

func isFile(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && !info.IsDir()
}
