package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// findScenarioFiles expands each path into scenario files. A file is used
// as given; a directory is walked for .yaml and .yml files whose base name
// (without extension) matches filter. Results are sorted within each
// directory and de-duplicated.
func findScenarioFiles(paths []string, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid filter pattern %q", filter))
		}
	}

	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, NewExitError(ExitCommandError, fmt.Sprintf("scenario path not found: %s", root))
			}
			return nil, WrapExitError(ExitCommandError, "failed to read scenario path", err)
		}

		if !info.IsDir() {
			add(root)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isScenarioFile(path) {
				return nil
			}
			if filter != "" {
				name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				if matched, _ := filepath.Match(filter, name); !matched {
					return nil
				}
			}
			found = append(found, path)
			return nil
		})
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to walk scenario directory", err)
		}

		slices.Sort(found)
		for _, path := range found {
			add(path)
		}
	}

	return files, nil
}

func isScenarioFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}
