package watcher

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// collectRecursiveDirs lists root and every directory below it. Unreadable
// subtrees are skipped.
func collectRecursiveDirs(root string) ([]string, error) {
	dirs := []string{}
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		dirs = append(dirs, path)
		return nil
	})
	if err == nil && len(dirs) == 0 {
		err = fmt.Errorf("%s is not a directory", root)
	}
	return dirs, err
}

func addTree(root string, add func(string) error, warn func(string, map[string]string)) {
	dirs, err := collectRecursiveDirs(root)
	if err != nil {
		warn("walk new directory failed", map[string]string{
			"path":  root,
			"error": err.Error(),
		})
		return
	}
	for _, dir := range dirs {
		if err := add(dir); err != nil {
			warn("watch add failed", map[string]string{
				"path":  dir,
				"error": err.Error(),
			})
		}
	}
}
