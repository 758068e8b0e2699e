// Package scan orchestrates full, incremental, and resumed indexing runs
// over a notes folder, persisting a checkpoint as it goes.
package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/noteseek/noteseek/internal/config"
	seekerrors "github.com/noteseek/noteseek/internal/errors"
)

// EnumerateFiles walks root and returns the absolute paths of all eligible
// files, sorted lexicographically. Byte-wise path order is the collation
// contract for the resume cursor: enumeration, checkpointing, and resume
// all use sort.Strings order.
func EnumerateFiles(root string, paths config.PathsConfig) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, seekerrors.New(seekerrors.ErrCodeInvalidPath, "resolve root", err)
	}

	excluded := make(map[string]struct{}, len(paths.Exclude))
	for _, name := range paths.Exclude {
		excluded[name] = struct{}{}
	}

	extensions := make(map[string]struct{}, len(paths.Extensions))
	for _, ext := range paths.Extensions {
		extensions[strings.ToLower(ext)] = struct{}{}
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal to the walk.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if _, ok := excluded[d.Name()]; ok && path != absRoot {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := extensions[ext]; !ok {
			return nil
		}

		if paths.MaxFileSize > 0 {
			info, err := d.Info()
			if err != nil || info.Size() > paths.MaxFileSize {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, seekerrors.IOError("walk notes folder", err)
	}

	sort.Strings(files)
	return files, nil
}
