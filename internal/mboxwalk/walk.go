// Package mboxwalk classifies a user's archive tree into importable mbox
// files and the directories that become label hierarchy.
package mboxwalk

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const mboxExt = ".mbox"

// Item is one importable mbox file together with the label path derived
// from its location under the user root. Label paths use "/" regardless of
// the host path separator.
type Item struct {
	LabelPath string
	Path      string
}

// Result is a full classification of a user root.
type Result struct {
	// Dirs holds the label path of every plain directory under the root,
	// parents before children, for the label pre-pass.
	Dirs []string
	// Items holds importable mbox files in traversal order.
	Items []Item
	// Skipped holds entries that were ignored: files without a .mbox
	// extension and Apple-style containers missing their message store.
	Skipped []string
}

// Walk classifies every entry under root. Traversal is lexical, so the
// order of Dirs and Items is deterministic for a given tree.
func Walk(root string) (Result, error) {
	var res Result
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if strings.HasSuffix(d.Name(), mboxExt) {
				// Apple Mail export: the message store is a file literally
				// named "mbox" inside the .mbox directory.
				store := filepath.Join(path, "mbox")
				if fi, serr := os.Stat(store); serr == nil && fi.Mode().IsRegular() {
					res.Items = append(res.Items, Item{
						LabelPath: strings.TrimSuffix(rel, mboxExt),
						Path:      store,
					})
				} else {
					res.Skipped = append(res.Skipped, rel)
				}
				return fs.SkipDir
			}
			res.Dirs = append(res.Dirs, rel)
			return nil
		}
		if filepath.Ext(d.Name()) == mboxExt {
			res.Items = append(res.Items, Item{
				LabelPath: strings.TrimSuffix(rel, mboxExt),
				Path:      path,
			})
			return nil
		}
		res.Skipped = append(res.Skipped, rel)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("walk %s: %w", root, err)
	}
	return res, nil
}
