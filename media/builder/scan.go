package builder

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// sourceFile is one candidate found under the source root.
type sourceFile struct {
	abs string
	rel string
}

// scan walks root recursively. Hidden files and directories are skipped, as
// is every directory in ignore, given as absolute paths. The result is in
// lexical order.
func scan(ctx context.Context, root string, ignore []string) ([]sourceFile, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []sourceFile
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		hidden := strings.HasPrefix(d.Name(), ".") && p != root
		if d.IsDir() {
			if hidden || (p != root && slices.Contains(ignore, p)) {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, sourceFile{abs: p, rel: filepath.ToSlash(rel)})
		return nil
	})
	return files, err
}
