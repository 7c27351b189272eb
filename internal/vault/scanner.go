// Package vault discovers and reads note files under a root directory.
// The scanner yields an order-unspecified, finite set of raw files;
// extraction and indexing happen downstream.
package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// noteExtensions are the file extensions treated as notes.
var noteExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// RawFile is one discovered note file with its content and mtime.
type RawFile struct {
	// Path is the vault-relative, slash-separated path.
	Path string

	// AbsPath is the absolute filesystem path.
	AbsPath string

	// Content is the raw file content.
	Content []byte

	// Mtime is the file modification time.
	Mtime time.Time
}

// readWorkers bounds concurrent file reads during a scan.
const readWorkers = 8

// Scan walks root recursively and reads every note file. Hidden
// directories (including the index directory) are skipped. A file that
// fails to read is logged and dropped; one bad file never aborts the
// scan. The returned order is unspecified.
func Scan(ctx context.Context, root string) ([]*RawFile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: skip, keep scanning the rest.
			slog.Warn("scan_skip", slog.String("path", path), slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != absRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if noteExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	files := make([]*RawFile, 0, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readWorkers)
	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := readFile(absRoot, path)
			if err != nil {
				slog.Warn("scan_read_failed", slog.String("path", path), slog.String("error", err.Error()))
				return nil
			}
			mu.Lock()
			files = append(files, raw)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func readFile(absRoot, path string) (*RawFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(absRoot, path)
	if err != nil {
		return nil, err
	}
	return &RawFile{
		Path:    filepath.ToSlash(rel),
		AbsPath: path,
		Content: content,
		Mtime:   info.ModTime(),
	}, nil
}
