// Package dataset wires discovery, statistics and COCO generation into the
// end-to-end conversion run.
package dataset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Discover returns every file under root whose name ends in ext, sorted.
// The sorted order fixes id assignment, so it must not depend on the
// filesystem's directory order.
func Discover(root, ext string) ([]string, error) {
	if ext == "" || ext == "." {
		return nil, fmt.Errorf("empty image extension")
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
