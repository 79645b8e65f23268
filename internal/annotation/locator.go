package annotation

import (
	"os"
	"path/filepath"
	"strings"
)

// LabelsDir is the directory under the dataset root holding txt annotations.
const LabelsDir = "labels"

// Stem returns the base name of path without its final extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Path returns where the annotation for imagePath would live, whether or not
// it exists.
func Path(root, imagePath string, format Format) string {
	if format == XML {
		return filepath.Join(filepath.Dir(imagePath), Stem(imagePath)+XML.Ext())
	}
	return filepath.Join(root, LabelsDir, Stem(imagePath)+TXT.Ext())
}

// Locate resolves the annotation file for imagePath.
//
// The second result is false when no regular file exists at the expected
// location. That is not an error: such an image is a negative example.
func Locate(root, imagePath string, format Format) (string, bool) {
	p := Path(root, imagePath, format)
	fi, err := os.Stat(p)
	if err != nil || fi.IsDir() {
		return "", false
	}
	return p, true
}
