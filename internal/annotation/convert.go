package annotation

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/coco-tools/internal/monitoring"
)

// BackupDir is the per-directory folder converted xml files are moved into.
const BackupDir = "xml_backup"

// ConversionFailure records an xml file that could not be converted.
type ConversionFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ConversionReport summarises a ConvertXMLTree run.
type ConversionReport struct {
	Converted []string            `json:"converted"`
	Lines     int                 `json:"lines"`
	Failed    []ConversionFailure `json:"failed,omitempty"`
}

// FindXMLFiles returns every .xml file under root in lexical order, skipping
// BackupDir directories so that already converted files are not picked up
// again.
func FindXMLFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == BackupDir && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), XML.Ext()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan for xml files: %w", err)
	}
	return files, nil
}

// ConvertXMLTree converts every VOC xml file under root to the txt format.
//
// Each object becomes one "<name> <xmin> <ymin> <xmax> <ymax>" line appended
// to the sibling .txt file, and the xml file is then moved into BackupDir
// next to it. Appending is intentional: running the conversion twice over
// the same txt files duplicates their lines.
//
// A file that fails to parse is logged, left where it is and listed in the
// report; the remaining files are still converted. The returned error is
// reserved for failures that stop the walk itself.
func ConvertXMLTree(root string) (*ConversionReport, error) {
	files, err := FindXMLFiles(root)
	if err != nil {
		return nil, err
	}

	report := &ConversionReport{}
	if len(files) == 0 {
		monitoring.Logf("No XML files found under %s, conversion not required", root)
		return report, nil
	}

	progress := monitoring.NewLogProgress("xml2txt")
	for i, path := range files {
		n, err := ConvertXMLFile(path)
		if err != nil {
			monitoring.Logf("Skipping %s: %v", path, err)
			report.Failed = append(report.Failed, ConversionFailure{Path: path, Error: err.Error()})
		} else {
			report.Converted = append(report.Converted, path)
			report.Lines += n
		}
		progress.Progress(i+1, len(files))
	}

	monitoring.Logf("XML to TXT conversion completed: %d converted, %d failed", len(report.Converted), len(report.Failed))
	return report, nil
}

// ConvertXMLFile converts a single xml file and moves it to the backup
// directory. It returns the number of lines appended.
func ConvertXMLFile(path string) (int, error) {
	ann, err := ParseFile(xmlParser{}, path)
	if err != nil {
		return 0, err
	}

	txtPath := strings.TrimSuffix(path, XML.Ext()) + TXT.Ext()
	f, err := os.OpenFile(txtPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", txtPath, err)
	}
	for _, o := range ann.Objects {
		if _, err := fmt.Fprintf(f, "%s %s %s %s %s\n", o.Name, o.Box[0], o.Box[1], o.Box[2], o.Box[3]); err != nil {
			f.Close()
			return 0, fmt.Errorf("failed to write %s: %w", txtPath, err)
		}
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", txtPath, err)
	}

	backup := filepath.Join(filepath.Dir(path), BackupDir)
	if err := os.MkdirAll(backup, 0755); err != nil {
		return 0, fmt.Errorf("failed to create backup dir: %w", err)
	}
	if err := os.Rename(path, filepath.Join(backup, filepath.Base(path))); err != nil {
		return 0, fmt.Errorf("failed to move %s to backup: %w", path, err)
	}
	return len(ann.Objects), nil
}
