package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ironsheep/coco-tools/internal/annotation"
	"github.com/ironsheep/coco-tools/internal/coco"
	"github.com/ironsheep/coco-tools/internal/config"
	"github.com/ironsheep/coco-tools/internal/monitoring"
	"github.com/ironsheep/coco-tools/internal/stats"
)

// SplitReport describes one written COCO document.
type SplitReport struct {
	Path   string          `json:"path"`
	Input  int             `json:"input_images"`
	Stats  coco.BuildStats `json:"stats"`
	Images []string        `json:"-"`
}

// GenerateReport is the outcome of GenerateCOCO.
type GenerateReport struct {
	Categories []coco.CategoryRecord `json:"categories"`
	Train      SplitReport           `json:"train"`
	Test       SplitReport           `json:"test"`
}

// Report is the outcome of Run.
type Report struct {
	Conversion *annotation.ConversionReport `json:"conversion,omitempty"`
	Images     int                          `json:"images"`
	Summary    *stats.Summary               `json:"summary"`
	ChartPath  string                       `json:"chart_path,omitempty"`
	Generate   *GenerateReport              `json:"generate,omitempty"`
}

// GenerateOptions configures GenerateCOCO.
type GenerateOptions struct {
	Root      string
	OutputDir string
	Format    annotation.Format
	// Images is the whole dataset in sorted order.
	Images []string
	// Frequencies must come from a scan of all of Images.
	Frequencies *stats.Frequencies
	TrainRatio  float64
	Seed        int64
	Strict      bool
	// Dimensions is optional; see coco.Options.
	Dimensions coco.DimensionReader
}

// GenerateCOCO splits the dataset and writes one COCO document per split.
//
// The category registry is built once from the full-dataset frequencies and
// shared by both documents, so a category has the same id in each. The two
// documents are built independently: image and annotation ids restart for
// the test split.
func GenerateCOCO(opts GenerateOptions) (*GenerateReport, error) {
	monitoring.Logf("Converting %s annotations to COCO JSON", opts.Format)

	registry := coco.BuildRegistry(opts.Frequencies)
	builder, err := coco.NewBuilder(coco.Options{
		Root:       opts.Root,
		Format:     opts.Format,
		Registry:   registry,
		Dimensions: opts.Dimensions,
		Strict:     opts.Strict,
	})
	if err != nil {
		return nil, err
	}

	train, test, err := coco.Split(opts.Images, opts.TrainRatio, opts.Seed)
	if err != nil {
		return nil, err
	}

	report := &GenerateReport{Categories: registry.Categories()}
	splits := []struct {
		name   string
		file   string
		images []string
		out    *SplitReport
	}{
		{"train", coco.TrainFile, train, &report.Train},
		{"test", coco.TestFile, test, &report.Test},
	}
	for _, s := range splits {
		builder.SetObserver(monitoring.NewLogProgress("coco " + s.name))
		res, err := builder.Build(s.images)
		if err != nil {
			return nil, fmt.Errorf("%s split: %w", s.name, err)
		}
		path := filepath.Join(opts.OutputDir, s.file)
		if err := coco.WriteDocument(path, res.Document); err != nil {
			return nil, err
		}
		if res.Stats.DroppedInstances > 0 {
			monitoring.Logf("%s split: dropped %d instances with unregistered categories", s.name, res.Stats.DroppedInstances)
		}
		monitoring.Logf("[INFO] %s JSON written to %s (%d images, %d annotations)",
			s.name, path, res.Stats.Images, res.Stats.Annotations)
		*s.out = SplitReport{Path: path, Input: len(s.images), Stats: res.Stats, Images: s.images}
	}

	monitoring.Logf("[INFO] JSON creation complete")
	return report, nil
}

// Run executes a full pass as configured by cfg and prints the summary
// block to out.
//
// Steps: optional XML to TXT conversion, image discovery, statistics scan,
// optional chart, summary, and optional COCO generation.
func Run(cfg *config.Config, out io.Writer) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	format, err := cfg.Format()
	if err != nil {
		return nil, err
	}

	report := &Report{}
	if cfg.ConvertXML {
		conv, err := annotation.ConvertXMLTree(cfg.RootDir)
		if err != nil {
			return nil, err
		}
		report.Conversion = conv
	}

	images, err := Discover(cfg.RootDir, cfg.ImageExt())
	if err != nil {
		return nil, err
	}
	report.Images = len(images)
	monitoring.Debugf("discovered %d %s images under %s", len(images), cfg.ImageExt(), cfg.RootDir)

	summary, err := stats.Scan(cfg.RootDir, images, format, monitoring.NewLogProgress("scan"))
	if err != nil {
		return nil, err
	}
	report.Summary = summary

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	if cfg.ShowStats {
		chart := filepath.Join(cfg.OutputDir, stats.ChartFile)
		switch err := stats.RenderChart(chart, summary.Categories); {
		case errors.Is(err, stats.ErrNoCategories):
			monitoring.Logf("No categories found, skipping chart")
		case err != nil:
			return nil, err
		default:
			report.ChartPath = chart
		}
	}

	if err := summary.Print(out); err != nil {
		return nil, err
	}

	if cfg.GenerateJSON {
		gen, err := GenerateCOCO(GenerateOptions{
			Root:        cfg.RootDir,
			OutputDir:   cfg.OutputDir,
			Format:      format,
			Images:      images,
			Frequencies: summary.Categories,
			TrainRatio:  cfg.TrainRatio,
			Seed:        cfg.Seed,
			Strict:      cfg.Strict,
		})
		if err != nil {
			return nil, err
		}
		report.Generate = gen
	}

	return report, nil
}
