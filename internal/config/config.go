// Package config holds the run configuration of coco-tools: defaults, an
// optional JSON file overlay and command-line flags, applied in that order.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ironsheep/coco-tools/internal/annotation"
	"github.com/ironsheep/coco-tools/internal/coco"
)

// Config is the resolved configuration of one run.
type Config struct {
	// RootDir is where images and annotations are searched.
	RootDir string `json:"root_dir"`
	// OutputDir receives the chart and the COCO documents.
	OutputDir string `json:"output_dir"`
	// ImageFormat is the image file extension to collect, without the dot.
	ImageFormat string `json:"image_format"`
	// AnnotationFormat is "txt" or "xml".
	AnnotationFormat string `json:"annotation_format"`

	ConvertXML   bool `json:"xml2txt"`
	ShowStats    bool `json:"stats"`
	GenerateJSON bool `json:"txt2json"`

	TrainRatio float64 `json:"train_ratio"`
	Seed       int64   `json:"seed"`
	// Strict aborts JSON generation on the first malformed annotation.
	Strict bool `json:"strict"`
}

// Default returns the configuration used when nothing is specified.
func Default() *Config {
	return &Config{
		ImageFormat:      "jpg",
		AnnotationFormat: "txt",
		TrainRatio:       0.8,
		Seed:             coco.DefaultSeed,
	}
}

// fileConfig is the on-disk form. Pointer fields distinguish "absent" from
// zero values so a file only overrides what it names.
type fileConfig struct {
	RootDir          *string  `json:"root_dir,omitempty"`
	OutputDir        *string  `json:"output_dir,omitempty"`
	ImageFormat      *string  `json:"image_format,omitempty"`
	AnnotationFormat *string  `json:"annotation_format,omitempty"`
	ConvertXML       *bool    `json:"xml2txt,omitempty"`
	ShowStats        *bool    `json:"stats,omitempty"`
	GenerateJSON     *bool    `json:"txt2json,omitempty"`
	TrainRatio       *float64 `json:"train_ratio,omitempty"`
	Seed             *int64   `json:"seed,omitempty"`
	Strict           *bool    `json:"strict,omitempty"`
}

// LoadFile overlays the JSON file at path onto c. Unknown keys are rejected
// so that typos do not silently fall back to defaults.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&c.RootDir, fc.RootDir)
	setString(&c.OutputDir, fc.OutputDir)
	setString(&c.ImageFormat, fc.ImageFormat)
	setString(&c.AnnotationFormat, fc.AnnotationFormat)
	setBool(&c.ConvertXML, fc.ConvertXML)
	setBool(&c.ShowStats, fc.ShowStats)
	setBool(&c.GenerateJSON, fc.GenerateJSON)
	setBool(&c.Strict, fc.Strict)
	if fc.TrainRatio != nil {
		c.TrainRatio = *fc.TrainRatio
	}
	if fc.Seed != nil {
		c.Seed = *fc.Seed
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// RegisterFlags binds c to fs. Current values of c become the flag defaults,
// so load any config file before calling Parse.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	for _, name := range []string{"root_dir", "r"} {
		fs.StringVar(&c.RootDir, name, c.RootDir, "Root directory where the images and annotation files are located")
	}
	for _, name := range []string{"output_dir", "o"} {
		fs.StringVar(&c.OutputDir, name, c.OutputDir, "Output directory where the statistics and JSON will be saved")
	}
	for _, name := range []string{"image_format", "im"} {
		fs.StringVar(&c.ImageFormat, name, c.ImageFormat, "Input image file extension, e.g. jpg or png")
	}
	for _, name := range []string{"annotation_format", "af"} {
		fs.StringVar(&c.AnnotationFormat, name, c.AnnotationFormat, "Annotation format: txt or xml")
	}
	fs.BoolVar(&c.ConvertXML, "xml2txt", c.ConvertXML, "Convert VOC XML files to TXT before scanning")
	fs.BoolVar(&c.ShowStats, "stats", c.ShowStats, "Render the category statistics chart")
	fs.BoolVar(&c.GenerateJSON, "txt2json", c.GenerateJSON, "Generate COCO JSON for the train and test splits")
	fs.Float64Var(&c.TrainRatio, "train_ratio", c.TrainRatio, "Fraction of images assigned to the train split, in (0, 1]")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Seed for the train/test shuffle")
	fs.BoolVar(&c.Strict, "strict", c.Strict, "Abort on the first malformed annotation instead of skipping the image")
}

// Format returns the parsed annotation format.
func (c *Config) Format() (annotation.Format, error) {
	return annotation.ParseFormat(c.AnnotationFormat)
}

// ImageExt returns the image extension with a leading dot.
func (c *Config) ImageExt() string {
	return "." + strings.TrimPrefix(c.ImageFormat, ".")
}

// Validate reports every problem with c at once.
func (c *Config) Validate() error {
	var errs []error
	if c.RootDir == "" {
		errs = append(errs, errors.New("root_dir is required"))
	} else if fi, err := os.Stat(c.RootDir); err != nil || !fi.IsDir() {
		errs = append(errs, fmt.Errorf("root_dir %q is not a directory", c.RootDir))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is required"))
	}
	if strings.TrimPrefix(c.ImageFormat, ".") == "" {
		errs = append(errs, errors.New("image_format must not be empty"))
	}
	if _, err := c.Format(); err != nil {
		errs = append(errs, err)
	}
	if !(c.TrainRatio > 0 && c.TrainRatio <= 1) {
		errs = append(errs, fmt.Errorf("%w: got %v", coco.ErrInvalidRatio, c.TrainRatio))
	}
	return errors.Join(errs...)
}
