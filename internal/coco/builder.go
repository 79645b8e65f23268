package coco

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ironsheep/coco-tools/internal/annotation"
	"github.com/ironsheep/coco-tools/internal/imaging"
	"github.com/ironsheep/coco-tools/internal/monitoring"
)

// DefaultImageIDBase seeds image ids. The first image of a document gets
// DefaultImageIDBase+1, keeping ids clear of other dataset versions.
const DefaultImageIDBase int64 = 20200000000

// DimensionReader reports the pixel size of an image file.
type DimensionReader interface {
	Dimensions(path string) (width, height int, err error)
}

// Options configures a Builder.
type Options struct {
	// Root is the dataset root used to locate annotation files.
	Root string
	// Format selects the annotation layout.
	Format annotation.Format
	// Registry supplies category ids. Required.
	Registry *Registry
	// Dimensions reads image sizes. Defaults to a fresh imaging.DimensionCache.
	Dimensions DimensionReader
	// Observer receives per-image progress. Defaults to monitoring.Discard.
	Observer monitoring.Observer
	// Strict makes a malformed annotation abort the build instead of
	// skipping the image.
	Strict bool
	// ImageIDBase overrides DefaultImageIDBase when non-zero.
	ImageIDBase int64
}

// BuildStats counts what happened to the inputs of one build.
type BuildStats struct {
	Images      int `json:"images"`
	Annotations int `json:"annotations"`

	// SkippedNegative counts images without an annotation file.
	SkippedNegative int `json:"skipped_negative"`
	// UnreadableImages counts images whose raster could not be decoded.
	UnreadableImages int `json:"unreadable_images"`
	// MalformedAnnotations counts images skipped because a box had a
	// wrong token count or a non-integer coordinate.
	MalformedAnnotations int `json:"malformed_annotations"`
	// DroppedInstances counts objects whose category is not registered.
	DroppedInstances int `json:"dropped_instances"`
}

// Result is the output of Builder.Build.
type Result struct {
	Document *Document
	Stats    BuildStats
}

// ErrNoRegistry is returned by NewBuilder when Options.Registry is nil.
var ErrNoRegistry = errors.New("coco: category registry is required")

// Builder turns image lists into COCO documents.
// A Builder holds no per-document state and may be reused for every split.
type Builder struct {
	opts   Options
	parser annotation.Parser
}

// NewBuilder validates opts and fills in defaults.
func NewBuilder(opts Options) (*Builder, error) {
	if opts.Registry == nil {
		return nil, ErrNoRegistry
	}
	parser, err := annotation.NewParser(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.Dimensions == nil {
		opts.Dimensions = imaging.NewDimensionCache()
	}
	if opts.Observer == nil {
		opts.Observer = monitoring.Discard
	}
	if opts.ImageIDBase == 0 {
		opts.ImageIDBase = DefaultImageIDBase
	}
	return &Builder{opts: opts, parser: parser}, nil
}

// SetObserver replaces the progress observer for subsequent builds.
func (b *Builder) SetObserver(o monitoring.Observer) {
	if o == nil {
		o = monitoring.Discard
	}
	b.opts.Observer = o
}

// buildState is the mutable part of one document build. Ids are allocated
// in processing order, so a given image list always yields the same ids.
type buildState struct {
	lastImageID      int64
	lastAnnotationID int64
	doc              *Document
	stats            BuildStats
}

func (s *buildState) nextImageID() int64 {
	s.lastImageID++
	return s.lastImageID
}

func (s *buildState) nextAnnotationID() int64 {
	s.lastAnnotationID++
	return s.lastAnnotationID
}

// Build creates one document from images, processed in the given order.
//
// Images without an annotation file are left out entirely, as are images
// that cannot be decoded. Objects whose category is not in the registry are
// dropped and counted in Result.Stats.DroppedInstances. A malformed box
// skips its whole image, or fails the build when Options.Strict is set.
func (b *Builder) Build(images []string) (*Result, error) {
	st := &buildState{
		lastImageID: b.opts.ImageIDBase,
		doc: &Document{
			Categories:  b.opts.Registry.Categories(),
			Images:      []ImageRecord{},
			Annotations: []AnnotationRecord{},
			Type:        DocumentType,
		},
	}

	for i, img := range images {
		if err := b.addImage(st, img); err != nil {
			return nil, err
		}
		b.opts.Observer.Progress(i+1, len(images))
	}

	st.stats.Images = len(st.doc.Images)
	st.stats.Annotations = len(st.doc.Annotations)
	monitoring.Debugf("built document: %d images, %d annotations, %d dropped instances",
		st.stats.Images, st.stats.Annotations, st.stats.DroppedInstances)

	return &Result{Document: st.doc, Stats: st.stats}, nil
}

// pendingBox is a validated box waiting for its image record.
type pendingBox struct {
	xmin, ymin, xmax, ymax int
	categoryID             int
}

func (b *Builder) addImage(st *buildState, img string) error {
	annPath, ok := annotation.Locate(b.opts.Root, img, b.opts.Format)
	if !ok {
		st.stats.SkippedNegative++
		return nil
	}

	width, height, err := b.opts.Dimensions.Dimensions(img)
	if err != nil {
		monitoring.Logf("IO ERROR: %v", err)
		st.stats.UnreadableImages++
		return nil
	}

	ann, err := annotation.ParseFile(b.parser, annPath)
	if err != nil {
		return b.malformed(st, img, err)
	}

	// Validate every box before emitting anything so that a bad file
	// leaves no partial image behind.
	var boxes []pendingBox
	dropped := 0
	for _, obj := range ann.Objects {
		cat, ok := b.opts.Registry.Lookup(obj.Name)
		if !ok {
			dropped++
			continue
		}
		xmin, ymin, xmax, ymax, err := obj.Bounds()
		if err != nil {
			return b.malformed(st, img, fmt.Errorf("%s: %w", annPath, err))
		}
		boxes = append(boxes, pendingBox{xmin, ymin, xmax, ymax, cat.ID})
	}

	imageID := st.nextImageID()
	st.doc.Images = append(st.doc.Images, ImageRecord{
		ID:       imageID,
		FileName: filepath.Base(img),
		Width:    width,
		Height:   height,
	})

	for _, box := range boxes {
		rec := NewAnnotation(box.xmin, box.ymin, box.xmax, box.ymax, box.categoryID)
		rec.ImageID = imageID
		rec.ID = st.nextAnnotationID()
		st.doc.Annotations = append(st.doc.Annotations, rec)
	}
	st.stats.DroppedInstances += dropped
	return nil
}

func (b *Builder) malformed(st *buildState, img string, err error) error {
	if b.opts.Strict {
		return fmt.Errorf("malformed annotation for %s: %w", img, err)
	}
	monitoring.Logf("Skipping %s: malformed annotation: %v", img, err)
	st.stats.MalformedAnnotations++
	return nil
}
