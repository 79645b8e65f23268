// Package coco builds COCO "instances" documents from per-image annotation
// files.
//
// A document is built per split. Category ids come from a Registry built
// once over the whole dataset so that train and test documents agree on
// them; image and annotation ids are allocated per document by the Builder.
//
// JSON field names and order match what COCO tooling expects:
//
//	{"categories": [...], "images": [...], "annotations": [...], "type": "instances"}
package coco

import (
	"strconv"
	"strings"
)

// DocumentType is the value of the top-level "type" field.
const DocumentType = "instances"

// Supercategory is assigned to every category.
const Supercategory = "none"

// CategoryRecord is one entry of the "categories" array.
type CategoryRecord struct {
	Supercategory string `json:"supercategory"`
	ID            int    `json:"id"`
	Name          string `json:"name"`
}

// ImageRecord is one entry of the "images" array. FileName is a base name.
type ImageRecord struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// AnnotationRecord is one entry of the "annotations" array.
type AnnotationRecord struct {
	// Segmentation holds a single polygon: the four bbox corners in the
	// order top-left, bottom-left, bottom-right, top-right.
	Segmentation [][]int `json:"segmentation"`
	Area         Area    `json:"area"`
	IsCrowd      int     `json:"iscrowd"`
	Ignore       int     `json:"ignore"`
	ImageID      int64   `json:"image_id"`
	// BBox is x, y, width, height in pixels.
	BBox       [4]int `json:"bbox"`
	CategoryID int    `json:"category_id"`
	ID         int64  `json:"id"`
}

// Document is a complete COCO instances document.
type Document struct {
	Categories  []CategoryRecord   `json:"categories"`
	Images      []ImageRecord      `json:"images"`
	Annotations []AnnotationRecord `json:"annotations"`
	Type        string             `json:"type"`
}

// Area is a box area. It always serializes with a fractional part
// ("2400.0"), matching existing COCO annotation files.
type Area float64

// MarshalJSON implements json.Marshaler.
func (a Area) MarshalJSON() ([]byte, error) {
	s := strconv.FormatFloat(float64(a), 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return []byte(s), nil
}

// NewAnnotation derives the COCO record for a box given by its corners.
// The id fields are left for the caller to allocate.
func NewAnnotation(xmin, ymin, xmax, ymax, categoryID int) AnnotationRecord {
	w := xmax - xmin
	h := ymax - ymin
	return AnnotationRecord{
		Segmentation: [][]int{{
			xmin, ymin,
			xmin, ymin + h,
			xmin + w, ymin + h,
			xmin + w, ymin,
		}},
		Area:       roundArea(float64(w * h)),
		BBox:       [4]int{xmin, ymin, w, h},
		CategoryID: categoryID,
	}
}

// roundArea rounds to 3 decimal places.
func roundArea(v float64) Area {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 3, 64), 64)
	if err != nil {
		return Area(v)
	}
	return Area(r)
}
