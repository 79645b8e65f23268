package stats

import (
	"fmt"
	"io"

	"github.com/ironsheep/coco-tools/internal/annotation"
	"github.com/ironsheep/coco-tools/internal/monitoring"
)

// Summary is the result of scanning a dataset.
type Summary struct {
	// Positive counts images with an annotation file. Negative counts those
	// without one, plus xml annotations that list no objects.
	Positive int `json:"positive_images"`
	Negative int `json:"negative_images"`

	// Categories holds instance counts per category in first-seen order.
	Categories *Frequencies `json:"categories"`

	// TotalInstances counts every object in every annotation file.
	TotalInstances int `json:"total_instances"`

	// ParseErrors counts annotation files that could not be read. Their
	// images count as positive.
	ParseErrors int `json:"parse_errors"`

	// PerImage describes the instance count of each parsed positive image.
	PerImage Distribution `json:"instances_per_image"`
}

// Scan reads the annotation of every image, in the given order, and
// aggregates category frequencies. images should be the full dataset in
// sorted order: the first-seen order of categories found here later becomes
// the category id order.
//
// Unreadable annotation files are logged and counted; only an invalid
// format stops the scan.
func Scan(root string, images []string, format annotation.Format, obs monitoring.Observer) (*Summary, error) {
	parser, err := annotation.NewParser(format)
	if err != nil {
		return nil, err
	}
	if obs == nil {
		obs = monitoring.Discard
	}

	s := &Summary{Categories: &Frequencies{}}
	var perImage []int
	for i, img := range images {
		path, ok := annotation.Locate(root, img, format)
		if !ok {
			s.Negative++
			obs.Progress(i+1, len(images))
			continue
		}
		ann, err := annotation.ParseFile(parser, path)
		if err != nil {
			monitoring.Logf("Failed to parse annotation for %s: %v", img, err)
			s.Positive++
			s.ParseErrors++
			obs.Progress(i+1, len(images))
			continue
		}
		// an xml file without objects marks a negative image
		if ann.Negative {
			s.Negative++
			obs.Progress(i+1, len(images))
			continue
		}
		s.Positive++
		for _, name := range ann.Categories() {
			s.Categories.Add(name)
		}
		s.TotalInstances += ann.Count()
		perImage = append(perImage, ann.Count())
		obs.Progress(i+1, len(images))
	}

	s.PerImage = Describe(perImage)
	monitoring.Debugf("scan of %d images: %d positive, %d negative, %d categories",
		len(images), s.Positive, s.Negative, s.Categories.Len())
	return s, nil
}

// Print writes the summary block shown at the end of a run.
func (s *Summary) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"**********<SUMMARY STATISTICS>**********\n"+
			"Positive images: %d\n"+
			"Negative images: %d\n"+
			"Categories: %d\n"+
			"Total instances: %d\n"+
			"****************************************\n",
		s.Positive, s.Negative, s.Categories.Len(), s.TotalInstances)
	return err
}
