package coco

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/coco-tools/internal/annotation"
	"github.com/ironsheep/coco-tools/internal/monitoring"
	"github.com/ironsheep/coco-tools/internal/stats"
)

// fakeDims serves fixed sizes; paths not listed fail to "decode".
type fakeDims map[string][2]int

func (f fakeDims) Dimensions(path string) (int, int, error) {
	d, ok := f[path]
	if !ok {
		return 0, 0, fmt.Errorf("cannot decode %s", path)
	}
	return d[0], d[1], nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func muteLogs(t *testing.T) {
	t.Helper()
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = prev })
}

// fixture lays out root/images/<name> with labels for the given names.
func fixture(t *testing.T, labels map[string]string, names ...string) (string, []string, fakeDims) {
	t.Helper()
	root := t.TempDir()
	dims := fakeDims{}
	var imgs []string
	for _, n := range names {
		p := filepath.Join(root, "images", n)
		imgs = append(imgs, p)
		dims[p] = [2]int{640, 480}
	}
	for stem, content := range labels {
		writeFile(t, filepath.Join(root, "labels", stem+".txt"), content)
	}
	return root, imgs, dims
}

func newBuilder(t *testing.T, root string, reg *Registry, dims DimensionReader) *Builder {
	t.Helper()
	b, err := NewBuilder(Options{Root: root, Format: annotation.TXT, Registry: reg, Dimensions: dims})
	require.NoError(t, err)
	return b
}

func TestNewAnnotation(t *testing.T) {
	rec := NewAnnotation(10, 20, 50, 80, 3)

	assert.Equal(t, [4]int{10, 20, 40, 60}, rec.BBox)
	assert.Equal(t, Area(2400), rec.Area)
	assert.Equal(t, [][]int{{10, 20, 10, 80, 50, 80, 50, 20}}, rec.Segmentation)
	assert.Equal(t, 3, rec.CategoryID)
	assert.Zero(t, rec.IsCrowd)
	assert.Zero(t, rec.Ignore)
}

func TestArea_MarshalJSON(t *testing.T) {
	tests := []struct {
		in   Area
		want string
	}{
		{2400, "2400.0"},
		{0, "0.0"},
		{-12, "-12.0"},
		{1.5, "1.5"},
		{roundArea(2.123456), "2.123"},
	}
	for _, tt := range tests {
		got, err := json.Marshal(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}
}

func TestRegistry(t *testing.T) {
	reg := BuildRegistry(stats.NewFrequencies("car", "person", "car", "bike"))

	want := []CategoryRecord{
		{Supercategory: "none", ID: 1, Name: "car"},
		{Supercategory: "none", ID: 2, Name: "person"},
		{Supercategory: "none", ID: 3, Name: "bike"},
	}
	if diff := cmp.Diff(want, reg.Categories()); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}

	c, ok := reg.Lookup("bike")
	require.True(t, ok)
	assert.Equal(t, 3, c.ID)

	_, ok = reg.Lookup("bik")
	assert.False(t, ok, "lookup is exact, not substring")
}

func TestRegistry_IDsAreDense(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g"}
	reg := NewRegistry(names)
	seen := map[int]bool{}
	for i, c := range reg.Categories() {
		assert.Equal(t, i+1, c.ID)
		assert.Equal(t, names[i], c.Name)
		assert.False(t, seen[c.ID])
		seen[c.ID] = true
	}
	assert.Equal(t, len(names), reg.Len())
}

func TestRegistry_DuplicateNameFirstWins(t *testing.T) {
	reg := NewRegistry([]string{"car", "truck", "car"})
	c, ok := reg.Lookup("car")
	require.True(t, ok)
	assert.Equal(t, 1, c.ID)
	assert.Equal(t, 3, reg.Len())
}

func TestRegistry_Empty(t *testing.T) {
	assert.Equal(t, 0, BuildRegistry(nil).Len())
	assert.Empty(t, BuildRegistry(&stats.Frequencies{}).Categories())
	var nilFreq *stats.Frequencies
	assert.Equal(t, 0, BuildRegistry(nilFreq).Len())
}

func TestNewBuilder_Errors(t *testing.T) {
	_, err := NewBuilder(Options{})
	assert.True(t, errors.Is(err, ErrNoRegistry))

	_, err = NewBuilder(Options{Registry: NewRegistry(nil), Format: annotation.Format(5)})
	assert.True(t, errors.Is(err, annotation.ErrUnknownFormat))
}

func TestBuild_NegativeImageContributesNothing(t *testing.T) {
	root, imgs, dims := fixture(t, map[string]string{
		"a": "car 10 20 50 80\n",
		"c": "car 1 1 5 5\n",
	}, "a.jpg", "b.jpg", "c.jpg")

	reg := NewRegistry([]string{"car"})
	res, err := newBuilder(t, root, reg, dims).Build(imgs)
	require.NoError(t, err)
	doc := res.Document

	assert.Len(t, doc.Images, 2)
	assert.Len(t, doc.Annotations, 2)
	assert.Equal(t, []CategoryRecord{{Supercategory: "none", ID: 1, Name: "car"}}, doc.Categories)
	assert.Equal(t, "instances", doc.Type)

	assert.Equal(t, "a.jpg", doc.Images[0].FileName)
	assert.Equal(t, "c.jpg", doc.Images[1].FileName)
	assert.Equal(t, DefaultImageIDBase+1, doc.Images[0].ID)
	assert.Equal(t, DefaultImageIDBase+2, doc.Images[1].ID)
	assert.Equal(t, 640, doc.Images[0].Width)
	assert.Equal(t, 480, doc.Images[0].Height)

	assert.Equal(t, int64(1), doc.Annotations[0].ID)
	assert.Equal(t, int64(2), doc.Annotations[1].ID)
	assert.Equal(t, doc.Images[1].ID, doc.Annotations[1].ImageID)

	assert.Equal(t, 1, res.Stats.SkippedNegative)
	assert.Equal(t, 2, res.Stats.Images)
	assert.Equal(t, 2, res.Stats.Annotations)
}

func TestBuild_UnregisteredCategoryDropped(t *testing.T) {
	root, imgs, dims := fixture(t, map[string]string{
		"a": "airplane 1 1 5 5\ncar 2 2 4 4\n",
	}, "a.jpg")

	res, err := newBuilder(t, root, NewRegistry([]string{"car"}), dims).Build(imgs)
	require.NoError(t, err)

	require.Len(t, res.Document.Annotations, 1)
	assert.Equal(t, 1, res.Document.Annotations[0].CategoryID)
	assert.Equal(t, 1, res.Stats.DroppedInstances)
}

func TestBuild_UnregisteredWithBadNumbersIsNotMalformed(t *testing.T) {
	muteLogs(t)
	root, imgs, dims := fixture(t, map[string]string{
		"a": "airplane x y z w\n",
	}, "a.jpg")

	res, err := newBuilder(t, root, NewRegistry([]string{"car"}), dims).Build(imgs)
	require.NoError(t, err)
	assert.Len(t, res.Document.Images, 1)
	assert.Zero(t, res.Stats.MalformedAnnotations)
	assert.Equal(t, 1, res.Stats.DroppedInstances)
}

func TestBuild_UnreadableImageSkipped(t *testing.T) {
	muteLogs(t)
	root, imgs, dims := fixture(t, map[string]string{
		"a": "car 1 1 5 5\n",
		"b": "car 1 1 5 5\n",
	}, "a.jpg", "b.jpg")
	delete(dims, imgs[0])

	res, err := newBuilder(t, root, NewRegistry([]string{"car"}), dims).Build(imgs)
	require.NoError(t, err)

	require.Len(t, res.Document.Images, 1)
	assert.Equal(t, "b.jpg", res.Document.Images[0].FileName)
	assert.Equal(t, DefaultImageIDBase+1, res.Document.Images[0].ID)
	assert.Equal(t, 1, res.Stats.UnreadableImages)
}

func TestBuild_MalformedAnnotation(t *testing.T) {
	muteLogs(t)
	labels := map[string]string{
		"a": "car 1 1 5 5\n",
		"b": "car 1 1 5 5\ncar 1 one 5 5\n",
		"c": "car 1 1 5\n",
		"d": "car 2 2 6 6\n",
	}

	t.Run("lenient", func(t *testing.T) {
		root, imgs, dims := fixture(t, labels, "a.jpg", "b.jpg", "c.jpg", "d.jpg")
		res, err := newBuilder(t, root, NewRegistry([]string{"car"}), dims).Build(imgs)
		require.NoError(t, err)

		doc := res.Document
		require.Len(t, doc.Images, 2)
		assert.Equal(t, "d.jpg", doc.Images[1].FileName)
		assert.Len(t, doc.Annotations, 2)
		assert.Equal(t, 2, res.Stats.MalformedAnnotations)
	})

	t.Run("strict", func(t *testing.T) {
		root, imgs, dims := fixture(t, labels, "a.jpg", "b.jpg", "c.jpg", "d.jpg")
		b, err := NewBuilder(Options{Root: root, Format: annotation.TXT, Registry: NewRegistry([]string{"car"}), Dimensions: dims, Strict: true})
		require.NoError(t, err)

		_, err = b.Build(imgs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "b.jpg")
	})
}

func TestBuild_XMLFormat(t *testing.T) {
	root := t.TempDir()
	img := filepath.Join(root, "a.jpg")
	writeFile(t, filepath.Join(root, "a.xml"), `<annotation>
		<object><name>dog</name><bndbox><xmin>10</xmin><ymin>20</ymin><xmax>50</xmax><ymax>80</ymax></bndbox></object>
	</annotation>`)

	b, err := NewBuilder(Options{
		Root:       root,
		Format:     annotation.XML,
		Registry:   NewRegistry([]string{"cat", "dog"}),
		Dimensions: fakeDims{img: {100, 100}},
	})
	require.NoError(t, err)

	res, err := b.Build([]string{img})
	require.NoError(t, err)
	require.Len(t, res.Document.Annotations, 1)
	assert.Equal(t, 2, res.Document.Annotations[0].CategoryID)
	assert.Equal(t, [4]int{10, 20, 40, 60}, res.Document.Annotations[0].BBox)
}

func TestBuild_IDsResetPerDocument(t *testing.T) {
	root, imgs, dims := fixture(t, map[string]string{
		"a": "car 1 1 5 5\ncar 2 2 6 6\n",
		"b": "car 1 1 5 5\n",
	}, "a.jpg", "b.jpg")
	b := newBuilder(t, root, NewRegistry([]string{"car"}), dims)

	first, err := b.Build(imgs[:1])
	require.NoError(t, err)
	second, err := b.Build(imgs[1:])
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Document.Annotations[0].ID)
	assert.Equal(t, int64(1), second.Document.Annotations[0].ID)
	assert.Equal(t, DefaultImageIDBase+1, second.Document.Images[0].ID)
}

func TestBuild_Invariants(t *testing.T) {
	labels := map[string]string{}
	var names []string
	for i := 0; i < 20; i++ {
		stem := fmt.Sprintf("img%02d", i)
		names = append(names, stem+".jpg")
		if i%3 == 0 {
			continue // negative
		}
		labels[stem] = "car 1 1 5 5\nperson 2 2 8 8\nghost 0 0 1 1\n"
	}
	root, imgs, dims := fixture(t, labels, names...)

	res, err := newBuilder(t, root, NewRegistry([]string{"car", "person"}), dims).Build(imgs)
	require.NoError(t, err)
	doc := res.Document

	imageIDs := map[int64]bool{}
	var prev int64
	for _, im := range doc.Images {
		assert.False(t, imageIDs[im.ID], "duplicate image id %d", im.ID)
		assert.Greater(t, im.ID, prev)
		imageIDs[im.ID] = true
		prev = im.ID
	}

	prev = 0
	for _, a := range doc.Annotations {
		assert.True(t, imageIDs[a.ImageID], "annotation %d references missing image %d", a.ID, a.ImageID)
		assert.Equal(t, prev+1, a.ID)
		prev = a.ID
	}
	assert.Equal(t, len(doc.Images)*2, len(doc.Annotations))
	assert.Equal(t, len(doc.Images), res.Stats.DroppedInstances)
}

func TestBuild_RealImages(t *testing.T) {
	root := t.TempDir()
	img := filepath.Join(root, "shot.png")
	f, err := os.Create(img)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 33, 21))))
	require.NoError(t, f.Close())
	writeFile(t, filepath.Join(root, "labels", "shot.txt"), "car 1 2 3 4\n")

	b, err := NewBuilder(Options{Root: root, Format: annotation.TXT, Registry: NewRegistry([]string{"car"})})
	require.NoError(t, err)
	res, err := b.Build([]string{img})
	require.NoError(t, err)

	require.Len(t, res.Document.Images, 1)
	assert.Equal(t, 33, res.Document.Images[0].Width)
	assert.Equal(t, 21, res.Document.Images[0].Height)
}

func TestBuild_Progress(t *testing.T) {
	root, imgs, dims := fixture(t, nil, "a.jpg", "b.jpg", "c.jpg")
	var got []int
	b, err := NewBuilder(Options{
		Root: root, Registry: NewRegistry(nil), Dimensions: dims,
		Observer: monitoring.ObserverFunc(func(done, total int) { got = append(got, done) }),
	})
	require.NoError(t, err)

	res, err := b.Build(imgs)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Empty(t, res.Document.Images)
	assert.NotNil(t, res.Document.Annotations)
}

func TestSplit(t *testing.T) {
	var imgs []string
	for i := 0; i < 10; i++ {
		imgs = append(imgs, fmt.Sprintf("img%d.jpg", i))
	}
	orig := append([]string(nil), imgs...)

	train, test, err := Split(imgs, 0.8, DefaultSeed)
	require.NoError(t, err)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)
	assert.Equal(t, orig, imgs, "input must not be mutated")
	assert.ElementsMatch(t, imgs, append(append([]string(nil), train...), test...))

	train2, test2, err := Split(imgs, 0.8, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)
}

func TestSplit_Ratios(t *testing.T) {
	imgs := []string{"a", "b", "c", "d", "e", "f", "g"}

	for _, ratio := range []float64{0.1, 0.25, 0.5, 0.8, 0.99} {
		train, test, err := Split(imgs, ratio, 42)
		require.NoError(t, err)
		assert.Equal(t, len(imgs), len(train)+len(test))
		assert.ElementsMatch(t, imgs, append(append([]string(nil), train...), test...))
	}

	train, test, err := Split(imgs, 1.0, 1)
	require.NoError(t, err)
	assert.Len(t, train, 7)
	assert.Empty(t, test)

	train, test, err = Split(nil, 0.5, 1)
	require.NoError(t, err)
	assert.Empty(t, train)
	assert.Empty(t, test)
}

func TestSplit_InvalidRatio(t *testing.T) {
	for _, ratio := range []float64{0, -0.5, 1.01} {
		_, _, err := Split([]string{"a"}, ratio, 1)
		assert.True(t, errors.Is(err, ErrInvalidRatio), "ratio %v", ratio)
	}
}

func TestMarshal_Layout(t *testing.T) {
	rec := NewAnnotation(10, 20, 50, 80, 1)
	rec.ImageID = 20200000001
	rec.ID = 1
	doc := &Document{
		Categories:  NewRegistry([]string{"car"}).Categories(),
		Images:      []ImageRecord{{ID: 20200000001, FileName: "a.jpg", Width: 100, Height: 100}},
		Annotations: []AnnotationRecord{rec},
		Type:        DocumentType,
	}

	got, err := Marshal(doc)
	require.NoError(t, err)

	want := `{
    "categories": [
        {
            "supercategory": "none",
            "id": 1,
            "name": "car"
        }
    ],
    "images": [
        {
            "id": 20200000001,
            "file_name": "a.jpg",
            "width": 100,
            "height": 100
        }
    ],
    "annotations": [
        {
            "segmentation": [
                [
                    10,
                    20,
                    10,
                    80,
                    50,
                    80,
                    50,
                    20
                ]
            ],
            "area": 2400.0,
            "iscrowd": 0,
            "ignore": 0,
            "image_id": 20200000001,
            "bbox": [
                10,
                20,
                40,
                60
            ],
            "category_id": 1,
            "id": 1
        }
    ],
    "type": "instances"
}`
	assert.Equal(t, want, string(got))
}

func TestMarshal_EmptyDocument(t *testing.T) {
	got, err := Marshal(&Document{Categories: []CategoryRecord{}, Images: []ImageRecord{}, Annotations: []AnnotationRecord{}, Type: DocumentType})
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"categories\": [],\n    \"images\": [],\n    \"annotations\": [],\n    \"type\": \"instances\"\n}", string(got))
}

func TestEscapeNonASCII(t *testing.T) {
	assert.Equal(t, `"caf\u00e9 \ud83d\ude97 <ok>"`, string(escapeNonASCII([]byte("\"café 🚗 <ok>\""))))
}

func TestWriteAndReadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", TrainFile)
	rec := NewAnnotation(0, 0, 3, 3, 1)
	rec.ID, rec.ImageID = 1, DefaultImageIDBase+1
	doc := &Document{
		Categories:  NewRegistry([]string{"voiture"}).Categories(),
		Images:      []ImageRecord{{ID: DefaultImageIDBase + 1, FileName: "é.jpg", Width: 3, Height: 3}},
		Annotations: []AnnotationRecord{rec},
		Type:        DocumentType,
	}
	require.NoError(t, WriteDocument(path, doc))

	back, err := ReadDocument(path)
	require.NoError(t, err)
	if diff := cmp.Diff(doc, back); diff != "" {
		t.Errorf("document changed on disk (-want +got):\n%s", diff)
	}
}
