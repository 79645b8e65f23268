package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/coco-tools/internal/annotation"
	"github.com/ironsheep/coco-tools/internal/config"
	"github.com/ironsheep/coco-tools/internal/dataset"
	"github.com/ironsheep/coco-tools/internal/imaging"
	"github.com/ironsheep/coco-tools/internal/monitoring"
	"github.com/ironsheep/coco-tools/internal/stats"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "dataset_stats").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_info":
		return s.handleImageInfo(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	case "annotation_locate":
		return s.handleAnnotationLocate(args)
	case "annotation_parse":
		return s.handleAnnotationParse(args)

	case "dataset_stats":
		return s.handleDatasetStats(args)
	case "dataset_convert_xml":
		return s.handleDatasetConvertXML(args)
	case "dataset_generate_coco":
		return s.handleDatasetGenerateCOCO(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{JSONRPC: "2.0", ID: id, Error: e}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func requireDir(name, path string) error {
	if path == "" {
		return fmt.Errorf("%s is required", name)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s %q is not a directory", name, path)
	}
	return nil
}

// parseFormat treats an empty name as txt.
func parseFormat(name string) (annotation.Format, error) {
	if name == "" {
		return annotation.TXT, nil
	}
	return annotation.ParseFormat(name)
}

// === Image Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.cache.Info(a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Annotation Handlers ===

type annotationLocateArgs struct {
	RootDir          string `json:"root_dir"`
	ImagePath        string `json:"image_path"`
	AnnotationFormat string `json:"annotation_format"`
}

// AnnotationLocateResult reports where an image's annotation is expected
// and whether it exists.
type AnnotationLocateResult struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

func (s *Server) handleAnnotationLocate(args json.RawMessage) (interface{}, error) {
	var a annotationLocateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ImagePath == "" {
		return nil, errors.New("image_path is required")
	}
	format, err := parseFormat(a.AnnotationFormat)
	if err != nil {
		return nil, err
	}
	path, ok := annotation.Locate(a.RootDir, a.ImagePath, format)
	if !ok {
		path = annotation.Path(a.RootDir, a.ImagePath, format)
	}
	return &AnnotationLocateResult{Path: path, Exists: ok}, nil
}

type annotationParseArgs struct {
	Path             string `json:"path"`
	AnnotationFormat string `json:"annotation_format"`
}

// AnnotationParseResult lists the objects of one annotation file.
type AnnotationParseResult struct {
	*annotation.Annotation
	Categories []string `json:"categories"`
	Count      int      `json:"count"`
}

func (s *Server) handleAnnotationParse(args json.RawMessage) (interface{}, error) {
	var a annotationParseArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	format, err := parseFormat(a.AnnotationFormat)
	if err != nil {
		return nil, err
	}
	if a.AnnotationFormat == "" && filepath.Ext(a.Path) == annotation.XML.Ext() {
		format = annotation.XML
	}
	parser, err := annotation.NewParser(format)
	if err != nil {
		return nil, err
	}
	ann, err := annotation.ParseFile(parser, a.Path)
	if err != nil {
		return nil, err
	}
	return &AnnotationParseResult{Annotation: ann, Categories: ann.Categories(), Count: ann.Count()}, nil
}

// === Dataset Handlers ===

type datasetStatsArgs struct {
	RootDir          string `json:"root_dir"`
	ImageFormat      string `json:"image_format"`
	AnnotationFormat string `json:"annotation_format"`
	ChartDir         string `json:"chart_dir"`
}

// DatasetStatsResult is the output of the dataset_stats tool.
type DatasetStatsResult struct {
	Images    int            `json:"images"`
	Summary   *stats.Summary `json:"summary"`
	ChartPath string         `json:"chart_path,omitempty"`
}

func (s *Server) handleDatasetStats(args json.RawMessage) (interface{}, error) {
	var a datasetStatsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireDir("root_dir", a.RootDir); err != nil {
		return nil, err
	}
	format, err := parseFormat(a.AnnotationFormat)
	if err != nil {
		return nil, err
	}
	if a.ImageFormat == "" {
		a.ImageFormat = config.Default().ImageFormat
	}

	images, err := dataset.Discover(a.RootDir, a.ImageFormat)
	if err != nil {
		return nil, err
	}
	summary, err := stats.Scan(a.RootDir, images, format, monitoring.Discard)
	if err != nil {
		return nil, err
	}

	result := &DatasetStatsResult{Images: len(images), Summary: summary}
	if a.ChartDir != "" {
		if err := os.MkdirAll(a.ChartDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create chart dir: %w", err)
		}
		chart := filepath.Join(a.ChartDir, stats.ChartFile)
		switch err := stats.RenderChart(chart, summary.Categories); {
		case errors.Is(err, stats.ErrNoCategories):
		case err != nil:
			return nil, err
		default:
			result.ChartPath = chart
		}
	}
	return result, nil
}

type rootArgs struct {
	RootDir string `json:"root_dir"`
}

func (s *Server) handleDatasetConvertXML(args json.RawMessage) (interface{}, error) {
	var a rootArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireDir("root_dir", a.RootDir); err != nil {
		return nil, err
	}
	return annotation.ConvertXMLTree(a.RootDir)
}

type datasetGenerateArgs struct {
	RootDir          string   `json:"root_dir"`
	OutputDir        string   `json:"output_dir"`
	ImageFormat      string   `json:"image_format"`
	AnnotationFormat string   `json:"annotation_format"`
	TrainRatio       *float64 `json:"train_ratio"`
	Seed             *int64   `json:"seed"`
	Strict           bool     `json:"strict"`
}

// resolve fills in a against the command-line defaults.
func (a *datasetGenerateArgs) resolve() *config.Config {
	cfg := config.Default()
	cfg.RootDir = a.RootDir
	cfg.OutputDir = a.OutputDir
	cfg.Strict = a.Strict
	cfg.GenerateJSON = true
	if a.ImageFormat != "" {
		cfg.ImageFormat = a.ImageFormat
	}
	if a.AnnotationFormat != "" {
		cfg.AnnotationFormat = a.AnnotationFormat
	}
	if a.TrainRatio != nil {
		cfg.TrainRatio = *a.TrainRatio
	}
	if a.Seed != nil {
		cfg.Seed = *a.Seed
	}
	return cfg
}

// DatasetGenerateResult is the output of the dataset_generate_coco tool.
type DatasetGenerateResult struct {
	Summary *stats.Summary          `json:"summary"`
	Output  *dataset.GenerateReport `json:"output"`
}

func (s *Server) handleDatasetGenerateCOCO(args json.RawMessage) (interface{}, error) {
	var a datasetGenerateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cfg := a.resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	format, err := cfg.Format()
	if err != nil {
		return nil, err
	}

	images, err := dataset.Discover(cfg.RootDir, cfg.ImageExt())
	if err != nil {
		return nil, err
	}
	summary, err := stats.Scan(cfg.RootDir, images, format, monitoring.Discard)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	// The shared cache keeps image sizes across repeated calls on one dataset.
	gen, err := dataset.GenerateCOCO(dataset.GenerateOptions{
		Root:        cfg.RootDir,
		OutputDir:   cfg.OutputDir,
		Format:      format,
		Images:      images,
		Frequencies: summary.Categories,
		TrainRatio:  cfg.TrainRatio,
		Seed:        cfg.Seed,
		Strict:      cfg.Strict,
		Dimensions:  s.cache,
	})
	if err != nil {
		return nil, err
	}
	return &DatasetGenerateResult{Summary: summary, Output: gen}, nil
}
