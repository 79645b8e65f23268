package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func annotationFormatProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"txt", "xml"},
		"description": "Annotation format. Default txt",
		"default":     "txt",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Images
		{
			Name:        "image_info",
			Description: "Read an image file and return its dimensions, format, color depth and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProp("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file, as written to the COCO images array.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProp("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},

		// Annotations
		{
			Name:        "annotation_locate",
			Description: "Find the annotation file belonging to an image. TXT annotations live in <root_dir>/labels, XML annotations next to the image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"root_dir":          stringProp("Dataset root directory"),
					"image_path":        stringProp("Absolute path to the image file"),
					"annotation_format": annotationFormatProp(),
				},
				"required": []string{"root_dir", "image_path"},
			},
		},
		{
			Name:        "annotation_parse",
			Description: "Parse an annotation file and list its objects. An XML file without objects is reported as negative.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":              stringProp("Absolute path to the annotation file"),
					"annotation_format": annotationFormatProp(),
				},
				"required": []string{"path"},
			},
		},

		// Datasets
		{
			Name:        "dataset_stats",
			Description: "Count positive and negative images, categories and instances of a dataset.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"root_dir":          stringProp("Dataset root directory"),
					"image_format":      stringProp("Image file extension. Default jpg"),
					"annotation_format": annotationFormatProp(),
					"chart_dir":         stringProp("Optional directory to render the category chart into"),
				},
				"required": []string{"root_dir"},
			},
		},
		{
			Name:        "dataset_convert_xml",
			Description: "Convert every VOC XML file under root_dir to TXT and move the originals into xml_backup directories.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"root_dir": stringProp("Dataset root directory"),
				},
				"required": []string{"root_dir"},
			},
		},
		{
			Name:        "dataset_generate_coco",
			Description: "Split a dataset into train and test sets and write instances_train2020.json and instances_test2020.json to output_dir.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"root_dir":          stringProp("Dataset root directory"),
					"output_dir":        stringProp("Directory receiving the COCO documents"),
					"image_format":      stringProp("Image file extension. Default jpg"),
					"annotation_format": annotationFormatProp(),
					"train_ratio": map[string]interface{}{
						"type":        "number",
						"description": "Fraction of images in the train split, in (0, 1]. Default 0.8",
						"default":     0.8,
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Shuffle seed. Default 10",
						"default":     10,
					},
					"strict": map[string]interface{}{
						"type":        "boolean",
						"description": "Fail on the first malformed annotation instead of skipping the image",
						"default":     false,
					},
				},
				"required": []string{"root_dir", "output_dir"},
			},
		},
	}
}
