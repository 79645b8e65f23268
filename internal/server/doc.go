// Package server implements an MCP (Model Context Protocol) server that
// exposes the dataset tooling to MCP clients.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Images:
//   - image_info: Dimensions, format, color depth and file size
//   - image_dimensions: Width and height as used in COCO image records
//
// Annotations:
//   - annotation_locate: Where an image's TXT or XML annotation lives
//   - annotation_parse: Objects of one annotation file
//
// Datasets:
//   - dataset_stats: Positive/negative counts and category frequencies
//   - dataset_convert_xml: In-place VOC XML to TXT conversion
//   - dataset_generate_coco: Train/test split and COCO JSON output
//
// # Dimension Caching
//
// Image sizes are cached by path for the lifetime of the server, so repeated
// calls over the same dataset decode each image once. Only metadata is kept.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000, message "Tool execution failed" and the Go error string as data.
// Logging goes to stderr; stdout carries protocol traffic only.
package server
