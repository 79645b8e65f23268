// Package imaging reads raster metadata for dataset images.
//
// COCO image records need the pixel width and height of every image. This
// package decodes images with github.com/disintegration/imaging and the
// golang.org/x/image decoders so that JPEG, PNG, GIF, BMP, WebP and 8/16-bit
// TIFF datasets are all accepted.
//
// # Thread Safety
//
// The DimensionCache type is safe for concurrent use. ReadImageInfo is
// stateless and can be called concurrently.
//
// # Error Handling
//
// Functions return errors for missing files, files no decoder accepts and
// rasters with empty bounds. Callers in batch code log the error and move on
// to the next image; one bad file never aborts a conversion.
package imaging
