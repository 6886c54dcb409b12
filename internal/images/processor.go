// Package images is the image codec collaborator: it takes a raw upload
// buffer and produces a resized JPEG at a deterministic generated path.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	// Register decoders for the formats uploads commonly arrive in.
	_ "image/gif"
	_ "image/png"
)

const jpegQuality = 90

type Processor struct {
	baseDir string
}

// NewProcessor writes processed images under baseDir (e.g. "public/img").
func NewProcessor(baseDir string) *Processor {
	return &Processor{baseDir: baseDir}
}

// UserPhotoName builds the deterministic-per-upload filename for a profile
// photo.
func UserPhotoName(userID uint) string {
	return fmt.Sprintf("user-%d-%s.jpeg", userID, uuid.NewString())
}

// TourImageName builds the filename for a tour image; index 0 is the cover.
func TourImageName(tourID uint, index int) string {
	if index == 0 {
		return fmt.Sprintf("tour-%d-%s-cover.jpeg", tourID, uuid.NewString())
	}
	return fmt.Sprintf("tour-%d-%s-%d.jpeg", tourID, uuid.NewString(), index)
}

// ResizeJPEG decodes the upload, scales it to exactly width x height, and
// writes it as a JPEG under the processor's base directory at
// subDir/fileName.
func (processor *Processor) ResizeJPEG(raw []byte, width int, height int, subDir string, fileName string) error {
	source, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), source, source.Bounds(), draw.Over, nil)

	targetDir := filepath.Join(processor.baseDir, subDir)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("create image directory: %w", err)
	}

	file, err := os.Create(filepath.Join(targetDir, fileName))
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer file.Close()

	if err := jpeg.Encode(file, scaled, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}
