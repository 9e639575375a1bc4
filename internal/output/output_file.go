package output

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/weather-bot/meow/internal/logger"
)

type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// FormatFromPath picks the encoder from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".bmp":
		return BMP, nil
	case ".tif", ".tiff":
		return TIFF, nil
	}
	return "", fmt.Errorf("unsupported output format %q", filepath.Ext(path))
}

func (f Format) ContentType() string {
	return "image/" + string(f)
}

func Encode(w io.Writer, img image.Image, format Format, quality int) error {
	switch format {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("unsupported output format %q", format)
}

type FileHandler struct {
	path    string
	format  Format
	quality int
}

func NewFileHandler(path string, quality int) (*FileHandler, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return &FileHandler{path: path, format: format, quality: quality}, nil
}

func (f *FileHandler) GetType() string {
	return "file"
}

// Output encodes into a temporary file and renames it over the target, so
// readers never see a half-written card.
func (f *FileHandler) Output(img image.Image) error {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f.format, f.quality); err != nil {
		return fmt.Errorf("encode %s: %w", f.format, err)
	}

	dir, base := filepath.Split(f.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	success = true

	logger.DebugModule("output", "wrote %s (%d bytes)", f.path, buf.Len())
	return nil
}

func (f *FileHandler) Close() error {
	return nil
}

// WriterHandler encodes onto an io.Writer such as an HTTP response.
type WriterHandler struct {
	w       io.Writer
	format  Format
	quality int
}

func NewWriterHandler(w io.Writer, format Format, quality int) *WriterHandler {
	return &WriterHandler{w: w, format: format, quality: quality}
}

func (h *WriterHandler) GetType() string {
	return "writer"
}

func (h *WriterHandler) Output(img image.Image) error {
	return Encode(h.w, img, h.format, h.quality)
}

func (h *WriterHandler) Close() error {
	if c, ok := h.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
