package storyboard

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/eringen/storyboard/editor"
)

const (
	ogImageWidth  = 1200
	jpegQuality   = 82
	maxUploadSize = 10 << 20 // 10MB
)

// processImage decodes src, scales it down to ogImageWidth when wider and
// encodes it as JPEG.
func processImage(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if w, h := bounds.Dx(), bounds.Dy(); w > ogImageWidth {
		dst := image.NewRGBA(image.Rect(0, 0, ogImageWidth, h*ogImageWidth/w))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// uploadName turns an uploaded file name into a unique URL-safe name.
func uploadName(original string) string {
	base := editor.GenerateSlug(strings.TrimSuffix(filepath.Base(original), filepath.Ext(original)))
	if base == "" {
		base = "image"
	}
	return base + "-" + uuid.NewString()[:8] + ".jpg"
}

func (a *App) handleImageUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No image file provided"})
	}
	if file.Size > maxUploadSize {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "File too large (max 10MB)"})
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	data, err := processImage(io.LimitReader(src, maxUploadSize))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid image"})
	}

	name := uploadName(file.Filename)
	location, err := a.Images.Put(c.Request().Context(), name, data, "image/jpeg")
	if err != nil {
		return err
	}
	a.Logger.Info("image uploaded", zap.String("file", name), zap.Int("bytes", len(data)))
	return c.JSON(http.StatusOK, map[string]string{"url": location})
}
