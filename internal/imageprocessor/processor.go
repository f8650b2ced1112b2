package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrNotAnImage    = errors.New("file is not a supported image")
	ErrImageTooLarge = errors.New("image exceeds the allowed size")
	ErrDecodeFailed  = errors.New("failed to decode image")
)

// Result is a normalized image ready for storage
type Result struct {
	Data        []byte
	ContentType string
	Extension   string
	Width       int
	Height      int
}

// Processor handles avatar validation and downscaling
type Processor struct {
	quality      int   // JPEG quality (1-100)
	maxBytes     int64 // upload limit before processing
	maxDimension int   // longest side after processing
	maxPixels    int   // width*height limit checked before full decode
	allowed      map[string]struct{}
}

// NewProcessor creates a new image processor
func NewProcessor(quality int, maxBytes int64, maxDimension, maxPixels int, allowedTypes []string) *Processor {
	if quality <= 0 || quality > 100 {
		quality = 85 // Default quality
	}
	allowed := make(map[string]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = struct{}{}
	}
	return &Processor{
		quality:      quality,
		maxBytes:     maxBytes,
		maxDimension: maxDimension,
		maxPixels:    maxPixels,
		allowed:      allowed,
	}
}

// Detect sniffs the content type and checks it against the allow list
func (p *Processor) Detect(data []byte) (*mimetype.MIME, error) {
	if p.maxBytes > 0 && int64(len(data)) > p.maxBytes {
		return nil, ErrImageTooLarge
	}
	mt := mimetype.Detect(data)
	if _, ok := p.allowed[mt.String()]; !ok {
		return nil, ErrNotAnImage
	}
	return mt, nil
}

// Process validates the upload, downscales it if needed and re-encodes it.
// JPEG stays JPEG; PNG, GIF and WebP are written as PNG.
func (p *Processor) Process(data []byte) (*Result, error) {
	mt, err := p.Detect(data)
	if err != nil {
		return nil, err
	}

	// Размеры из заголовка: сжатый файл может распаковаться в сотни мегабайт
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrDecodeFailed
	}
	if p.maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(p.maxPixels) {
		return nil, ErrImageTooLarge
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	if p.maxDimension > 0 {
		img = p.fit(img, p.maxDimension)
	}

	var buf bytes.Buffer
	res := &Result{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}

	if mt.Is("image/jpeg") {
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
		res.ContentType, res.Extension = "image/jpeg", "jpg"
	} else {
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode PNG: %w", err)
		}
		res.ContentType, res.Extension = "image/png", "png"
	}

	res.Data = buf.Bytes()
	return res, nil
}

// fit scales the image so that its longest side is at most maxSide, keeping aspect ratio
func (p *Processor) fit(img image.Image, maxSide int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxSide && height <= maxSide {
		return img
	}

	newWidth, newHeight := maxSide, maxSide
	if width > height {
		newHeight = height * maxSide / width
	} else {
		newWidth = width * maxSide / height
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return dst
}
