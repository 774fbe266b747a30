package utils

import (
	"bytes"
	"crypto/rand"
	"errors"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math/big"

	"github.com/nfnt/resize"
)

func Rand16BytesToBase62() string {
	buf := make([]byte, 16)
	_, err := rand.Read(buf)
	if err != nil {
		panic(err)
	}
	var i big.Int
	return i.SetBytes(buf).Text(62)
}

func Rand8BytesToBase62() string {
	buf := make([]byte, 8)
	_, err := rand.Read(buf)
	if err != nil {
		panic(err)
	}
	var i big.Int
	return i.SetBytes(buf).Text(62)
}

type ImageFitResult struct {
	Size    int64
	Resized bool
	NewX    uint16
	NewY    uint16
	OldX    uint16
	OldY    uint16
}

// FitImage writes the image scaled down to fit maxX x maxY (aspect ratio kept).
// GIFs (possibly animated), formats we cannot decode and images already small enough are written unchanged.
func FitImage(maxX, maxY uint, data []byte, writer io.Writer) (result ImageFitResult, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return copyUnchanged(data, writer)
		}
		return result, err
	}
	result.OldX = uint16(cfg.Width)
	result.OldY = uint16(cfg.Height)
	if format == "gif" || (uint(cfg.Width) <= maxX && uint(cfg.Height) <= maxY) {
		unchanged, err := copyUnchanged(data, writer)
		unchanged.OldX, unchanged.OldY = result.OldX, result.OldY
		unchanged.NewX, unchanged.NewY = result.OldX, result.OldY
		return unchanged, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return result, err
	}
	var newBuf bytes.Buffer
	newImage := resize.Thumbnail(maxX, maxY, img, resize.Lanczos3)
	if format == "png" {
		err = png.Encode(&newBuf, newImage)
	} else {
		err = jpeg.Encode(&newBuf, newImage, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return
	}
	imageRect := newImage.Bounds().Size()
	result.NewX = uint16(imageRect.X)
	result.NewY = uint16(imageRect.Y)
	result.Resized = true
	result.Size, err = io.Copy(writer, &newBuf)
	return
}

func copyUnchanged(data []byte, writer io.Writer) (result ImageFitResult, err error) {
	n, err := writer.Write(data)
	result.Size = int64(n)
	return
}
