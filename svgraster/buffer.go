package svgraster

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"math"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format identifies an output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
	FormatBMP  Format = "bmp"
)

// ParseFormat maps a name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "png", "":
		return FormatPNG, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	case "bmp":
		return FormatBMP, nil
	}
	return "", fmt.Errorf("svgraster: unsupported image format %q", s)
}

// PixelBuffer is a rendered formula with its resolution tag.
type PixelBuffer struct {
	Image *image.NRGBA
	DPI   int
}

func (b *PixelBuffer) Width() int  { return b.Image.Bounds().Dx() }
func (b *PixelBuffer) Height() int { return b.Image.Bounds().Dy() }

// Encode writes the buffer in format f. Only PNG carries the DPI.
func (b *PixelBuffer) Encode(w io.Writer, f Format) error {
	switch f {
	case FormatPNG, "":
		return b.EncodePNG(w)
	case FormatTIFF:
		return tiff.Encode(w, b.Image, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case FormatBMP:
		return bmp.Encode(w, b.Image)
	}
	return fmt.Errorf("svgraster: unsupported image format %q", f)
}

// pngHeaderLen covers the signature and the IHDR chunk, after which pHYs
// may be inserted.
const pngHeaderLen = 8 + 4 + 4 + 13 + 4

// EncodePNG writes a PNG with a pHYs chunk recording DPI.
func (b *PixelBuffer) EncodePNG(w io.Writer) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, b.Image); err != nil {
		return err
	}
	data := buf.Bytes()
	if b.DPI <= 0 || len(data) < pngHeaderLen {
		_, err := w.Write(data)
		return err
	}
	if _, err := w.Write(data[:pngHeaderLen]); err != nil {
		return err
	}
	if _, err := w.Write(physChunk(b.DPI)); err != nil {
		return err
	}
	_, err := w.Write(data[pngHeaderLen:])
	return err
}

func physChunk(dpi int) []byte {
	ppm := uint32(math.Round(float64(dpi) / 0.0254))
	chunk := make([]byte, 4+4+9+4)
	binary.BigEndian.PutUint32(chunk[0:], 9)
	copy(chunk[4:], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:], ppm)
	binary.BigEndian.PutUint32(chunk[12:], ppm)
	chunk[16] = 1 // unit: metre
	binary.BigEndian.PutUint32(chunk[17:], crc32.ChecksumIEEE(chunk[4:17]))
	return chunk
}

// PNGResolution reads the pHYs chunk of an encoded PNG and returns its DPI.
func PNGResolution(data []byte) (int, bool) {
	if len(data) < 8 {
		return 0, false
	}
	for p := 8; p+12 <= len(data); {
		n := int(binary.BigEndian.Uint32(data[p:]))
		typ := string(data[p+4 : p+8])
		if p+12+n > len(data) {
			return 0, false
		}
		if typ == "pHYs" && n == 9 && data[p+16] == 1 {
			ppm := binary.BigEndian.Uint32(data[p+8:])
			return int(math.Round(float64(ppm) * 0.0254)), true
		}
		if typ == "IDAT" || typ == "IEND" {
			return 0, false
		}
		p += 12 + n
	}
	return 0, false
}
