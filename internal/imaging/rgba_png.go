package imaging

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"image"
	"io"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// PNG IHDR color type for 8-bit truecolor with alpha.
const pngColorTypeRGBA = 6

// encodeRGBA writes img as an 8-bit RGBA PNG. image/png picks RGB when every pixel is
// opaque, which loses the alpha channel the normalized image must carry.
func encodeRGBA(w io.Writer, img *image.NRGBA) error {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	if _, err := w.Write(pngSignature); err != nil {
		return err
	}

	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(height))
	ihdr[8] = 8
	ihdr[9] = pngColorTypeRGBA
	if err := writeChunk(w, "IHDR", ihdr[:]); err != nil {
		return err
	}

	var raw bytes.Buffer
	zw, err := zlib.NewWriterLevel(&raw, zlib.DefaultCompression)
	if err != nil {
		return err
	}
	rowLen := width * 4
	row := make([]byte, 1+rowLen)
	for y := 0; y < height; y++ {
		// filter type 0 (none)
		row[0] = 0
		start := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(row[1:], img.Pix[start:start+rowLen])
		if _, err := zw.Write(row); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if err := writeChunk(w, "IDAT", raw.Bytes()); err != nil {
		return err
	}
	return writeChunk(w, "IEND", nil)
}

func writeChunk(w io.Writer, name string, data []byte) error {
	var header [8]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(len(data)))
	copy(header[4:8], name)
	crc := crc32.NewIEEE()
	crc.Write(header[4:8])
	crc.Write(data)
	var footer [4]byte
	binary.BigEndian.PutUint32(footer[:], crc.Sum32())

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.Write(footer[:])
	return err
}
