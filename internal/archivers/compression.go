package archivers

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression defines supported compression algorithms.
type Compression string

const (
	CompressionZstd Compression = "zstd"
	CompressionGzip Compression = "gzip"
	CompressionNone Compression = "none"
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// ParseCompression validates a compression name. Empty defaults to zstd.
func ParseCompression(name string) (Compression, error) {
	switch c := Compression(name); c {
	case "":
		return CompressionZstd, nil
	case CompressionZstd, CompressionGzip, CompressionNone:
		return c, nil
	default:
		return "", fmt.Errorf("unsupported compression type: %s", name)
	}
}

// Extension returns the file extension for a tar stream with this
// compression, without a leading dot.
func (c Compression) Extension() string {
	switch c {
	case CompressionZstd:
		return "tar.zst"
	case CompressionGzip:
		return "tar.gz"
	default:
		return "tar"
	}
}

func newCompressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return zw, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionNone:
		return &nopWriteCloser{w}, nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %s", c)
	}
}

// newDecompressor sniffs the leading bytes of r and returns a reader of the
// decompressed stream, the detected compression and a close function.
func newDecompressor(r io.Reader) (io.Reader, Compression, func(), error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))

	switch {
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, "", nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return zr, CompressionZstd, zr.Close, nil
	case bytes.HasPrefix(head, gzipMagic):
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, "", nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gr, CompressionGzip, func() { gr.Close() }, nil
	default:
		return br, CompressionNone, func() {}, nil
	}
}

// nopWriteCloser wraps a Writer to provide a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (n *nopWriteCloser) Close() error {
	return nil
}
