package archivers

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// TarWriter streams a compressed tar archive to an underlying writer.
type TarWriter struct {
	compressor  io.WriteCloser
	tarWriter   *tar.Writer
	compression Compression
	closed      bool
}

// NewTarWriter creates a tar writer that compresses into w.
// Closing the TarWriter does not close w.
func NewTarWriter(w io.Writer, compression Compression) (*TarWriter, error) {
	compressor, err := newCompressor(w, compression)
	if err != nil {
		return nil, err
	}
	return &TarWriter{
		compressor:  compressor,
		tarWriter:   tar.NewWriter(compressor),
		compression: compression,
	}, nil
}

// AddDir adds a directory entry. name uses forward slashes.
func (a *TarWriter) AddDir(name string, info fs.FileInfo) error {
	if a.closed {
		return fmt.Errorf("archiver is closed")
	}

	header, err := a.header(name, info)
	if err != nil {
		return err
	}
	header.Name = strings.TrimSuffix(name, "/") + "/"

	if err := a.tarWriter.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header: %w", err)
	}
	return nil
}

// AddFile adds a regular file entry whose content is read from data.
// info.Size() must match the number of bytes data yields.
func (a *TarWriter) AddFile(name string, info fs.FileInfo, data io.Reader) error {
	if a.closed {
		return fmt.Errorf("archiver is closed")
	}

	header, err := a.header(name, info)
	if err != nil {
		return err
	}

	if err := a.tarWriter.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header: %w", err)
	}
	if _, err := io.Copy(a.tarWriter, data); err != nil {
		return fmt.Errorf("failed to write tar content: %w", err)
	}
	return nil
}

func (a *TarWriter) header(name string, info fs.FileInfo) (*tar.Header, error) {
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return nil, fmt.Errorf("failed to build tar header for %s: %w", name, err)
	}
	header.Name = name
	header.Uname = ""
	header.Gname = ""
	header.Format = tar.FormatPAX
	return header, nil
}

// Close finalizes the tar stream and flushes the compressor.
func (a *TarWriter) Close() error {
	if a.closed {
		return fmt.Errorf("archiver already closed")
	}
	a.closed = true

	tarErr := a.tarWriter.Close()
	compErr := a.compressor.Close()
	if tarErr != nil {
		return fmt.Errorf("failed to close tar writer: %w", tarErr)
	}
	if compErr != nil {
		return fmt.Errorf("failed to close compressor: %w", compErr)
	}
	return nil
}

// TarReader reads a tar archive, detecting its compression from the stream.
type TarReader struct {
	tarReader   *tar.Reader
	compression Compression
	release     func()
}

// NewTarReader creates a reader over r.
func NewTarReader(r io.Reader) (*TarReader, error) {
	decompressed, compression, release, err := newDecompressor(r)
	if err != nil {
		return nil, err
	}
	return &TarReader{
		tarReader:   tar.NewReader(decompressed),
		compression: compression,
		release:     release,
	}, nil
}

// Next advances to the next entry. It returns io.EOF at the end of the archive.
func (r *TarReader) Next() (*tar.Header, error) {
	h, err := r.tarReader.Next()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read tar header: %w", err)
	}
	return h, err
}

// Read reads the content of the current entry.
func (r *TarReader) Read(p []byte) (int, error) {
	return r.tarReader.Read(p)
}

// Compression returns the compression detected on the stream.
func (r *TarReader) Compression() Compression {
	return r.compression
}

// Close releases decompressor resources. It does not close the underlying reader.
func (r *TarReader) Close() {
	r.release()
}
