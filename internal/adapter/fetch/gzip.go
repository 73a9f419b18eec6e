package fetch

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// gzipMagic opens every gzip stream (RFC 1952 ID1, ID2).
var gzipMagic = []byte{0x1f, 0x8b}

// OpenMaybeGzip opens path for reading. Files starting with the gzip magic
// bytes are decompressed on the fly, so large archives are never extracted
// to disk. Anything else is returned as-is.
func OpenMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	br := bufio.NewReader(f)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if !bytes.Equal(head, gzipMagic) {
		return bufferedFile{Reader: br, file: f}, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip %s: %w", path, err)
	}
	return gzipFile{Reader: zr, file: f}, nil
}

type bufferedFile struct {
	*bufio.Reader
	file *os.File
}

func (b bufferedFile) Close() error {
	return b.file.Close()
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g gzipFile) Close() error {
	err := g.Reader.Close()
	if ferr := g.file.Close(); err == nil {
		err = ferr
	}
	return err
}
