package export

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// ZstdSuffix marks export files that are zstd compressed.
const ZstdSuffix = ".zst"

// IsCompressed reports whether name carries the zstd suffix.
func IsCompressed(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ZstdSuffix)
}

// BaseExt returns the extension of name with any compression suffix
// removed, e.g. ".ndjson" for "capture.ndjson.zst".
func BaseExt(name string) string {
	if IsCompressed(name) {
		name = name[:len(name)-len(ZstdSuffix)]
	}
	return strings.ToLower(filepath.Ext(name))
}

// CompressWriter wraps w in a zstd encoder when name ends in .zst.
// Close must be called to flush the final frame; it does not close w.
func CompressWriter(w io.Writer, name string) (io.WriteCloser, error) {
	if !IsCompressed(name) {
		return nopWriteCloser{w}, nil
	}
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return nil, errors.Wrap(err, "zstd encoder")
	}
	return enc, nil
}

// DecompressReader wraps r in a zstd decoder when name ends in .zst.
func DecompressReader(r io.Reader, name string) (io.ReadCloser, error) {
	if !IsCompressed(name) {
		return io.NopCloser(r), nil
	}
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "zstd decoder")
	}
	return dec.IOReadCloser(), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
