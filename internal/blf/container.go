package blf

import (
	"bytes"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

// inflateHint caps the up-front allocation for a container; the declared
// size comes from the file and is not trusted for allocation.
const inflateHint = 1 << 20

// inflater decompresses log container bodies, reusing one zlib reader
// across containers.
type inflater struct {
	zr io.ReadCloser
}

// inflate decompresses a zlib stream of declared uncompressed size.
// Output longer than size is an error; shorter output is returned as is.
func (f *inflater) inflate(compressed []byte, size uint64) ([]byte, error) {
	src := bytes.NewReader(compressed)
	if f.zr == nil {
		zr, err := zlib.NewReader(src)
		if err != nil {
			return nil, errors.Wrap(err, "zlib header")
		}
		f.zr = zr
	} else if err := f.zr.(zlib.Resetter).Reset(src, nil); err != nil {
		return nil, errors.Wrap(err, "zlib header")
	}

	limit := int64(math.MaxInt64 - 1)
	if size < uint64(limit) {
		limit = int64(size)
	}
	out := bytes.NewBuffer(make([]byte, 0, min(limit, inflateHint)))
	n, err := io.CopyN(out, f.zr, limit+1)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "inflate")
	}
	if n > limit {
		return nil, errors.Errorf("inflated past declared size %d", size)
	}
	return out.Bytes(), nil
}
