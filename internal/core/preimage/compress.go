package preimage

import (
	"fmt"

	"github.com/pierrec/lz4"
)

// compress returns the lz4 block for data, or nil when it does not shrink.
func compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, buf, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if n == 0 || n >= len(data) {
		return nil, nil
	}
	return buf[:n], nil
}

// decompress inflates an lz4 block whose original length is known.
func decompress(data []byte, length uint32) ([]byte, error) {
	out := make([]byte, length)
	n, err := lz4.UncompressBlock(data, out)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ErrDataCorrupt, err)
	}
	if n != int(length) {
		return nil, fmt.Errorf("%w: inflated %d bytes, want %d", ErrDataCorrupt, n, length)
	}
	return out, nil
}
