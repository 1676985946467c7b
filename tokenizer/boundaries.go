package tokenizer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// boundaryWindow is how many bytes are read per forward scan step.
const boundaryWindow = 4096

// ErrInvalidChunks is returned when fewer than one chunk is requested.
var ErrInvalidChunks = errors.New("desired chunk count must be at least 1")

// FindChunkBoundaries splits [0, size) into about desiredChunks ranges. The
// result starts with 0 and ends with size; every interior offset is moved
// forward to the start of the next special token occurrence (or to size), so
// no chunk starts or ends inside a special token. Offsets are non-decreasing;
// equal neighbours denote an empty chunk. Empty input yields [0]. More chunks
// than bytes are never planned.
func FindChunkBoundaries(r io.ReaderAt, size int64, specials [][]byte, desiredChunks int) ([]int64, error) {
	if desiredChunks < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunks, desiredChunks)
	}
	if size <= 0 {
		return []int64{0}, nil
	}

	desiredChunks = int(min(int64(desiredChunks), size))

	chunkSize := size / int64(desiredChunks)
	bounds := make([]int64, desiredChunks+1)
	for i := range bounds {
		bounds[i] = int64(i) * chunkSize
	}
	bounds[desiredChunks] = size

	maxLen := 0
	for _, s := range specials {
		maxLen = max(maxLen, len(s))
	}

	buf := make([]byte, boundaryWindow+max(maxLen-1, 0))
	for i := 1; i < desiredChunks; i++ {
		// Never move behind the previous boundary.
		from := max(bounds[i], bounds[i-1])
		at, err := nextSpecial(r, size, from, specials, buf)
		if err != nil {
			return nil, err
		}
		bounds[i] = at
	}
	return bounds, nil
}

// nextSpecial returns the offset of the earliest special token starting at or
// after from, or size when there is none.
func nextSpecial(r io.ReaderAt, size, from int64, specials [][]byte, buf []byte) (int64, error) {
	if len(specials) == 0 {
		return size, nil
	}
	for pos := from; pos < size; pos += boundaryWindow {
		n, err := r.ReadAt(buf[:min(int64(len(buf)), size-pos)], pos)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("read at %d: %w", pos, err)
		}
		window := buf[:n]
		best := -1
		for _, s := range specials {
			if len(s) == 0 {
				continue
			}
			// Matches starting in the overlap belong to the next window.
			if idx := bytes.Index(window, s); idx >= 0 && idx < boundaryWindow && (best < 0 || idx < best) {
				best = idx
			}
		}
		if best >= 0 {
			return pos + int64(best), nil
		}
		if n == 0 {
			break
		}
	}
	return size, nil
}
