package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ScanMarker searches r for marker, starting at the current read position.
// On success the stream is positioned just past the marker and its 2-byte
// null padding, and that offset is returned.
//
// The scan is a plain sliding window: read len(marker) bytes, compare, and on
// mismatch rewind to one byte after the previous window start.
func ScanMarker(r io.ReadSeeker, marker string) (int64, error) {
	want := []byte(marker)
	n := int64(len(want))
	if n == 0 {
		return 0, fmt.Errorf("%w: empty marker", ErrMarkerNotFound)
	}

	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("locating read position: %w", err)
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("measuring stream: %w", err)
	}
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding stream: %w", err)
	}

	window := make([]byte, n)
	for pos < size-n {
		if _, err := io.ReadFull(r, window); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMarkerNotFound, err)
		}
		if bytes.Equal(window, want) {
			end := pos + n + udsMarkerPadding
			if _, err := r.Seek(end, io.SeekStart); err != nil {
				return 0, fmt.Errorf("skipping marker padding: %w", err)
			}
			return end, nil
		}

		// rewind to 1 byte after the previous window start
		pos++
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return 0, fmt.Errorf("rewinding scan window: %w", err)
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrMarkerNotFound, marker)
}

// streamReader reads little-endian values from a seekable stream.
// The first failure is sticky: once err is set every later read is a no-op
// returning zero values, so callers check err once per logical block.
type streamReader struct {
	r    io.ReadSeeker
	size int64
	pos  int64
	err  error
	buf  [12]byte
}

func newStreamReader(r io.ReadSeeker, pos int64) (*streamReader, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("measuring stream: %w", err)
	}
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to payload: %w", err)
	}
	return &streamReader{r: r, size: size, pos: pos}, nil
}

func (s *streamReader) remaining() int64 {
	return s.size - s.pos
}

// fill reads exactly len(p) bytes, recording a truncation error on failure.
func (s *streamReader) fill(p []byte, what string) bool {
	if s.err != nil {
		return false
	}
	if int64(len(p)) > s.remaining() {
		s.err = fmt.Errorf("%w: reading %s at offset 0x%08x (%d bytes needed, %d left)",
			ErrTruncatedUDSData, what, s.pos, len(p), s.remaining())
		return false
	}
	n, err := io.ReadFull(s.r, p)
	s.pos += int64(n)
	if err != nil {
		s.err = fmt.Errorf("%w: reading %s at offset 0x%08x: %v", ErrTruncatedUDSData, what, s.pos, err)
		return false
	}
	return true
}

func (s *streamReader) u32(what string) uint32 {
	if !s.fill(s.buf[:4], what) {
		return 0
	}
	return binary.LittleEndian.Uint32(s.buf[:4])
}

// block reads count records of stride bytes in one go. The size is checked
// against the bytes left in the stream before allocating, so a corrupt
// count fails fast instead of allocating gigabytes.
func (s *streamReader) block(count uint32, stride int, what string) []byte {
	if s.err != nil {
		return nil
	}
	need := int64(count) * int64(stride)
	if need > s.remaining() {
		s.err = fmt.Errorf("%w: %s needs %d bytes at offset 0x%08x, %d left",
			ErrTruncatedUDSData, what, need, s.pos, s.remaining())
		return nil
	}
	data := make([]byte, need)
	if !s.fill(data, what) {
		return nil
	}
	return data
}

func (s *streamReader) u32s(count uint32, what string) []uint32 {
	data := s.block(count, 4, what)
	if data == nil {
		return nil
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return out
}

func (s *streamReader) vec3s(count uint32, what string) []mgl32.Vec3 {
	data := s.block(count, 12, what)
	if data == nil {
		return nil
	}
	out := make([]mgl32.Vec3, count)
	for i := range out {
		out[i] = mgl32.Vec3{f32At(data, i*12), f32At(data, i*12+4), f32At(data, i*12+8)}
	}
	return out
}

func (s *streamReader) vec2s(count uint32, what string) []mgl32.Vec2 {
	data := s.block(count, 8, what)
	if data == nil {
		return nil
	}
	out := make([]mgl32.Vec2, count)
	for i := range out {
		out[i] = mgl32.Vec2{f32At(data, i*8), f32At(data, i*8+4)}
	}
	return out
}

func f32At(data []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
}
