package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrFrameTooLarge guards against a corrupt or adversarial length prefix
// forcing an unbounded allocation.
var ErrFrameTooLarge = errors.New("wire: frame exceeds MaxFrameSize")

// MaxFrameSize bounds a single decoded frame's payload size.
const MaxFrameSize = 64 << 20 // 64 MiB

// EncodeFrame prepends a big-endian uint32 length prefix to payload, per
// spec §6's "length-delimited codec (big-endian length prefix followed by
// payload)".
func EncodeFrame(payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(out, uint32(len(payload)))
	copy(out[4:], payload)

	return out
}

// DecodeFrame reads one length-delimited frame from r.
func DecodeFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("wire: read frame length: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("wire: read frame payload: %w", err)
	}

	return payload, nil
}
