package dnssec

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// byteReader is a cursor over a raw key or signature blob.
// Every read fails with ErrDecode instead of running past the end.
type byteReader struct {
	buf []byte
	off int
}

func newByteReader(buf []byte) *byteReader {
	return &byteReader{buf: buf}
}

// remaining returns the number of unread bytes
func (r *byteReader) remaining() int {
	return len(r.buf) - r.off
}

func (r *byteReader) readBytes(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrDecode, n, r.off, r.remaining())
	}

	b := r.buf[r.off : r.off+n]
	r.off += n

	return b, nil
}

func (r *byteReader) readUint8() (uint8, error) {
	b, err := r.readBytes(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (r *byteReader) readUint16() (uint16, error) {
	b, err := r.readBytes(2) //nolint:gomnd
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint16(b), nil
}

// readBigInt reads n bytes as a big-endian unsigned integer
func (r *byteReader) readBigInt(n int) (*big.Int, error) {
	b, err := r.readBytes(n)
	if err != nil {
		return nil, err
	}

	return new(big.Int).SetBytes(b), nil
}

// readRest consumes all remaining bytes
func (r *byteReader) readRest() []byte {
	b := r.buf[r.off:]
	r.off = len(r.buf)

	return b
}

// expectEOF fails if unread bytes are left
func (r *byteReader) expectEOF() error {
	if n := r.remaining(); n != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrDecode, n)
	}

	return nil
}
