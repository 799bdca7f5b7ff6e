package namedsem

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxDescriptorSize bounds a framed descriptor; names are limited to a few
// hundred bytes by every supported OS.
const maxDescriptorSize = 4096

// WriteDescriptor sends d over w as a 4-byte big-endian length followed by
// the MessagePack body. If w has a Flush method it is called after the body.
func WriteDescriptor(w io.Writer, d Descriptor) error {
	data, err := d.MarshalBinary()
	if err != nil {
		return err
	}
	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[4:], data)
	if _, err := w.Write(frame); err != nil {
		return err
	}
	if flusher, ok := w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// ReadDescriptor reads one descriptor written by WriteDescriptor.
func ReadDescriptor(r io.Reader) (Descriptor, error) {
	var lengthBuf [4]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		return Descriptor{}, err
	}
	length := binary.BigEndian.Uint32(lengthBuf[:])
	if length > maxDescriptorSize {
		return Descriptor{}, fmt.Errorf("namedsem: descriptor frame too large: %d bytes", length)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return Descriptor{}, err
	}
	var d Descriptor
	if err := d.UnmarshalBinary(data); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}
