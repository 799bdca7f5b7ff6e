package namedsem

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Descriptor is what another process needs to open the same semaphore.
// It travels as MessagePack so non-Go peers can decode it.
//
// Example:
//
//	// parent
//	d, _ := sem.Descriptor()
//	data, _ := d.MarshalBinary()
//	transport.Send(data)
//
//	// child
//	var d namedsem.Descriptor
//	_ = d.UnmarshalBinary(data)
//	sem, err := namedsem.OpenDescriptor(d)
type Descriptor struct {
	// Name is the OS-wide semaphore name.
	Name string `msgpack:"name"`

	// Count is the initial count used if the receiver has to create the
	// semaphore because it no longer exists.
	Count int `msgpack:"count"`
}

// wireDescriptor has Descriptor's fields without its methods, so msgpack
// encodes the struct instead of calling MarshalBinary again.
type wireDescriptor Descriptor

// Descriptor returns a Descriptor for s whose Count is the current value.
func (s *NamedSemaphore) Descriptor() (Descriptor, error) {
	v, err := s.Value()
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{Name: s.name, Count: v}, nil
}

// MarshalBinary encodes d with MessagePack.
func (d Descriptor) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal(wireDescriptor(d))
}

// UnmarshalBinary decodes a MessagePack-encoded Descriptor.
func (d *Descriptor) UnmarshalBinary(data []byte) error {
	var v wireDescriptor
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("namedsem: error decoding descriptor: %v", err)
	}
	*d = Descriptor(v)
	return nil
}

// OpenDescriptor opens the semaphore d names with open-or-create semantics.
func OpenDescriptor(d Descriptor) (*NamedSemaphore, error) {
	return Open(d.Name, d.Count)
}
