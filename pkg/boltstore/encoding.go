package boltstore

import (
	"github.com/fxamacker/cbor/v2"
)

// encMode sorts map keys so identical records encode to identical bytes.
var encMode, _ = cbor.CanonicalEncOptions().EncMode()

// encode serializes a record to CBOR.
func encode[T any](v *T) ([]byte, error) {
	return encMode.Marshal(v)
}

// decode deserializes CBOR bytes back into a record.
func decode[T any](data []byte) (*T, error) {
	var v T
	if err := cbor.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
