package index

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// schemaVersion changes whenever the encoded layout of Index does.
const schemaVersion uint16 = 1

type envelope struct {
	Schema uint16 `msgpack:"schema"`
	Index  *Index `msgpack:"index"`
}

// Encode writes ix in msgpack form.
func (ix *Index) Encode(w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(envelope{Schema: schemaVersion, Index: ix}); err != nil {
		return fmt.Errorf("encode index %s: %w", ix.File.Path, err)
	}
	return nil
}

// Decode reads an index written by Encode.
func Decode(r io.Reader) (*Index, error) {
	var env envelope
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if env.Schema != schemaVersion {
		return nil, fmt.Errorf("decode index: schema %d, want %d", env.Schema, schemaVersion)
	}
	if env.Index == nil {
		return nil, fmt.Errorf("decode index: empty payload")
	}
	env.Index.prepare()
	return env.Index, nil
}
