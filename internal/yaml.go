package internal

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes b into a new T. Unknown fields are rejected and an
// empty document yields the zero value.
func UnmarshalYAML[T any](b []byte) (T, error) {
	var t T
	if err := UnmarshalYAMLInto(b, &t); err != nil {
		return t, err
	}

	return t, nil
}

// UnmarshalYAMLInto decodes b over the existing value of t, keeping fields
// the document does not set.
func UnmarshalYAMLInto[T any](b []byte, t *T) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(t); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

func MarshalYAML(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if ok {
		return b, nil
	}

	return yaml.Marshal(v)
}
