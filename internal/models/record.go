package models

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Record is one stored document. The identity is kept under IDField.
type Record map[string]interface{}

// ID returns the identity of the record, or "" when it has none.
func (r Record) ID() string {
	id, _ := r[IDField].(string)
	return id
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Decode loads the fields into a fresh schema struct of the descriptor.
// Keys outside the schema are ignored, scalar types are coerced weakly so
// JSON numbers and strings are both accepted.
func (d Descriptor) Decode(fields map[string]interface{}) (interface{}, error) {
	model := d.NewModel()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           model,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(fields); err != nil {
		return nil, fmt.Errorf("failed to decode %s fields: %w", d.Collection, err)
	}
	return model, nil
}

// Encode converts a schema struct back into a field map, leaving out empty optional fields.
func Encode(model interface{}) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if err := mapstructure.Decode(model, &out); err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	return out, nil
}
