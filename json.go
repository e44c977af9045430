package ctxcomp

import (
	"encoding/json"
	"io"
)

// JSONMapper converts between Go values and JSON. The framework resolves it through
// JSONMapperKey whenever it has to read or write a JSON body.
type JSONMapper interface {
	ToJSON(v any) ([]byte, error)
	FromJSON(data []byte, target any) error
	WriteJSON(w io.Writer, v any) error
}

// JSONConfig configures the default JSON mapper.
type JSONConfig struct {
	// Indent, when not empty, pretty-prints output with the given indent string.
	Indent string
}

type stdJSONMapper struct {
	indent string
}

// NewJSONMapper returns the default JSONMapper, built on encoding/json.
func NewJSONMapper(cfg JSONConfig) JSONMapper {
	return &stdJSONMapper{indent: cfg.Indent}
}

func (m *stdJSONMapper) ToJSON(v any) ([]byte, error) {
	if m.indent != "" {
		return json.MarshalIndent(v, "", m.indent)
	}
	return json.Marshal(v)
}

func (m *stdJSONMapper) FromJSON(data []byte, target any) error {
	return json.Unmarshal(data, target)
}

func (m *stdJSONMapper) WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if m.indent != "" {
		enc.SetIndent("", m.indent)
	}
	return enc.Encode(v)
}
