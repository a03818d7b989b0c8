package rest

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
)

// Field is a single request parameter.
type Field struct {
	Key   string
	Value string
}

// F is shorthand for building a Field.
func F(key, value string) Field { return Field{Key: key, Value: value} }

// Fields is an ordered request parameter list. Insertion order is preserved
// in both encodings; a plain map would randomize it.
type Fields []Field

// MarshalJSON encodes the fields as a JSON object with keys in insertion order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fld := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fld.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(fld.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode serializes the fields as an application/x-www-form-urlencoded
// string, &-joined with no leading '?'.
func (f Fields) Encode() string {
	var b strings.Builder
	for i, fld := range f {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(fld.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(fld.Value))
	}
	return b.String()
}
