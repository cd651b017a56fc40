package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/jsq/errz"
	"github.com/deepnoodle-ai/jsq/value"
)

const indentWidth = 2

// decodeJSON reads a single JSON document token by token so that object key
// order survives into the Mapping.
func decodeJSON(data []byte) (value.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := readJSONValue(dec)
	if err != nil {
		return nil, errz.Decodef("parsing JSON: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errz.Decodef("parsing JSON: trailing content after document")
	}
	return v, nil
}

func readJSONValue(dec *json.Decoder) (value.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return jsonValue(dec, tok)
}

func jsonValue(dec *json.Decoder, tok json.Token) (value.Value, error) {
	switch tok := tok.(type) {
	case nil:
		return value.Null, nil
	case bool:
		return value.NewBool(tok), nil
	case string:
		return value.NewString(tok), nil
	case json.Number:
		f, err := strconv.ParseFloat(tok.String(), 64)
		if err != nil {
			return nil, err
		}
		return value.NewNumber(f), nil
	case json.Delim:
		switch tok {
		case '[':
			seq := value.NewSequence(nil)
			for dec.More() {
				item, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				seq.Append(item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return seq, nil
		case '{':
			m := value.NewMapping()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				v, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// encodeJSON renders v as two-space indented JSON with mapping keys in
// insertion order. Empty sequences and mappings stay on one line.
func encodeJSON(v value.Value) ([]byte, error) {
	var b strings.Builder
	if err := writeJSON(&b, v, 0); err != nil {
		return nil, err
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func writeJSON(b *strings.Builder, v value.Value, depth int) error {
	switch v := v.(type) {
	case *value.NullType:
		b.WriteString("null")
	case *value.Bool:
		b.WriteString(v.Display())
	case *value.Number:
		s, err := jsonNumber(v.Value())
		if err != nil {
			return err
		}
		b.WriteString(s)
	case *value.String:
		b.WriteString(jsonQuote(v.Value()))
	case *value.Sequence:
		items := v.Items()
		if len(items) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteByte('[')
		for i, item := range items {
			b.WriteByte('\n')
			writeIndent(b, depth+1)
			if err := writeJSON(b, item, depth+1); err != nil {
				return err
			}
			if i < len(items)-1 {
				b.WriteByte(',')
			}
		}
		b.WriteByte('\n')
		writeIndent(b, depth)
		b.WriteByte(']')
	case *value.Mapping:
		keys := v.Keys()
		if len(keys) == 0 {
			b.WriteString("{}")
			return nil
		}
		b.WriteByte('{')
		for i, key := range keys {
			b.WriteByte('\n')
			writeIndent(b, depth+1)
			b.WriteString(jsonQuote(key))
			b.WriteString(": ")
			item, _ := v.Get(key)
			if err := writeJSON(b, item, depth+1); err != nil {
				return err
			}
			if i < len(keys)-1 {
				b.WriteByte(',')
			}
		}
		b.WriteByte('\n')
		writeIndent(b, depth)
		b.WriteByte('}')
	}
	return nil
}

func writeIndent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat(" ", depth*indentWidth))
}

func jsonNumber(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errz.Encodef("JSON cannot represent %s", value.FormatNumber(f))
	}
	return value.FormatNumber(f), nil
}

func jsonQuote(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		// Marshal of a string cannot fail.
		return strconv.Quote(s)
	}
	return string(data)
}
