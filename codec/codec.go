// Package codec provides the format registry: one decode/encode pair per
// supported serialization format, all operating on the value package's types.
//
// Decoding never partially consumes input: malformed trailing bytes fail the
// whole decode. Encoding is deterministic and preserves mapping insertion
// order wherever the format can express it.
package codec

import (
	"sync"

	"github.com/deepnoodle-ai/jsq/errz"
	"github.com/deepnoodle-ai/jsq/value"
)

var (
	mutex  sync.RWMutex
	codecs = map[string]*Codec{}
)

// Codec contains an Encode and a Decode function for one format.
type Codec struct {
	Name   string
	Decode func(data []byte) (value.Value, error)
	Encode func(v value.Value) ([]byte, error)
}

func init() {
	Register(&Codec{Name: "json", Decode: decodeJSON, Encode: encodeJSON})
	Register(&Codec{Name: "json5", Decode: decodeJSON5, Encode: encodeJSON5})
	Register(&Codec{Name: "yaml", Decode: decodeYAML, Encode: encodeYAML})
	Register(&Codec{Name: "toml", Decode: decodeTOML, Encode: encodeTOML})
	Register(&Codec{Name: "csv", Decode: decodeCSV, Encode: encodeCSV})
}

// Register registers a new codec under its name.
func Register(codec *Codec) error {
	mutex.Lock()
	defer mutex.Unlock()

	if _, exists := codecs[codec.Name]; exists {
		return errz.Newf(errz.KindDecode, "codec already registered: %s", codec.Name)
	}
	codecs[codec.Name] = codec
	return nil
}

// Get retrieves a codec by its name.
func Get(name string) (*Codec, error) {
	mutex.RLock()
	defer mutex.RUnlock()

	codec, exists := codecs[name]
	if !exists {
		return nil, errz.Newf(errz.KindDecode, "codec not found: %s", name)
	}
	return codec, nil
}

// Names returns the names of all registered codecs.
func Names() []string {
	mutex.RLock()
	defer mutex.RUnlock()

	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	return names
}

// Decode decodes data using the named codec.
func Decode(data []byte, format string) (value.Value, error) {
	codec, err := Get(format)
	if err != nil {
		return nil, err
	}
	return codec.Decode(data)
}

// Encode encodes v using the named codec.
func Encode(v value.Value, format string) ([]byte, error) {
	codec, err := Get(format)
	if err != nil {
		return nil, err
	}
	return codec.Encode(v)
}
