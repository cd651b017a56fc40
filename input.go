package jsq

import (
	"io"
	"os"

	"github.com/deepnoodle-ai/jsq/codec"
	"github.com/deepnoodle-ai/jsq/errz"
	"github.com/deepnoodle-ai/jsq/value"
)

// resolveInput produces the value bound to $. An input file takes precedence
// over stdin. When stdin is an interactive terminal and no file is given, the
// bound input is the empty-text value and no read happens. Otherwise the byte
// source is read to completion before decoding.
func resolveInput(cfg Config, o *options) (value.Value, error) {
	var data []byte
	switch {
	case cfg.InputPath != "":
		fileData, err := os.ReadFile(cfg.InputPath)
		if err != nil {
			return nil, errz.IOf("reading input: %v", err)
		}
		data = fileData
	case o.stdinTerminal:
		return value.NewString(""), nil
	default:
		stdinData, err := io.ReadAll(o.stdin)
		if err != nil {
			return nil, errz.IOf("reading stdin: %v", err)
		}
		data = stdinData
	}
	if cfg.InputFormat == "" {
		// Raw text, no implicit trimming.
		return value.NewString(string(data)), nil
	}
	return codec.Decode(data, cfg.InputFormat)
}
