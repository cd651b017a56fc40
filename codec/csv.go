package codec

import (
	"bytes"
	"encoding/csv"

	"github.com/deepnoodle-ai/jsq/errz"
	"github.com/deepnoodle-ai/jsq/value"
)

// decodeCSV reads the first row as a header and yields one mapping per data
// row. Cells that parse as JSON keep that interpretation; anything else is a
// literal string. Together with the quoting in csvCellText this makes decode
// invert encode for scalar cells.
func decodeCSV(data []byte) (value.Value, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errz.Decodef("parsing CSV: %v", err)
	}
	rows := value.NewSequence(nil)
	if len(records) == 0 {
		return rows, nil
	}
	header := records[0]
	for _, record := range records[1:] {
		row := value.NewMapping()
		for i, key := range header {
			row.Set(key, csvCell(record[i]))
		}
		rows.Append(row)
	}
	return rows, nil
}

func csvCell(s string) value.Value {
	v, err := decodeJSON([]byte(s))
	if err != nil {
		return value.NewString(s)
	}
	switch v.(type) {
	case *value.Sequence, *value.Mapping:
		// Compound cells are not produced by the encoder, keep them literal.
		return value.NewString(s)
	}
	return v
}

// encodeCSV requires a sequence of mappings sharing one key set (the header
// row), or a sequence of equal-length scalar sequences. Anything else fails
// with a not-tabular encode error.
func encodeCSV(v value.Value) ([]byte, error) {
	seq, ok := v.(*value.Sequence)
	if !ok {
		return nil, notTabular("requires a sequence (got %s)", v.Type())
	}
	items := seq.Items()
	if len(items) == 0 {
		return []byte{}, nil
	}

	var records [][]string
	switch items[0].(type) {
	case *value.Mapping:
		header := items[0].(*value.Mapping).Keys()
		records = append(records, header)
		for _, item := range items {
			row, ok := item.(*value.Mapping)
			if !ok {
				return nil, notTabular("requires a sequence of mappings (got %s)", item.Type())
			}
			record, err := csvRecordFromMapping(row, header)
			if err != nil {
				return nil, err
			}
			records = append(records, record)
		}
	case *value.Sequence:
		width := items[0].(*value.Sequence).Len()
		for _, item := range items {
			row, ok := item.(*value.Sequence)
			if !ok {
				return nil, notTabular("requires a sequence of sequences (got %s)", item.Type())
			}
			if row.Len() != width {
				return nil, notTabular("rows have inconsistent lengths (%d vs %d)", row.Len(), width)
			}
			record := make([]string, 0, width)
			for _, cell := range row.Items() {
				text, err := csvCellText(cell)
				if err != nil {
					return nil, err
				}
				record = append(record, text)
			}
			records = append(records, record)
		}
	default:
		return nil, notTabular("requires a sequence of mappings or sequences (got sequence of %s)", items[0].Type())
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(records); err != nil {
		return nil, errz.Encodef("printing CSV: %v", err)
	}
	return buf.Bytes(), nil
}

func csvRecordFromMapping(row *value.Mapping, header []string) ([]string, error) {
	if row.Len() != len(header) {
		return nil, notTabular("rows have inconsistent key sets")
	}
	record := make([]string, 0, len(header))
	for _, key := range header {
		cell, ok := row.Get(key)
		if !ok {
			return nil, notTabular("row is missing key %q", key)
		}
		text, err := csvCellText(cell)
		if err != nil {
			return nil, err
		}
		record = append(record, text)
	}
	return record, nil
}

// csvCellText renders a scalar cell. Strings that would re-parse as some
// other JSON value are quoted so that decoding restores the original string.
func csvCellText(v value.Value) (string, error) {
	switch v := v.(type) {
	case *value.Sequence, *value.Mapping:
		return "", notTabular("cell values must be scalars (got %s)", v.Type())
	case *value.String:
		s := v.Value()
		reparsed, err := decodeJSON([]byte(s))
		if err == nil {
			if _, isString := reparsed.(*value.String); !isString {
				return jsonQuote(s), nil
			}
		}
		return s, nil
	default:
		return v.Display(), nil
	}
}

func notTabular(format string, args ...any) *errz.Error {
	return errz.Encodef("CSV "+format, args...).WithReason(errz.ReasonNotTabular)
}
