package codec

import (
	"math"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2/unstable"

	"github.com/deepnoodle-ai/jsq/errz"
	"github.com/deepnoodle-ai/jsq/value"
)

// decodeTOML parses a TOML document using go-toml's document-order parser,
// which is what lets mapping insertion order survive decoding. The top level
// of a TOML document is always a mapping.
func decodeTOML(data []byte) (value.Value, error) {
	p := &unstable.Parser{}
	p.Reset(data)

	root := value.NewMapping()
	current := root
	tables := map[*value.Mapping]bool{}

	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.KeyValue:
			if err := tomlSetKeyValue(current, expr); err != nil {
				return nil, err
			}
		case unstable.Table:
			parts := tomlKeyParts(expr)
			table, err := tomlDescend(root, parts)
			if err != nil {
				return nil, err
			}
			if tables[table] {
				return nil, errz.Decodef("parsing TOML: table %q already defined", strings.Join(parts, "."))
			}
			tables[table] = true
			current = table
		case unstable.ArrayTable:
			parts := tomlKeyParts(expr)
			parent, err := tomlDescend(root, parts[:len(parts)-1])
			if err != nil {
				return nil, err
			}
			last := parts[len(parts)-1]
			elem := value.NewMapping()
			existing, ok := parent.Get(last)
			if !ok {
				seq := value.NewSequence(nil)
				seq.Append(elem)
				parent.Set(last, seq)
			} else if seq, isSeq := existing.(*value.Sequence); isSeq {
				seq.Append(elem)
			} else {
				return nil, errz.Decodef("parsing TOML: key %q is not an array of tables", last)
			}
			current = elem
		}
	}
	if err := p.Error(); err != nil {
		return nil, errz.Decodef("parsing TOML: %v", err)
	}
	return root, nil
}

func tomlKeyParts(expr *unstable.Node) []string {
	var parts []string
	it := expr.Key()
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

// tomlDescend walks a table path, creating mappings as needed. Stepping into
// an array of tables means stepping into its last element.
func tomlDescend(m *value.Mapping, parts []string) (*value.Mapping, error) {
	current := m
	for _, part := range parts {
		existing, ok := current.Get(part)
		if !ok {
			next := value.NewMapping()
			current.Set(part, next)
			current = next
			continue
		}
		switch existing := existing.(type) {
		case *value.Mapping:
			current = existing
		case *value.Sequence:
			items := existing.Items()
			if len(items) == 0 {
				return nil, errz.Decodef("parsing TOML: key %q conflicts with an empty array", part)
			}
			last, isMapping := items[len(items)-1].(*value.Mapping)
			if !isMapping {
				return nil, errz.Decodef("parsing TOML: key %q is not a table", part)
			}
			current = last
		default:
			return nil, errz.Decodef("parsing TOML: key %q is not a table", part)
		}
	}
	return current, nil
}

func tomlSetKeyValue(m *value.Mapping, expr *unstable.Node) error {
	parts := tomlKeyParts(expr)
	target := m
	for _, part := range parts[:len(parts)-1] {
		existing, ok := target.Get(part)
		if !ok {
			next := value.NewMapping()
			target.Set(part, next)
			target = next
			continue
		}
		inner, isMapping := existing.(*value.Mapping)
		if !isMapping {
			return errz.Decodef("parsing TOML: key %q is not a table", part)
		}
		target = inner
	}
	last := parts[len(parts)-1]
	if _, exists := target.Get(last); exists {
		return errz.Decodef("parsing TOML: duplicate key %q", last)
	}
	v, err := tomlValue(expr.Value())
	if err != nil {
		return err
	}
	target.Set(last, v)
	return nil
}

func tomlValue(n *unstable.Node) (value.Value, error) {
	switch n.Kind {
	case unstable.String:
		return value.NewString(string(n.Data)), nil
	case unstable.Bool:
		return value.NewBool(string(n.Data) == "true"), nil
	case unstable.Integer:
		text := string(n.Data)
		i, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
			if ferr != nil {
				return nil, errz.Decodef("parsing TOML: invalid integer %q", text)
			}
			return value.NewNumber(f), nil
		}
		return value.NewNumber(float64(i)), nil
	case unstable.Float:
		text := strings.ReplaceAll(string(n.Data), "_", "")
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errz.Decodef("parsing TOML: invalid float %q", text)
		}
		return value.NewNumber(f), nil
	case unstable.DateTime, unstable.LocalDateTime, unstable.LocalDate, unstable.LocalTime:
		return value.NewString(string(n.Data)), nil
	case unstable.Array:
		seq := value.NewSequence(nil)
		it := n.Children()
		for it.Next() {
			item, err := tomlValue(it.Node())
			if err != nil {
				return nil, err
			}
			seq.Append(item)
		}
		return seq, nil
	case unstable.InlineTable:
		m := value.NewMapping()
		it := n.Children()
		for it.Next() {
			if err := tomlSetKeyValue(m, it.Node()); err != nil {
				return nil, err
			}
		}
		return m, nil
	default:
		return nil, errz.Decodef("parsing TOML: unsupported value kind %s", n.Kind)
	}
}

// encodeTOML renders a Mapping as a TOML document: flat keys first, then
// [table] and [[array-of-tables]] sections. Chains of single-entry mappings
// collapse into dotted keys. Null values are elided, since TOML cannot
// represent them; a non-mapping top level is an encode error.
func encodeTOML(v value.Value) ([]byte, error) {
	m, ok := v.(*value.Mapping)
	if !ok {
		return nil, errz.Encodef("TOML documents must be a mapping (got %s)", v.Type()).
			WithReason(errz.ReasonInvalidTopLevel)
	}
	var b strings.Builder
	if err := writeTOMLTable(&b, "", m); err != nil {
		return nil, err
	}
	out := b.String()
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return []byte(out), nil
}

type tomlEntry struct {
	key string
	val value.Value
}

func tomlEntries(m *value.Mapping) []tomlEntry {
	entries := make([]tomlEntry, 0, m.Len())
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		if _, isNull := v.(*value.NullType); isNull {
			continue
		}
		entries = append(entries, tomlEntry{key: key, val: v})
	}
	return entries
}

// tomlShouldNest reports whether a value renders as its own [table] or
// [[array-of-tables]] section rather than an inline key = value pair.
func tomlShouldNest(v value.Value) bool {
	switch v := v.(type) {
	case *value.Mapping:
		entries := tomlEntries(v)
		return len(entries) > 1 || (len(entries) == 1 && tomlShouldNest(entries[0].val))
	case *value.Sequence:
		items := v.Items()
		if len(items) == 0 {
			return false
		}
		for _, item := range items {
			if _, ok := item.(*value.Mapping); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// tomlFlatKey collapses chains of single-entry mappings into a dotted key.
func tomlFlatKey(key string, v value.Value) (string, value.Value) {
	encoded := tomlKey(key)
	if m, ok := v.(*value.Mapping); ok {
		entries := tomlEntries(m)
		if len(entries) == 1 {
			inner, innerVal := tomlFlatKey(entries[0].key, entries[0].val)
			return encoded + "." + inner, innerVal
		}
	}
	return encoded, v
}

func writeTOMLTable(b *strings.Builder, context string, m *value.Mapping) error {
	entries := tomlEntries(m)
	var flat, nested []tomlEntry
	for _, e := range entries {
		if tomlShouldNest(e.val) {
			nested = append(nested, e)
		} else {
			flat = append(flat, e)
		}
	}

	for i, e := range flat {
		key, val := tomlFlatKey(e.key, e.val)
		b.WriteString(key)
		b.WriteString(" = ")
		if err := writeTOMLInline(b, val); err != nil {
			return err
		}
		if i < len(flat)-1 {
			b.WriteByte('\n')
		}
	}

	for i, e := range nested {
		name := context + tomlKey(e.key)
		if len(flat) > 0 || i > 0 {
			b.WriteString("\n\n")
		}
		switch val := e.val.(type) {
		case *value.Mapping:
			hasFlat := false
			for _, inner := range tomlEntries(val) {
				if !tomlShouldNest(inner.val) {
					hasFlat = true
					break
				}
			}
			if hasFlat {
				b.WriteString("[" + name + "]\n")
			}
			if err := writeTOMLTable(b, name+".", val); err != nil {
				return err
			}
		case *value.Sequence:
			for j, item := range val.Items() {
				if j > 0 {
					b.WriteString("\n\n")
				}
				elem := item.(*value.Mapping)
				b.WriteString("[[" + name + "]]")
				if len(tomlEntries(elem)) > 0 {
					b.WriteByte('\n')
				}
				if err := writeTOMLTable(b, name+".", elem); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeTOMLInline(b *strings.Builder, v value.Value) error {
	switch v := v.(type) {
	case *value.NullType:
		return errz.Encodef("TOML cannot represent null")
	case *value.Bool:
		b.WriteString(v.Display())
	case *value.Number:
		b.WriteString(tomlNumber(v.Value()))
	case *value.String:
		b.WriteString(tomlString(v.Value()))
	case *value.Sequence:
		var items []value.Value
		for _, item := range v.Items() {
			if _, isNull := item.(*value.NullType); isNull {
				continue
			}
			items = append(items, item)
		}
		b.WriteByte('[')
		for i, item := range items {
			if err := writeTOMLInline(b, item); err != nil {
				return err
			}
			if i < len(items)-1 {
				b.WriteString(", ")
			}
		}
		b.WriteByte(']')
	case *value.Mapping:
		entries := tomlEntries(v)
		b.WriteByte('{')
		for i, e := range entries {
			b.WriteString(" " + tomlKey(e.key) + " = ")
			if err := writeTOMLInline(b, e.val); err != nil {
				return err
			}
			if i < len(entries)-1 {
				b.WriteByte(',')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('}')
	}
	return nil
}

// tomlKey renders a key bare when TOML allows it and quoted otherwise.
func tomlKey(s string) string {
	if s == "" {
		return jsonQuote(s)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '_' || c == '-' {
			continue
		}
		return jsonQuote(s)
	}
	return s
}

func tomlString(s string) string {
	if strings.Contains(s, "\n") && !strings.Contains(s, "'''") && !containsNonNewlineControl(s) {
		return "'''\n" + s + "'''"
	}
	return jsonQuote(s)
}

func containsNonNewlineControl(s string) bool {
	for _, r := range s {
		if r != '\n' && (r < 0x20 || r == 0x7f) {
			return true
		}
	}
	return false
}

func tomlNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	default:
		return value.FormatNumber(f)
	}
}
