package rowio

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/kbukum/compgraph/record"
)

// LineParser turns one input line into a row.
type LineParser func(line []byte) (record.Record, error)

// ParseLine decodes one JSON object into a row.
func ParseLine(line []byte) (record.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("expected a JSON object")
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON object")
	}
	return decodeObject(m)
}

func decodeObject(m map[string]any) (record.Record, error) {
	r := make(record.Record, len(m))
	for k, x := range m {
		v, err := decodeValue(x)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		r[k] = v
	}
	return r, nil
}

func decodeValue(x any) (record.Value, error) {
	switch x := x.(type) {
	case nil:
		return record.Absent(), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return record.Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return record.Value{}, err
		}
		return record.Float(f), nil
	case string:
		return record.String(x), nil
	case bool:
		// Rows have no boolean kind; keep the value as 0/1.
		if x {
			return record.Int(1), nil
		}
		return record.Int(0), nil
	case []any:
		items := make([]record.Value, len(x))
		for i, e := range x {
			v, err := decodeValue(e)
			if err != nil {
				return record.Value{}, err
			}
			items[i] = v
		}
		return record.List(items...), nil
	case map[string]any:
		r, err := decodeObject(x)
		if err != nil {
			return record.Value{}, err
		}
		return record.Nested(r), nil
	}
	return record.Value{}, fmt.Errorf("unsupported JSON value %T", x)
}

// AppendRow appends the JSON encoding of r, without a newline, to dst.
func AppendRow(dst []byte, r record.Record) ([]byte, error) {
	dst = append(dst, '{')
	for i, f := range r.Fields() {
		if i > 0 {
			dst = append(dst, ',')
		}
		var err error
		if dst, err = appendString(dst, f); err != nil {
			return nil, err
		}
		dst = append(dst, ':')
		if dst, err = appendValue(dst, r[f]); err != nil {
			return nil, fmt.Errorf("field %q: %w", f, err)
		}
	}
	return append(dst, '}'), nil
}

func appendValue(dst []byte, v record.Value) ([]byte, error) {
	switch v.Kind() {
	case record.KindAbsent:
		return append(dst, "null"...), nil
	case record.KindInt:
		i, _ := v.AsInt()
		return strconv.AppendInt(dst, i, 10), nil
	case record.KindFloat:
		f, _ := v.AsFloat()
		return appendFloat(dst, f)
	case record.KindString:
		s, _ := v.AsString()
		return appendString(dst, s)
	case record.KindList:
		items, _ := v.AsList()
		dst = append(dst, '[')
		for i, item := range items {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = appendValue(dst, item); err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case record.KindRecord:
		r, _ := v.AsRecord()
		return AppendRow(dst, r)
	}
	return nil, fmt.Errorf("unknown value kind %s", v.Kind())
}

func appendFloat(dst []byte, f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%v cannot be encoded as JSON", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		dst = strconv.AppendFloat(dst, f, 'f', -1, 64)
		return append(dst, ".0"...), nil
	}
	return strconv.AppendFloat(dst, f, 'g', -1, 64), nil
}

func appendString(dst []byte, s string) ([]byte, error) {
	b, err := json.MarshalNoEscape(s)
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}
