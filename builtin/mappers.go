package builtin

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/operation"
	"github.com/kbukum/compgraph/record"
)

// punctuation is the ASCII punctuation set removed by FilterPunctuation.
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// earthRadiusKm is the mean Earth radius used by Haversine.
const earthRadiusKm = 6373.0

var whitespace = regexp.MustCompile(`\s+`)

func one(r record.Record) ([]record.Record, error) { return []record.Record{r}, nil }

// Identity passes every row through unchanged.
func Identity() operation.Mapper {
	return operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
		return one(row)
	})
}

// FilterPunctuation removes ASCII punctuation from a string column.
func FilterPunctuation(column string) operation.Mapper {
	return stringMapper(column, func(s string) string {
		return strings.Map(func(r rune) rune {
			if r < 0x80 && strings.ContainsRune(punctuation, r) {
				return -1
			}
			return r
		}, s)
	})
}

// LowerCase lower-cases a string column using Unicode case rules.
func LowerCase(column string) operation.Mapper {
	return stringMapper(column, func(s string) string {
		// A Caser keeps state, so each call gets its own.
		return cases.Lower(language.Und).String(s)
	})
}

func stringMapper(column string, fn func(string) string) operation.Mapper {
	return operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
		v, ok := row.Get(column)
		if !ok {
			return one(row)
		}
		s, ok := v.AsString()
		if !ok {
			return nil, errors.TypeMismatch(column, v.Kind().String(), record.KindString.String())
		}
		return one(row.With(column, record.String(fn(s))))
	})
}

// Split emits one row per whitespace-separated piece of a string column.
func Split(column string) operation.Mapper {
	return splitter{column: column, sep: whitespace}
}

// SplitBy is like Split with a custom separator pattern.
func SplitBy(column, pattern string) (operation.Mapper, error) {
	if pattern == "" {
		return Split(column), nil
	}
	sep, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.InvalidConfig(fmt.Sprintf("split separator %q: %v", pattern, err)).WithCause(err)
	}
	return splitter{column: column, sep: sep}, nil
}

type splitter struct {
	column string
	sep    *regexp.Regexp
}

// Map cuts the column at every separator match. A leading separator yields
// an empty first piece; a trailing one yields nothing after it.
func (s splitter) Map(_ context.Context, row record.Record) ([]record.Record, error) {
	v, ok := row.Get(s.column)
	if !ok {
		return nil, nil
	}
	text, ok := v.AsString()
	if !ok {
		return nil, errors.TypeMismatch(s.column, v.Kind().String(), record.KindString.String())
	}
	var out []record.Record
	start := 0
	for _, m := range s.sep.FindAllStringIndex(text, -1) {
		out = append(out, row.With(s.column, record.String(text[start:m[0]])))
		start = m[1]
	}
	if start < len(text) {
		out = append(out, row.With(s.column, record.String(text[start:])))
	}
	return out, nil
}

// Product stores the product of columns in result. Every column must be
// present. The product stays an integer while all factors are integers.
func Product(columns []string, result string) operation.Mapper {
	return operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
		acc := record.Int(1)
		for _, c := range columns {
			v, err := row.Field(c)
			if err != nil {
				return nil, err
			}
			acc, err = multiply(c, acc, v)
			if err != nil {
				return nil, err
			}
		}
		return one(row.With(result, acc))
	})
}

func multiply(field string, a, b record.Value) (record.Value, error) {
	ai, aInt := a.AsInt()
	bi, bInt := b.AsInt()
	if aInt && bInt {
		return record.Int(ai * bi), nil
	}
	af, err := number(field, a)
	if err != nil {
		return record.Value{}, err
	}
	bf, err := number(field, b)
	if err != nil {
		return record.Value{}, err
	}
	return record.Float(af * bf), nil
}

func number(field string, v record.Value) (float64, error) {
	f, ok := v.Number()
	if !ok {
		return 0, errors.TypeMismatch(field, v.Kind().String(), "number")
	}
	return f, nil
}

// Project keeps only the listed columns. Listed columns the row lacks are
// skipped.
func Project(columns ...string) operation.Mapper {
	return operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
		out := make(record.Record, len(columns))
		for _, c := range columns {
			if v, ok := row.Get(c); ok {
				out[c] = v
			}
		}
		return one(out)
	})
}

// Rename moves the value of from to to.
func Rename(from, to string) operation.Mapper {
	return operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
		v, ok := row.Get(from)
		if !ok {
			return one(row)
		}
		return one(row.Without(from).With(to, v))
	})
}

// Division stores numerator / denominator in result as a float.
func Division(numerator, denominator, result string) operation.Mapper {
	return operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
		nv, ok1 := row.Get(numerator)
		dv, ok2 := row.Get(denominator)
		if !ok1 || !ok2 {
			return one(row)
		}
		n, err := number(numerator, nv)
		if err != nil {
			return nil, err
		}
		d, err := number(denominator, dv)
		if err != nil {
			return nil, err
		}
		if d == 0 {
			return nil, fmt.Errorf("builtin: division by zero in field %q", denominator)
		}
		return one(row.With(result, record.Float(n/d)))
	})
}

// Logarithm stores the natural logarithm of column in result.
func Logarithm(column, result string) operation.Mapper {
	return operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
		v, ok := row.Get(column)
		if !ok {
			return one(row)
		}
		x, err := number(column, v)
		if err != nil {
			return nil, err
		}
		if x <= 0 {
			return nil, fmt.Errorf("builtin: logarithm of non-positive value %v in field %q", x, column)
		}
		return one(row.With(result, record.Float(math.Log(x))))
	})
}

// Normalize multiplies a numeric column by coef.
func Normalize(column string, coef float64) operation.Mapper {
	return operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
		v, ok := row.Get(column)
		if !ok {
			return one(row)
		}
		x, err := number(column, v)
		if err != nil {
			return nil, err
		}
		return one(row.With(column, record.Float(x*coef)))
	})
}

// Haversine stores the great-circle distance in meters between two
// [longitude, latitude] points.
func Haversine(a, b, result string) operation.Mapper {
	return operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
		av, ok1 := row.Get(a)
		bv, ok2 := row.Get(b)
		if !ok1 || !ok2 {
			return one(row)
		}
		aLon, aLat, err := point(a, av)
		if err != nil {
			return nil, err
		}
		bLon, bLat, err := point(b, bv)
		if err != nil {
			return nil, err
		}
		return one(row.With(result, record.Float(haversine(aLat, aLon, bLat, bLon))))
	})
}

func point(field string, v record.Value) (lon, lat float64, err error) {
	list, ok := v.AsList()
	if !ok || len(list) != 2 {
		return 0, 0, errors.TypeMismatch(field, v.Kind().String(), "[lon, lat]")
	}
	if lon, err = number(field, list[0]); err != nil {
		return 0, 0, err
	}
	if lat, err = number(field, list[1]); err != nil {
		return 0, 0, err
	}
	return lon, lat, nil
}

func haversine(aLat, aLon, bLat, bLon float64) float64 {
	rad := math.Pi / 180
	aLat, aLon, bLat, bLon = aLat*rad, aLon*rad, bLat*rad, bLon*rad
	h := 1 - math.Cos(bLat-aLat) + math.Cos(aLat)*math.Cos(bLat)*(1-math.Cos(bLon-aLon))
	return 2000 * earthRadiusKm * math.Asin(math.Sqrt(h/2))
}
