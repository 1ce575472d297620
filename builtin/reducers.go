package builtin

import (
	"context"
	"slices"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/operation"
	"github.com/kbukum/compgraph/record"
)

// keyRow returns a new row holding only the key fields of row.
func keyRow(key record.Key, row record.Record) record.Record {
	out := make(record.Record, len(key)+2)
	for _, f := range key {
		out[f] = row[f]
	}
	return out
}

// First keeps the first row of each group.
func First() operation.Reducer {
	return operation.ReducerFunc(func(_ context.Context, _ record.Key, rows []record.Record) ([]record.Record, error) {
		return rows[:1], nil
	})
}

// TopN keeps the n rows with the largest column values, largest first.
// Rows with equal values keep their input order.
func TopN(column string, n int) operation.Reducer {
	return operation.ReducerFunc(func(_ context.Context, _ record.Key, rows []record.Record) ([]record.Record, error) {
		vals := make([]record.Value, len(rows))
		for i, r := range rows {
			v, err := r.Field(column)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		idx := make([]int, len(rows))
		for i := range idx {
			idx[i] = i
		}
		var cmpErr error
		slices.SortStableFunc(idx, func(a, b int) int {
			c, err := compareValues(column, vals[b], vals[a])
			if err != nil && cmpErr == nil {
				cmpErr = err
			}
			return c
		})
		if cmpErr != nil {
			return nil, cmpErr
		}
		out := make([]record.Record, 0, min(n, len(rows)))
		for _, i := range idx[:min(n, len(idx))] {
			out = append(out, rows[i])
		}
		return out, nil
	})
}

// TermFrequency emits, for every distinct value of words, the share of the
// group's rows holding it. Rows come out in order of first appearance.
func TermFrequency(words, result string) operation.Reducer {
	return operation.ReducerFunc(func(_ context.Context, key record.Key, rows []record.Record) ([]record.Record, error) {
		counts := make(map[string]int)
		var order []record.Value
		for _, r := range rows {
			v, err := r.Field(words)
			if err != nil {
				return nil, err
			}
			fp := record.Tuple{v}.Fingerprint()
			if counts[fp] == 0 {
				order = append(order, v)
			}
			counts[fp]++
		}
		total := float64(len(rows))
		out := make([]record.Record, 0, len(order))
		for _, v := range order {
			r := keyRow(key, rows[0])
			r[words] = v
			r[result] = record.Float(float64(counts[record.Tuple{v}.Fingerprint()]) / total)
			out = append(out, r)
		}
		return out, nil
	})
}

// Count emits the group's key fields with the number of rows in result.
func Count(result string) operation.Reducer {
	return operation.ReducerFunc(func(_ context.Context, key record.Key, rows []record.Record) ([]record.Record, error) {
		r := keyRow(key, rows[0])
		r[result] = record.Int(int64(len(rows)))
		return []record.Record{r}, nil
	})
}

// Sum emits the group's key fields with the sum of column. The sum stays an
// integer unless a float is met.
func Sum(column string) operation.Reducer {
	return operation.ReducerFunc(func(_ context.Context, key record.Key, rows []record.Record) ([]record.Record, error) {
		var (
			isum    int64
			fsum    float64
			isFloat bool
		)
		for _, row := range rows {
			v, err := row.Field(column)
			if err != nil {
				return nil, err
			}
			switch v.Kind() {
			case record.KindInt:
				i, _ := v.AsInt()
				isum += i
			case record.KindFloat:
				f, _ := v.AsFloat()
				fsum += f
				isFloat = true
			default:
				return nil, errors.TypeMismatch(column, v.Kind().String(), "number")
			}
		}
		r := keyRow(key, rows[0])
		if isFloat {
			r[column] = record.Float(fsum + float64(isum))
		} else {
			r[column] = record.Int(isum)
		}
		return []record.Record{r}, nil
	})
}
