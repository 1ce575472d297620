package rowio

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/record"
	"github.com/kbukum/compgraph/stream"
)

func TestParseLine(t *testing.T) {
	row, err := ParseLine([]byte(`{"i": 3, "f": 1.5, "g": 2.0, "s": "x", "n": null, "l": [1, "a"], "o": {"k": 1}, "b": true}`))
	if err != nil {
		t.Fatal(err)
	}
	want := record.Record{
		"i": record.Int(3),
		"f": record.Float(1.5),
		"g": record.Float(2),
		"s": record.String("x"),
		"n": record.Absent(),
		"l": record.List(record.Int(1), record.String("a")),
		"o": record.Nested(record.Record{"k": record.Int(1)}),
		"b": record.Int(1),
	}
	if !row.Equal(want) {
		t.Errorf("got %v, want %v", row, want)
	}
}

func TestParseLineRejects(t *testing.T) {
	for _, line := range []string{`[1, 2]`, `null`, `{"a": 1} {"b": 2}`, `{"a":`, `"text"`} {
		if _, err := ParseLine([]byte(line)); err == nil {
			t.Errorf("expected error for %s", line)
		}
	}
}

func TestReader(t *testing.T) {
	input := "{\"a\": 1}\n\n   \n{\"a\": 2}\n"
	got, err := stream.Collect(context.Background(), NewReader(strings.NewReader(input)))
	if err != nil {
		t.Fatal(err)
	}
	want := []record.Record{{"a": record.Int(1)}, {"a": record.Int(2)}}
	if !record.EqualRows(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestReaderInvalidLine(t *testing.T) {
	input := "{\"a\": 1}\n\n{oops}\n"
	got, err := stream.Collect(context.Background(), NewReader(strings.NewReader(input)))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Fatalf("expected INVALID_FORMAT, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected line number in %q", err.Error())
	}
	if len(got) != 1 {
		t.Errorf("expected the row before the failure, got %v", got)
	}
}

func TestReaderCustomParser(t *testing.T) {
	parse := func(line []byte) (record.Record, error) {
		return record.Record{"text": record.String(string(line))}, nil
	}
	got, err := stream.Collect(context.Background(), NewLineReader(strings.NewReader("hello\nworld\n"), parse))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !got[1]["text"].Equal(record.String("world")) {
		t.Errorf("unexpected rows %v", got)
	}
}

func TestFileSourceReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.ndjson")
	if err := os.WriteFile(path, []byte("{\"a\": 1}\n{\"a\": 2}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	src := File(path)
	for i := 0; i < 2; i++ {
		got, err := stream.CollectSource(context.Background(), src)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("run %d: expected 2 rows, got %d", i, len(got))
		}
	}
}

func TestFilesConcatenates(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.ndjson")
	b := filepath.Join(dir, "b.ndjson")
	if err := os.WriteFile(a, []byte("{\"n\": 1}\n{\"n\": 2}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("{\"n\": 3}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := stream.CollectSource(context.Background(), Files(a, b))
	if err != nil {
		t.Fatal(err)
	}
	want := []record.Record{{"n": record.Int(1)}, {"n": record.Int(2)}, {"n": record.Int(3)}}
	if !record.EqualRows(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilesMissingFailsOnRead(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.ndjson")
	if err := os.WriteFile(a, []byte("{\"n\": 1}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := stream.CollectSource(context.Background(), Files(a, filepath.Join(dir, "missing.ndjson")))
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestFileMissing(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "missing.ndjson")).Open(context.Background())
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestWriter(t *testing.T) {
	rows := []record.Record{
		{"b": record.Int(2), "a": record.String("x<y")},
		{"f": record.Float(3), "g": record.Float(0.25), "n": record.Absent()},
		{"l": record.List(record.Int(1), record.Float(-1.5)), "o": record.Nested(record.Record{"z": record.Int(0), "y": record.String("q")})},
	}
	var buf bytes.Buffer
	n, err := WriteAll(context.Background(), &buf, stream.FromSlice(rows))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected 3 rows written, got %d", n)
	}
	want := `{"a":"x<y","b":2}
{"f":3.0,"g":0.25,"n":null}
{"l":[1,-1.5],"o":{"y":"q","z":0}}
`
	if buf.String() != want {
		t.Errorf("got\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriterThenReaderKeepsKinds(t *testing.T) {
	rows := []record.Record{
		{"int": record.Int(7), "float": record.Float(7), "big": record.Float(1e300), "nested": record.List(record.Absent())},
	}
	var buf bytes.Buffer
	if _, err := WriteAll(context.Background(), &buf, stream.FromSlice(rows)); err != nil {
		t.Fatal(err)
	}
	got, err := stream.Collect(context.Background(), NewReader(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if !record.EqualRows(got, rows) {
		t.Errorf("got %v, want %v", got, rows)
	}
}

func TestWriterRejectsNaN(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	if err := w.Write(record.Record{"x": record.Float(math.NaN())}); err == nil {
		t.Error("expected error for NaN")
	}
}
