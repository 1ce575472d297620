package rowio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/record"
	"github.com/kbukum/compgraph/stream"
)

// maxLineSize bounds a single encoded row.
const maxLineSize = 64 << 20

// Reader is a stream.Iterator over the lines of an io.Reader. Blank lines
// are skipped. A line the parser rejects fails with INVALID_FORMAT naming
// the line number.
type Reader struct {
	scanner *bufio.Scanner
	parse   LineParser
	name    string
	line    int
}

// NewReader reads JSON rows from r. Close does not close r.
func NewReader(r io.Reader) *Reader {
	return NewLineReader(r, ParseLine)
}

// NewLineReader reads rows from r through parse. Close does not close r.
func NewLineReader(r io.Reader, parse LineParser) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{scanner: sc, parse: parse, name: "input"}
}

// Next returns the next non-blank row.
func (r *Reader) Next(ctx context.Context) (record.Record, bool, error) {
	for r.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		r.line++
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		row, err := r.parse(line)
		if err != nil {
			return nil, false, errors.InvalidFormat(fmt.Sprintf("%s line %d", r.name, r.line), err).
				WithDetail("line", r.line)
		}
		return row, true, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", r.name, err)
	}
	return nil, false, nil
}

// Close is a no-op; the caller owns the underlying reader.
func (r *Reader) Close() error { return nil }

// Lines returns a Source that opens path on every Open and parses each
// non-blank line with parse.
func Lines(path string, parse LineParser) stream.Source {
	return stream.SourceFunc(func(_ context.Context) (stream.Iterator, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		r := NewLineReader(f, parse)
		r.name = path
		return stream.OnClose(r, func(err error) error {
			return multierr.Append(err, f.Close())
		}), nil
	})
}

// File returns a Source of JSON rows stored one per line in path.
func File(path string) stream.Source {
	return Lines(path, ParseLine)
}

// Files returns a Source reading the JSON rows of every path in turn. Each
// file is opened when the previous one is exhausted.
func Files(paths ...string) stream.Source {
	if len(paths) == 1 {
		return File(paths[0])
	}
	return stream.SourceFunc(func(_ context.Context) (stream.Iterator, error) {
		iters := make([]stream.Iterator, len(paths))
		for i, path := range paths {
			iters[i] = stream.Lazy(File(path))
		}
		return stream.Concat(iters...), nil
	})
}
