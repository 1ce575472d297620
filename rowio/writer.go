package rowio

import (
	"bufio"
	"context"
	"io"

	"github.com/kbukum/compgraph/record"
	"github.com/kbukum/compgraph/stream"
)

// Writer encodes rows as JSON, one per line.
type Writer struct {
	w   *bufio.Writer
	buf []byte
}

// NewWriter returns a buffered Writer. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write encodes one row.
func (w *Writer) Write(r record.Record) error {
	b, err := AppendRow(w.buf[:0], r)
	if err != nil {
		return err
	}
	w.buf = append(b, '\n')
	_, err = w.w.Write(w.buf)
	return err
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// WriteAll drains it into w and returns the number of rows written.
func WriteAll(ctx context.Context, w io.Writer, it stream.Iterator) (int, error) {
	out := NewWriter(w)
	n := 0
	err := stream.Drain(ctx, it, func(_ context.Context, r record.Record) error {
		if err := out.Write(r); err != nil {
			return err
		}
		n++
		return nil
	})
	if ferr := out.Flush(); err == nil {
		err = ferr
	}
	return n, err
}
