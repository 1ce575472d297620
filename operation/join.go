package operation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/record"
	"github.com/kbukum/compgraph/stream"
)

// Strategy selects how a Join treats groups present on one side only.
type Strategy uint8

const (
	// Inner drops unmatched groups on both sides.
	Inner Strategy = iota
	// Left keeps unmatched left rows, filling right fields with the absence marker.
	Left
	// Right keeps unmatched right rows, filling left fields with the absence marker.
	Right
	// Full keeps unmatched rows from both sides.
	Full
)

var strategyNames = map[Strategy]string{
	Inner: "inner",
	Left:  "left",
	Right: "right",
	Full:  "full",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

// ParseStrategy parses one of "inner", "left", "right", "full" ("outer" is
// accepted for full).
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "inner", "":
		return Inner, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "full", "outer":
		return Full, nil
	}
	return 0, errors.InvalidConfig(fmt.Sprintf("unknown join strategy %q", s))
}

func (s Strategy) keepsLeft() bool  { return s == Left || s == Full }
func (s Strategy) keepsRight() bool { return s == Right || s == Full }

// Default suffixes appended to a non-key field present on both join sides.
const (
	DefaultLeftSuffix  = "_1"
	DefaultRightSuffix = "_2"
)

// Join merges two inputs that are both ordered ascending by Key.
//
// Matching groups produce their cross product: for every left row in input
// order, every right row in input order. Key fields are emitted once. A
// non-key field present on both sides is emitted twice, renamed with
// LeftSuffix and RightSuffix; every other field keeps its name. A renamed
// field that meets another field of the same name fails the stage with
// INVALID_CONFIG instead of replacing it. Unmatched
// rows kept by the strategy are merged with a row of absence markers shaped
// like the most recently seen row of the other side.
type Join struct {
	Strategy    Strategy
	Key         record.Key
	LeftSuffix  string
	RightSuffix string
	// CheckOrder makes the stage fail with GROUPING_VIOLATION when either
	// input's keys are not strictly ascending from group to group.
	CheckOrder bool
}

// JoinOption configures a Join.
type JoinOption func(*Join)

// WithSuffixes sets the suffixes used for colliding non-key fields.
func WithSuffixes(left, right string) JoinOption {
	return func(j *Join) {
		j.LeftSuffix = left
		j.RightSuffix = right
	}
}

// WithOrderCheck enables the debug ordering check.
func WithOrderCheck(enabled bool) JoinOption {
	return func(j *Join) { j.CheckOrder = enabled }
}

// NewJoin creates a validated Join.
func NewJoin(strategy Strategy, key record.Key, opts ...JoinOption) (*Join, error) {
	j := &Join{
		Strategy:    strategy,
		Key:         key,
		LeftSuffix:  DefaultLeftSuffix,
		RightSuffix: DefaultRightSuffix,
	}
	for _, opt := range opts {
		opt(j)
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

// Validate checks the join configuration.
func (j *Join) Validate() error {
	if _, ok := strategyNames[j.Strategy]; !ok {
		return errors.InvalidConfig(fmt.Sprintf("unknown join strategy %d", j.Strategy))
	}
	if j.LeftSuffix == "" || j.RightSuffix == "" {
		return errors.InvalidConfig("join suffixes must not be empty")
	}
	if j.LeftSuffix == j.RightSuffix {
		return errors.InvalidConfig(fmt.Sprintf("join suffixes must differ (both %q)", j.LeftSuffix))
	}
	seen := make(map[string]bool, len(j.Key))
	for _, f := range j.Key {
		if seen[f] {
			return errors.InvalidConfig(fmt.Sprintf("join key repeats field %q", f))
		}
		seen[f] = true
	}
	return nil
}

// Bind fixes the right input, producing a single-input Operation.
func (j *Join) Bind(right stream.Iterator) Operation {
	return boundJoin{join: j, right: right}
}

type boundJoin struct {
	join  *Join
	right stream.Iterator
}

func (b boundJoin) Transform(left stream.Iterator) stream.Iterator {
	return b.join.Merge(left, b.right)
}

// Merge joins left and right lazily. Each side holds one key group at a time.
func (j *Join) Merge(left, right stream.Iterator) stream.Iterator {
	check := checkNone
	if j.CheckOrder {
		check = checkAscending
	}
	return &joinIter{
		join:  j,
		left:  newGroupScanner(left, j.Key, "join left", check),
		right: newGroupScanner(right, j.Key, "join right", check),
	}
}

type joinIter struct {
	join        *Join
	left, right *groupScanner

	lg, rg     group
	lok, rok   bool
	started    bool
	leftShape  record.Record
	rightShape record.Record

	cur cursor
}

// cursor walks the output of one group pair, one merged row per Next.
// After the last row the groups it names are advanced.
type cursor struct {
	left, right []record.Record
	rightKeys   bool
	i, j        int

	advLeft, advRight bool
}

func (c *cursor) done() bool { return c.i >= len(c.left) }

func (c *cursor) next(j *Join) (record.Record, error) {
	l, r := c.left[c.i], c.right[c.j]
	keys := l
	if c.rightKeys {
		keys = r
	}
	c.j++
	if c.j == len(c.right) {
		c.i, c.j = c.i+1, 0
	}
	return j.merge(l, r, keys)
}

func (it *joinIter) advanceLeft(ctx context.Context) error {
	g, ok, err := it.left.next(ctx)
	if err != nil {
		return err
	}
	it.lg, it.lok = g, ok
	if ok {
		it.leftShape = g.rows[0]
	}
	return nil
}

func (it *joinIter) advanceRight(ctx context.Context) error {
	g, ok, err := it.right.next(ctx)
	if err != nil {
		return err
	}
	it.rg, it.rok = g, ok
	if ok {
		it.rightShape = g.rows[0]
	}
	return nil
}

func (it *joinIter) Next(ctx context.Context) (record.Record, bool, error) {
	for {
		if !it.cur.done() {
			row, err := it.cur.next(it.join)
			if err != nil {
				return nil, false, err
			}
			return row, true, nil
		}
		more, err := it.step(ctx)
		if err != nil {
			return nil, false, err
		}
		if !more {
			return nil, false, nil
		}
	}
}

// step advances past the groups of the finished cursor and sets up the
// cursor for the next pair. It reports false once nothing is left to emit.
func (it *joinIter) step(ctx context.Context) (bool, error) {
	if !it.started {
		it.started = true
		it.cur = cursor{advLeft: true, advRight: true}
	}
	if it.cur.advLeft {
		if err := it.advanceLeft(ctx); err != nil {
			return false, err
		}
	}
	if it.cur.advRight {
		if err := it.advanceRight(ctx); err != nil {
			return false, err
		}
	}
	it.cur = cursor{}

	s := it.join.Strategy
	switch {
	case !it.lok && !it.rok:
		return false, nil
	case !it.rok:
		if !s.keepsLeft() {
			it.lok = false
			return false, nil
		}
		it.cur = it.leftOnly()
		return true, nil
	case !it.lok:
		if !s.keepsRight() {
			it.rok = false
			return false, nil
		}
		it.cur = it.rightOnly()
		return true, nil
	}

	c, err := it.join.Key.Compare(it.lg.key, it.rg.key)
	if err != nil {
		return false, err
	}
	switch {
	case c < 0 && s.keepsLeft():
		it.cur = it.leftOnly()
	case c < 0:
		it.cur = cursor{advLeft: true}
	case c > 0 && s.keepsRight():
		it.cur = it.rightOnly()
	case c > 0:
		it.cur = cursor{advRight: true}
	default:
		it.cur = cursor{left: it.lg.rows, right: it.rg.rows, advLeft: true, advRight: true}
	}
	return true, nil
}

func (it *joinIter) leftOnly() cursor {
	phantom := it.join.absentLike(it.rightShape)
	return cursor{left: it.lg.rows, right: []record.Record{phantom}, advLeft: true}
}

func (it *joinIter) rightOnly() cursor {
	phantom := it.join.absentLike(it.leftShape)
	return cursor{left: []record.Record{phantom}, right: it.rg.rows, rightKeys: true, advRight: true}
}

// buffered returns the number of input rows held in the current groups.
func (it *joinIter) buffered() int {
	return len(it.lg.rows) + len(it.rg.rows)
}

func (it *joinIter) Close() error {
	it.cur = cursor{}
	it.lg, it.rg = group{}, group{}
	return multierr.Append(it.left.Close(), it.right.Close())
}

// absentLike returns a row holding the absence marker for every non-key
// field of shape. A nil shape yields an empty row.
func (j *Join) absentLike(shape record.Record) record.Record {
	out := make(record.Record, len(shape))
	for f := range shape {
		if !j.Key.Contains(f) {
			out[f] = record.Absent()
		}
	}
	return out
}

// merge combines l and r, taking key fields from keys. It fails when a
// suffixed name meets another field of the same name.
func (j *Join) merge(l, r, keys record.Record) (record.Record, error) {
	out := make(record.Record, len(l)+len(r))
	for _, f := range j.Key {
		out[f] = keys[f]
	}
	for f, v := range l {
		if j.Key.Contains(f) {
			continue
		}
		name := f
		if _, clash := r[f]; clash {
			name = f + j.LeftSuffix
		}
		if err := j.put(out, name, v); err != nil {
			return nil, err
		}
	}
	for f, v := range r {
		if j.Key.Contains(f) {
			continue
		}
		name := f
		if _, clash := l[f]; clash {
			name = f + j.RightSuffix
		}
		if err := j.put(out, name, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (j *Join) put(out record.Record, name string, v record.Value) error {
	if _, dup := out[name]; dup {
		return errors.InvalidConfig(fmt.Sprintf("join output field %q would be written twice, choose other suffixes", name)).
			WithDetail("field", name)
	}
	out[name] = v
	return nil
}
