package operation

import (
	"context"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/record"
	"github.com/kbukum/compgraph/stream"
)

// checkMode selects the debug validation a groupScanner applies to group keys.
type checkMode uint8

const (
	checkNone checkMode = iota
	// checkUnique fails when a key reappears after a different key.
	checkUnique
	// checkAscending fails when a key is not greater than the previous one.
	checkAscending
)

type group struct {
	key  record.Tuple
	rows []record.Record
}

// groupScanner cuts a stream into maximal runs of key-equal rows,
// holding one row of look-ahead.
type groupScanner struct {
	source stream.Iterator
	key    record.Key
	stage  string
	check  checkMode

	pending    record.Record
	pendingKey record.Tuple
	hasPending bool
	done       bool

	prev record.Tuple
	seen map[string]struct{}
}

func newGroupScanner(source stream.Iterator, key record.Key, stage string, check checkMode) *groupScanner {
	s := &groupScanner{source: source, key: key, stage: stage, check: check}
	if check == checkUnique {
		s.seen = make(map[string]struct{})
	}
	return s
}

func (s *groupScanner) pull(ctx context.Context) error {
	row, ok, err := s.source.Next(ctx)
	if err != nil {
		return err
	}
	if !ok {
		s.done = true
		s.hasPending = false
		return nil
	}
	k, err := s.key.Extract(row)
	if err != nil {
		return err
	}
	s.pending, s.pendingKey, s.hasPending = row, k, true
	return nil
}

// next returns the next group, or ok=false at end of stream.
func (s *groupScanner) next(ctx context.Context) (g group, ok bool, err error) {
	if !s.hasPending && !s.done {
		if err := s.pull(ctx); err != nil {
			return group{}, false, err
		}
	}
	if !s.hasPending {
		return group{}, false, nil
	}

	g = group{key: s.pendingKey, rows: []record.Record{s.pending}}
	if err := s.validate(g.key); err != nil {
		return group{}, false, err
	}
	for {
		if err := s.pull(ctx); err != nil {
			return group{}, false, err
		}
		if !s.hasPending {
			return g, true, nil
		}
		c, err := s.key.Compare(g.key, s.pendingKey)
		if err != nil {
			return group{}, false, err
		}
		if c != 0 {
			return g, true, nil
		}
		g.rows = append(g.rows, s.pending)
	}
}

func (s *groupScanner) validate(k record.Tuple) error {
	switch s.check {
	case checkUnique:
		fp := k.Fingerprint()
		if _, dup := s.seen[fp]; dup {
			return errors.GroupingViolation(s.stage, s.key)
		}
		s.seen[fp] = struct{}{}
	case checkAscending:
		if s.prev != nil {
			c, err := s.key.Compare(s.prev, k)
			if err != nil {
				return err
			}
			if c >= 0 {
				return errors.GroupingViolation(s.stage, s.key)
			}
		}
		s.prev = k
	}
	return nil
}

func (s *groupScanner) Close() error {
	s.pending = nil
	return s.source.Close()
}
