// Package capture implements the append-only log of traffic observed
// by a relay session.
//
// The log accepts appends from both relay directions concurrently and
// serializes them under a mutex, so readers always observe a consistent
// prefix of the eventual sequence and never a torn record. Within one
// direction the append order matches arrival order; across directions
// no ordering is guaranteed.
package capture

import (
	"bytes"
	"sync"
)

// Log is an ordered, append-only sequence of Records.
// The zero value is not usable; construct with NewLog.
type Log struct {
	mu       sync.Mutex
	records  []Record
	onAppend func(Record)
}

// NewLog creates an empty Log.
// If onAppend is non-nil it is invoked once per appended record, after
// the record is visible to Snapshot. The callback runs outside the
// log's critical section and must not assume any cross-direction order.
func NewLog(onAppend func(Record)) *Log {
	return &Log{onAppend: onAppend}
}

// Append adds a record to the end of the log and fires the append
// notification. The payload is copied, so the caller's buffer may be
// reused after Append returns.
func (l *Log) Append(r Record) {
	r.Payload = bytes.Clone(r.Payload)

	l.mu.Lock()
	l.records = append(l.records, r)
	l.mu.Unlock()

	if l.onAppend != nil {
		l.onAppend(r)
	}
}

// Len returns the number of records currently in the log
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Snapshot returns a copy of the records currently present, in append
// order. Safe to call concurrently with appends; the result is a
// consistent prefix of the eventual sequence.
func (l *Log) Snapshot() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}
