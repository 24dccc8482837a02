package model

import (
	"errors"
	"fmt"
	"strings"
)

// MalformedSnapshotError reports a snapshot or stats file that could not be
// parsed. Line is 1-based and counts the header; it is 0 when the problem is
// not tied to a row.
type MalformedSnapshotError struct {
	Path   string
	Line   int
	Column string
	Reason string
	Err    error
}

// Error formats the error as "malformed snapshot <path>:<line>: <column>: <reason>".
func (e *MalformedSnapshotError) Error() string {
	var b strings.Builder
	b.WriteString("malformed snapshot")
	if e.Path != "" {
		b.WriteString(" " + e.Path)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
	}
	b.WriteString(": ")
	if e.Column != "" {
		b.WriteString(e.Column + ": ")
	}
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *MalformedSnapshotError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err is or wraps a *MalformedSnapshotError.
func IsMalformed(err error) bool {
	var me *MalformedSnapshotError
	return errors.As(err, &me)
}
