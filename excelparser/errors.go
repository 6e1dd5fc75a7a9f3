package excelparser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid spreadsheet")

	// ErrUnresolvedParent matches every *UnresolvedParentError.
	ErrUnresolvedParent = errors.New("unresolved parent")
)

// Issue is one problem found in a spreadsheet. Row is the 1-based sheet row
// number, zero for problems not tied to a row.
type Issue struct {
	Sheet   string
	Row     int
	Column  string
	Message string
}

func (i Issue) String() string {
	var loc []string
	if i.Sheet != "" {
		loc = append(loc, i.Sheet)
	}
	if i.Row > 0 {
		loc = append(loc, fmt.Sprintf("row %d", i.Row))
	}
	if i.Column != "" {
		loc = append(loc, i.Column)
	}
	if len(loc) == 0 {
		return i.Message
	}
	return strings.Join(loc, " ") + ": " + i.Message
}

// ValidationError collects every issue found while validating a workbook.
type ValidationError struct {
	Path   string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("invalid spreadsheet %s: %s", e.Path, e.Issues[0])
	}
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("invalid spreadsheet %s: %d issues: %s", e.Path, len(e.Issues), strings.Join(msgs, "; "))
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// UnresolvedRow is a concept row whose parents could not be found.
type UnresolvedRow struct {
	Row     int
	Name    string
	Missing []string
}

// UnresolvedParentError lists every row left with unknown parents after
// all building passes.
type UnresolvedParentError struct {
	Path string
	Rows []UnresolvedRow
}

func (e *UnresolvedParentError) Error() string {
	parts := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		parts[i] = fmt.Sprintf("row %d %q (missing %s)", r.Row, r.Name, strings.Join(r.Missing, ", "))
	}
	return fmt.Sprintf("unresolved parents in %s: %s", e.Path, strings.Join(parts, "; "))
}

// Unwrap returns ErrUnresolvedParent.
func (e *UnresolvedParentError) Unwrap() error { return ErrUnresolvedParent }
