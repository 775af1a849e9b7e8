package datasets

import "fmt"

// ParseError reports a line of a dataset configuration file that could not be
// parsed, identifying the file and the line number.
type ParseError struct {
	File   string
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %q", e.File, e.Line, e.Reason, e.Text)
}

// MissingParentError reports a split section whose parent dataset section
// does not exist anywhere in the file.
type MissingParentError struct {
	File    string
	Section string
	Parent  string
}

func (e *MissingParentError) Error() string {
	return fmt.Sprintf("%s: section [%s] references missing parent section [%s]", e.File, e.Section, e.Parent)
}
