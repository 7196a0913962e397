package loader

import "fmt"

// EdgeFileError represents an error in an edge file.
type EdgeFileError struct {
	File    string
	Line    int
	Message string
	Err     error
}

func (e *EdgeFileError) Error() string {
	if e.File != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (e *EdgeFileError) Unwrap() error { return e.Err }
