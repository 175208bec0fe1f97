package parser

import "fmt"

// ParseError indicates markup that could not be read.
type ParseError struct {
	Stage string
	Err   error
}

func (e ParseError) Error() string {
	return fmt.Errorf("parse %s: %w", e.Stage, e.Err).Error()
}

func (e ParseError) Unwrap() error {
	return e.Err
}
