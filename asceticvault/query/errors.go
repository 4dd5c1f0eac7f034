package query

import "fmt"

// UnsupportedOperatorError reports a keyword that cannot be evaluated against
// a record identifier.
type UnsupportedOperatorError struct {
	Type     PartType
	Property string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("query: unsupported keyword %s on property %q", e.Type, e.Property)
}

// ParameterExhaustionError reports a condition that needs more bound
// parameters than the caller supplied.
type ParameterExhaustionError struct {
	Property string
	Index    int
}

func (e *ParameterExhaustionError) Error() string {
	return fmt.Sprintf("query: no parameter at index %d for property %q", e.Index, e.Property)
}

type PatternCompilationError struct {
	Pattern string
	Err     error
}

func (e *PatternCompilationError) Error() string {
	return fmt.Sprintf("query: invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternCompilationError) Unwrap() error {
	return e.Err
}

type InvalidParameterError struct {
	Index  int
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("query: invalid parameter at index %d: %s", e.Index, e.Reason)
}

type MethodNameError struct {
	Method string
	Reason string
}

func (e *MethodNameError) Error() string {
	return fmt.Sprintf("query: cannot derive query from %q: %s", e.Method, e.Reason)
}
