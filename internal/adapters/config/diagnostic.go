package config

import "fmt"

// Diagnostic is a single parse-time or interpolation-time error, carrying a
// file:line:column anchor (§4.1, §7).
type Diagnostic struct {
	File    string
	Line    int
	Col     int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Col, d.Message)
}

// SyntaxError aggregates every diagnostic collected during one parse (§7:
// ConfigSyntaxError — panic-mode recovery continues past individual errors
// and the pipeline fails only once parsing is done).
type SyntaxError struct {
	Diagnostics []Diagnostic
}

func (e *SyntaxError) Error() string {
	if len(e.Diagnostics) == 1 {
		return e.Diagnostics[0].String()
	}
	msg := fmt.Sprintf("%d configuration syntax errors:", len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		msg += "\n  " + d.String()
	}
	return msg
}
