package content

import (
	"fmt"
	"strings"
)

// Diagnostic is a skipped declarative entry or a failed install. None of
// them abort the load.
type Diagnostic struct {
	Source  string // file or folder the problem came from
	Message string
	Err     error
}

func (d Diagnostic) String() string {
	if d.Err != nil {
		return fmt.Sprintf("%s: %s: %v", d.Source, d.Message, d.Err)
	}
	return fmt.Sprintf("%s: %s", d.Source, d.Message)
}

// Report summarizes one load cycle.
type Report struct {
	Installed   int
	Entries     int // JSON/INI entries accepted
	Diagnostics []Diagnostic
}

func (r *Report) addf(source string, err error, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Source: source, Message: fmt.Sprintf(format, args...), Err: err})
}

// HasDiagnostic reports whether any diagnostic message contains substr.
func (r Report) HasDiagnostic(substr string) bool {
	for _, d := range r.Diagnostics {
		if strings.Contains(d.String(), substr) {
			return true
		}
	}
	return false
}
