package errortypes

// Severity tells whether an error stops the response or is only reported alongside it.
type Severity int

const (
	SeverityUnknown Severity = iota
	// SeverityFatal errors drop the work they were raised for.
	SeverityFatal
	// SeverityWarning errors mark input that was ignored or repaired.
	SeverityWarning
)

func severityOf(err error) Severity {
	if c, ok := err.(Coder); ok {
		return c.Severity()
	}
	return SeverityUnknown
}

// isFatal treats errors without a Coder as fatal.
func isFatal(err error) bool {
	s := severityOf(err)
	return s == SeverityFatal || s == SeverityUnknown
}

// IsWarning reports whether err carries SeverityWarning. Such errors are usually *Warning values.
func IsWarning(err error) bool {
	return severityOf(err) == SeverityWarning
}

// ContainsFatalError reports whether any of errs is fatal.
func ContainsFatalError(errs []error) bool {
	for _, err := range errs {
		if isFatal(err) {
			return true
		}
	}
	return false
}

// FatalOnly keeps the fatal errors of errs, in order.
func FatalOnly(errs []error) []error {
	return filter(errs, isFatal)
}

// WarningOnly keeps the warnings of errs, in order.
func WarningOnly(errs []error) []error {
	return filter(errs, IsWarning)
}

func filter(errs []error, keep func(error) bool) []error {
	kept := make([]error, 0, len(errs))
	for _, err := range errs {
		if keep(err) {
			kept = append(kept, err)
		}
	}
	return kept
}
