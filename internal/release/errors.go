package release

import "fmt"

// ResolutionErrorKind classifies a failure to resolve a query.
type ResolutionErrorKind int

const (
	// NotFound means the query was well-formed but matched nothing.
	NotFound ResolutionErrorKind = iota
	// Failed means the candidate list could not be obtained.
	Failed
	// InvalidVersion means the query itself was malformed.
	InvalidVersion
)

// String returns the kind name.
func (k ResolutionErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Failed:
		return "failed"
	case InvalidVersion:
		return "invalid version"
	default:
		return "unknown"
	}
}

// ResolutionError reports why a query could not be turned into a release.
type ResolutionError struct {
	Kind    ResolutionErrorKind
	Message string
	Err     error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}
