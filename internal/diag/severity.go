package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Tag is a presentation hint attached to a diagnostic.
type Tag uint8

const (
	// TagUnnecessary marks unused symbols; editors render them faded out.
	TagUnnecessary Tag = iota + 1
	// TagDeprecated marks use of deprecated API; editors strike it through.
	TagDeprecated
)

func (t Tag) String() string {
	switch t {
	case TagUnnecessary:
		return "unnecessary"
	case TagDeprecated:
		return "deprecated"
	}
	return "unknown"
}
