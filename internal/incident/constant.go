package incident

type Severity string
type Type string
type Format string

const (
	INFO     Severity = "INFO"
	LOW      Severity = "LOW"
	MEDIUM   Severity = "MEDIUM"
	HIGH     Severity = "HIGH"
	CRITICAL Severity = "CRITICAL"
)

const (
	Success         Type = "success"
	Timeout         Type = "timeout"
	ConnectionError Type = "connection_error"
	OtherError      Type = "other_error"
)

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// IsFailure reports whether an outcome of this type is an incident.
func (t Type) IsFailure() bool {
	return t != Success
}

func (t Type) Valid() bool {
	switch t {
	case Success, Timeout, ConnectionError, OtherError:
		return true
	}
	return false
}

// Severity used when forwarding an incident of this type.
func (t Type) Severity() Severity {
	switch t {
	case Timeout:
		return MEDIUM
	case ConnectionError, OtherError:
		return HIGH
	}
	return INFO
}

func (f Format) Valid() bool {
	return f == FormatText || f == FormatJSON
}
