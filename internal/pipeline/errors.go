package pipeline

import "fmt"

// FailureKind classifies where an acquisition run stopped. Every vendor,
// persistence or filesystem error is mapped into exactly one kind before it
// reaches a caller.
type FailureKind string

const (
	FailureNotFound      FailureKind = "not_found"
	FailureMetadata      FailureKind = "metadata_failed"
	FailurePersist       FailureKind = "persistence_failed"
	FailureURLResolution FailureKind = "url_resolution_failed"
	FailureTransfer      FailureKind = "download_failed"
)

// Message returns the user-facing description for the kind.
func (k FailureKind) Message() string {
	switch k {
	case FailureNotFound:
		return "song not found"
	case FailureMetadata:
		return "failed to resolve song metadata"
	case FailurePersist:
		return "failed to save song info"
	case FailureURLResolution:
		return "failed to resolve download url"
	case FailureTransfer:
		return "download failed"
	default:
		return "acquisition failed"
	}
}

// StepError wraps the underlying cause with its failure kind.
type StepError struct {
	Kind FailureKind
	Err  error
}

func (e *StepError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
