package models

import "fmt"

// SourceError covers fetch-stage failures: unauthorized domains, timeouts,
// non-2xx responses, or a topic yielding zero documents. Non-fatal per
// query; fatal for the topic when nothing at all was fetched.
type SourceError struct {
	Topic  string
	Reason string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source error for topic %q: %s: %v", e.Topic, e.Reason, e.Err)
	}
	return fmt.Sprintf("source error for topic %q: %s", e.Topic, e.Reason)
}

func (e *SourceError) Unwrap() error { return e.Err }

// SynthesisError aborts the topic's pipeline run.
type SynthesisError struct {
	RuleID string
	Reason string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis error for rule %q: %s", e.RuleID, e.Reason)
}

// PersistenceError marks an unreachable store/search collaborator. The
// orchestrator downgrades it to a warning and keeps the package in memory.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
