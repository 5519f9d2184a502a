package ledger

import "fmt"

// ValidationError rejects a submitted delivery before any ledger mutation.
type ValidationError struct {
	Frame  int
	Shot   int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid delivery (frame %d, shot %d): %s", e.Frame, e.Shot, e.Reason)
}

// ConsistencyError marks a loaded ledger that violates a structural invariant.
// Scoring and cursor derivation refuse to proceed on the affected game.
type ConsistencyError struct {
	GameID string
	Frame  int
	Reason string
}

func (e *ConsistencyError) Error() string {
	if e.Frame > 0 {
		return fmt.Sprintf("inconsistent ledger for game %s (frame %d): %s", e.GameID, e.Frame, e.Reason)
	}
	return fmt.Sprintf("inconsistent ledger for game %s: %s", e.GameID, e.Reason)
}

// RestoreError marks persisted records that cannot be parsed into deliveries
// at all. Distinct from ConsistencyError so the caller can start fresh
// instead of treating the game as corrupt.
type RestoreError struct {
	GameID string
	Err    error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("cannot restore ledger for game %s: %v", e.GameID, e.Err)
}

func (e *RestoreError) Unwrap() error {
	return e.Err
}
