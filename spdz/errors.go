package spdz

import (
	"errors"
	"fmt"
)

// ErrStateHashMismatch signifies that the state-digest exchanged at an
// integrity checkpoint did not match across all parties: some party
// broadcast inconsistent values during the preceding round.
var ErrStateHashMismatch = errors.New("spdz: state hash mismatch")

// ErrMacCheckFailed signifies that the sum of the random-linear-combination
// MAC check shares was non-zero: some opened value's MAC was inconsistent
// with its value.
var ErrMacCheckFailed = errors.New("spdz: mac check failed")

// UnexpectedMessageError signifies that a message of the wrong kind was
// received from the given party.
type UnexpectedMessageError struct{ ID int }

func (e *UnexpectedMessageError) Error() string {
	return fmt.Sprintf("spdz: unexpected message from party %v", e.ID)
}

// IncorrectNumberOfValuesError signifies that a batch message from the given
// party did not carry the expected number of values.
type IncorrectNumberOfValuesError struct{ ID int }

func (e *IncorrectNumberOfValuesError) Error() string {
	return fmt.Sprintf("spdz: incorrect number of values from party %v", e.ID)
}

// CommitmentHashMismatchError signifies that the given party's decommitment
// did not match the commitment it broadcast earlier.
type CommitmentHashMismatchError struct{ ID int }

func (e *CommitmentHashMismatchError) Error() string {
	return fmt.Sprintf("spdz: commitment hash mismatch from party %v", e.ID)
}
