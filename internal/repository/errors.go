package repository

import "errors"

var (
	// ErrNotFound is returned by Update when the target row vanished. Reads
	// and deletes report absence as nil / false instead.
	ErrNotFound = errors.New("not found")

	// ErrConflict wraps unique-constraint violations.
	ErrConflict = errors.New("conflict")

	// ErrTxDone is returned when a finished handle is committed or rolled back.
	ErrTxDone = errors.New("transaction already finished")

	// ErrForeignTx is returned when a handle from another backend is passed in.
	ErrForeignTx = errors.New("transaction handle belongs to another backend")

	// ErrConcurrentUpdate is returned when an optimistic update keeps losing races.
	ErrConcurrentUpdate = errors.New("concurrent update")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
