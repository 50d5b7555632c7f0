// Package errs defines the typed error sum shared by every OMR package.
// Callers compare with errors.Is against these sentinels; none of them
// are ever raised as a panic or an os.Exit.
package errs

import "errors"

var (
	// ErrParameterMismatch is returned when two ciphertexts, keys or
	// plaintexts carry incompatible parameters (level, parms id, degree).
	ErrParameterMismatch = errors.New("omr: parameter mismatch")

	// ErrOutOfRange is returned when an index, slot count or core count
	// argument falls outside the bounds the caller's configuration allows.
	ErrOutOfRange = errors.New("omr: out of range")

	// ErrNoSolution is returned by the Gaussian elimination solver when
	// the sparse linear system has no consistent solution over GF(t).
	ErrNoSolution = errors.New("omr: no solution")

	// ErrOverflow is returned when a randomized decode exhausts all
	// repetition layers without recovering every expected index.
	ErrOverflow = errors.New("omr: overflow")

	// ErrCorruption is returned when a clue/payload store or a
	// serialized ciphertext fails to parse.
	ErrCorruption = errors.New("omr: corruption")
)
