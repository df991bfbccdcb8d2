package api

import (
	"github.com/pkg/errors"
)

var (
	// ErrEncoding is returned when a value is outside its representable
	// range before any proof is attempted.
	ErrEncoding = errors.New("value outside representable range")
	// ErrProofConstruction is returned when an internal invariant is
	// violated while building a proof, e.g. a value exceeds the declared
	// bit width of its range proof.
	ErrProofConstruction = errors.New("proof construction failed")
	// ErrVerificationRejected is returned when a recomputed check fails on
	// the verifier side. It signals an invalid proof or a stale commitment,
	// not necessarily a bug in the constructing party.
	ErrVerificationRejected = errors.New("proof verification rejected")
	// ErrInsufficientBalance is returned when the real balance is too low
	// to construct a valid balance proof. It fails locally, before any
	// network submission.
	ErrInsufficientBalance = errors.New("insufficient balance for proof")
	// ErrSubmission covers transient ledger or transport failures. Retry by
	// resubmitting the same already-built bundle, never by rebuilding it.
	ErrSubmission = errors.New("submission failed")
)
