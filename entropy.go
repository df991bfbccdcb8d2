package api

import (
	"github.com/bwesterb/go-ristretto"
)

// Entropy supplies the fresh scalars consumed by encryption, commitment and
// proof construction. Every call must return a value drawn independently of
// all previous calls; reusing a scalar across two encryptions under the same
// key is a defect. The source is injected so tests can script it and audit
// for reuse.
type Entropy interface {
	RandomScalar() *ristretto.Scalar
}

type CryptoEntropy struct{}

func (CryptoEntropy) RandomScalar() *ristretto.Scalar {
	var r ristretto.Scalar
	return r.Rand()
}
