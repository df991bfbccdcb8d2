package api

import (
	"sync"

	"github.com/bwesterb/go-ristretto"
	"golang.org/x/crypto/sha3"
)

// SwapGens holds the two fixed, independent generators of the protocol:
// B for committed values and BBlinding for blinding factors. BBlinding is
// derived from B by hashing, so no party knows the discrete log relation
// between them. They are process-wide configuration, never sampled per call.
type SwapGens struct {
	B         *ristretto.Point
	BBlinding *ristretto.Point
}

var (
	defaultGensOnce sync.Once
	defaultGens     *SwapGens
)

func NewSwapGens() *SwapGens {
	var base ristretto.Point
	base.SetBase()

	h := sha3.New512()
	h.Write(base.Bytes())

	return &SwapGens{
		B:         &base,
		BBlinding: pointFromUniformBytes(h.Sum(nil)),
	}
}

// DefaultSwapGens returns the shared generator set, built once at first use.
func DefaultSwapGens() *SwapGens {
	defaultGensOnce.Do(func() {
		defaultGens = NewSwapGens()
	})
	return defaultGens
}

// Commit computes value*B + blinding*BBlinding.
func (sg *SwapGens) Commit(value, blinding *ristretto.Scalar) *ristretto.Point {
	return multiscalarMul([]*ristretto.Scalar{value, blinding}, []*ristretto.Point{sg.B, sg.BBlinding})
}

// CommitWithBase commits with an alternative blinding base. Ciphertext legs
// use the protocol public key as the blinding base, the rate commitment uses
// BBlinding.
func (sg *SwapGens) CommitWithBase(value, blinding *ristretto.Scalar, base *ristretto.Point) *ristretto.Point {
	return multiscalarMul([]*ristretto.Scalar{value, blinding}, []*ristretto.Point{sg.B, base})
}

func pointFromUniformBytes(key []byte) *ristretto.Point {
	var r1Bytes, r2Bytes [32]byte
	copy(r1Bytes[:], key[:32])
	copy(r2Bytes[:], key[32:])
	var r, r1, r2 ristretto.Point
	return r.Add(r1.SetElligator(&r1Bytes), r2.SetElligator(&r2Bytes))
}
