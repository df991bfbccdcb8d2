package api

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/bwesterb/go-ristretto"
)

// Scalar field helpers over the ristretto255 group order. Every result is
// normalized into [0, order).

func AddScalars(a, b *ristretto.Scalar) *ristretto.Scalar {
	var s ristretto.Scalar
	return s.Add(a, b)
}

func SubScalars(a, b *ristretto.Scalar) *ristretto.Scalar {
	var s ristretto.Scalar
	return s.Sub(a, b)
}

func MulScalars(a, b *ristretto.Scalar) *ristretto.Scalar {
	var s ristretto.Scalar
	return s.Mul(a, b)
}

// ReduceWide reduces up to 64 bytes into a scalar.
func ReduceWide(data []byte) *ristretto.Scalar {
	var data64 [64]byte
	copy(data64[:], data)
	var s ristretto.Scalar
	return s.SetReduced(&data64)
}

func uint64ToScalar(i uint64) *ristretto.Scalar {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[:], i)
	var s ristretto.Scalar
	return s.SetBytes(&buf)
}

func hexToScalar(h string) *ristretto.Scalar {
	buf, err := hex.DecodeString(h)
	if err != nil {
		panic(err)
	}
	var buf32 [32]byte
	copy(buf32[:], buf)
	var s ristretto.Scalar
	return s.SetBytes(&buf32)
}

func hexToPoint(h string) *ristretto.Point {
	buf, err := hex.DecodeString(h)
	if err != nil {
		panic(err)
	}
	var buf32 [32]byte
	copy(buf32[:], buf)
	var p ristretto.Point
	p.SetBytes(&buf32)
	return &p
}

func multiscalarMul(scalars []*ristretto.Scalar, points []*ristretto.Point) *ristretto.Point {
	var p ristretto.Point
	p.SetZero()
	for i := range scalars {
		var t ristretto.Point
		t.ScalarMult(points[i], scalars[i])
		p.Add(&p, &t)
	}
	return &p
}
