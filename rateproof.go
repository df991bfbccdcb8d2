package api

import (
	"math/big"

	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
	"github.com/pkg/errors"
)

// RateProof proves that one encrypted leg is the other encrypted leg
// multiplied by the committed rate, without revealing either amount or the
// rate. It is an AND-composed Schnorr proof over the cross commitment
// A = value*C_rate, which is a Pedersen commitment to value*rate and ties
// the two ciphertext legs to the advertised rate commitment:
//
//	C2_value = value*B + r_v*pub
//	A        = value*C_rate
//	SCALE*C2_product - A = (SCALE*r_p)*pub - (value*s)*BBlinding
//
// The maker proves want = give*rate; a taker proves, against the same
// commitment, give = want*rate. Witness commitments are not stored: the
// verifier recomputes them from the responses and re-derives the challenge.
type RateProof struct {
	RateCommitment   *ristretto.Point
	CrossCommitment  *ristretto.Point
	Challenge        *ristretto.Scalar
	ResponseGive     *ristretto.Scalar
	ResponseRate     *ristretto.Scalar
	ResponseBlinding *ristretto.Scalar
	ResponseWant     *ristretto.Scalar
}

type RateProofParams struct {
	// Value is the multiplier leg: the maker's give amount, or a taker's
	// want amount.
	Value             uint64
	ValueRandomness   *ristretto.Scalar
	ValueCiphertext   *Ciphertext
	// Product is the leg equal to Value times the rate.
	ProductValue      uint64
	ProductRandomness *ristretto.Scalar
	ProductCiphertext *Ciphertext
	Opening           *RateOpening
	RateCommitment    *ristretto.Point
}

func BuildRateProof(t *merlin.Transcript, gens *SwapGens, pub *ristretto.Point, p RateProofParams, entropy Entropy) (*RateProof, error) {
	// The relation is exact group arithmetic, so catch an inconsistent
	// witness before emitting an unverifiable proof.
	lhs := new(big.Int).Mul(new(big.Int).SetUint64(p.Value), new(big.Int).SetUint64(p.Opening.ScaledRate))
	rhs := new(big.Int).Mul(new(big.Int).SetUint64(p.ProductValue), new(big.Int).SetUint64(RATE_SCALE))
	if lhs.Cmp(rhs) != 0 {
		return nil, errors.Wrapf(ErrProofConstruction, "amounts %d/%d inconsistent with committed rate", p.Value, p.ProductValue)
	}

	value := uint64ToScalar(p.Value)
	gamma := MulScalars(value, p.Opening.Blinding)
	scaledProductRandomness := MulScalars(uint64ToScalar(RATE_SCALE), p.ProductRandomness)

	var cross ristretto.Point
	cross.ScalarMult(p.RateCommitment, value)

	wValue := entropy.RandomScalar()
	wValueRand := entropy.RandomScalar()
	wProductRand := entropy.RandomScalar()
	wGamma := entropy.RandomScalar()

	t1 := gens.CommitWithBase(wValue, wValueRand, pub)
	var t2 ristretto.Point
	t2.ScalarMult(p.RateCommitment, wValue)
	t3 := pointPairSub(pub, wProductRand, gens.BBlinding, wGamma)
	var t4, t5 ristretto.Point
	t4.ScalarMultBase(wValueRand)
	t5.ScalarMultBase(wProductRand)

	appendRateStatement(t, p.RateCommitment, &cross, p.ValueCiphertext, p.ProductCiphertext)
	appendPoint("t1", t1, t)
	appendPoint("t2", &t2, t)
	appendPoint("t3", t3, t)
	appendPoint("t4", &t4, t)
	appendPoint("t5", &t5, t)
	challenge := challengeScalar("rate-challenge", t)

	return &RateProof{
		RateCommitment:   p.RateCommitment,
		CrossCommitment:  &cross,
		Challenge:        challenge,
		ResponseGive:     AddScalars(wValue, MulScalars(challenge, value)),
		ResponseRate:     AddScalars(wGamma, MulScalars(challenge, gamma)),
		ResponseBlinding: AddScalars(wValueRand, MulScalars(challenge, p.ValueRandomness)),
		ResponseWant:     AddScalars(wProductRand, MulScalars(challenge, scaledProductRandomness)),
	}, nil
}

// Verify checks the proof against the advertised rate commitment and the two
// ciphertext legs. rateCommitment comes from the order, never from the proof,
// so a proof built for any other commitment fails here.
func (p *RateProof) Verify(t *merlin.Transcript, gens *SwapGens, pub *ristretto.Point, valueCt, productCt *Ciphertext, rateCommitment *ristretto.Point) error {
	if p.CrossCommitment == nil || p.Challenge == nil || p.ResponseGive == nil ||
		p.ResponseRate == nil || p.ResponseBlinding == nil || p.ResponseWant == nil {
		return errors.Wrap(ErrVerificationRejected, "malformed rate proof")
	}
	if p.RateCommitment == nil || !p.RateCommitment.Equals(rateCommitment) {
		return errors.Wrap(ErrVerificationRejected, "rate proof bound to a different commitment")
	}

	scale := uint64ToScalar(RATE_SCALE)
	scaledProduct := productCt.ScalarMult(scale)
	var p3 ristretto.Point
	p3.Sub(scaledProduct.C2, p.CrossCommitment)

	c := p.Challenge

	t1 := subWitness(gens.CommitWithBase(p.ResponseGive, p.ResponseBlinding, pub), valueCt.C2, c)
	var zc ristretto.Point
	zc.ScalarMult(rateCommitment, p.ResponseGive)
	t2 := subWitness(&zc, p.CrossCommitment, c)
	t3 := subWitness(pointPairSub(pub, p.ResponseWant, gens.BBlinding, p.ResponseRate), &p3, c)
	var zb1, zb2 ristretto.Point
	zb1.ScalarMultBase(p.ResponseBlinding)
	t4 := subWitness(&zb1, valueCt.C1, c)
	zb2.ScalarMultBase(p.ResponseWant)
	t5 := subWitness(&zb2, scaledProduct.C1, c)

	appendRateStatement(t, rateCommitment, p.CrossCommitment, valueCt, productCt)
	appendPoint("t1", t1, t)
	appendPoint("t2", t2, t)
	appendPoint("t3", t3, t)
	appendPoint("t4", t4, t)
	appendPoint("t5", t5, t)
	if !challengeScalar("rate-challenge", t).Equals(p.Challenge) {
		return errors.Wrap(ErrVerificationRejected, "rate proof challenge mismatch")
	}
	return nil
}

func (p *RateProof) ToBytes() []byte {
	var buf []byte
	buf = append(buf, p.RateCommitment.Bytes()...)
	buf = append(buf, p.CrossCommitment.Bytes()...)
	buf = append(buf, p.Challenge.Bytes()...)
	buf = append(buf, p.ResponseGive.Bytes()...)
	buf = append(buf, p.ResponseRate.Bytes()...)
	buf = append(buf, p.ResponseBlinding.Bytes()...)
	buf = append(buf, p.ResponseWant.Bytes()...)
	return buf
}

func appendRateStatement(t *merlin.Transcript, rateCommitment, cross *ristretto.Point, valueCt, productCt *Ciphertext) {
	appendPoint("rate-commitment", rateCommitment, t)
	appendPoint("cross-commitment", cross, t)
	appendCiphertext("value-ct", valueCt, t)
	appendCiphertext("product-ct", productCt, t)
}

// pointPairSub computes s1*base1 - s2*base2.
func pointPairSub(base1 *ristretto.Point, s1 *ristretto.Scalar, base2 *ristretto.Point, s2 *ristretto.Scalar) *ristretto.Point {
	var a, b, r ristretto.Point
	a.ScalarMult(base1, s1)
	b.ScalarMult(base2, s2)
	return r.Sub(&a, &b)
}

// subWitness recomputes a witness commitment: combined - c*statement.
func subWitness(combined, statement *ristretto.Point, c *ristretto.Scalar) *ristretto.Point {
	var cs, w ristretto.Point
	cs.ScalarMult(statement, c)
	return w.Sub(combined, &cs)
}
