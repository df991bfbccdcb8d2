package api

import (
	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
	"github.com/pkg/errors"
)

// AMOUNT_NUM_BITS is the bit width every traded amount is range-proved to.
const AMOUNT_NUM_BITS = 64

// RangeProof proves that a committed value lies in [0, 2^NumBits) without
// revealing it. One Pedersen commitment per bit, a borromean-style OR proof
// that each bit commitment opens to 0 or 1, and a single aggregate
// Fiat-Shamir challenge. The weighted sum of the bit commitments reconstructs
// the target commitment, so the bits decompose the committed value itself.
//
// Responses carries three scalars per bit: the sub-challenge of the zero
// branch and the responses of both branches. The one branch sub-challenge is
// Challenge minus the stored one.
type RangeProof struct {
	BitCommitments []*ristretto.Point
	Challenge      *ristretto.Scalar
	Responses      []*ristretto.Scalar
	NumBits        int
}

// BuildRangeProof proves value against the commitment value*B +
// blinding*blindBase. A value outside [0, 2^numBits) fails here, at
// construction, never by silently truncating.
func BuildRangeProof(t *merlin.Transcript, value uint64, blinding *ristretto.Scalar, numBits int, blindBase *ristretto.Point, entropy Entropy) (*RangeProof, error) {
	switch numBits {
	case 8, 16, 32, 64:
	default:
		return nil, errors.Wrapf(ErrProofConstruction, "invalid bit size %d", numBits)
	}
	if numBits < 64 && value >= uint64(1)<<uint(numBits) {
		return nil, errors.Wrapf(ErrProofConstruction, "value exceeds %d bits", numBits)
	}

	// Bit blindings close to the commitment blinding under their weights,
	// so sum(2^i * B_i) equals the target commitment.
	bitBlindings := make([]*ristretto.Scalar, numBits)
	var weighted ristretto.Scalar
	weighted.SetZero()
	for i := 1; i < numBits; i++ {
		bitBlindings[i] = entropy.RandomScalar()
		weighted.Add(&weighted, MulScalars(uint64ToScalar(uint64(1)<<uint(i)), bitBlindings[i]))
	}
	bitBlindings[0] = SubScalars(blinding, &weighted)

	var base ristretto.Point
	base.SetBase()

	commitments := make([]*ristretto.Point, numBits)
	for i := 0; i < numBits; i++ {
		var c ristretto.Point
		c.ScalarMult(blindBase, bitBlindings[i])
		if (value>>uint(i))&1 == 1 {
			c.Add(&c, &base)
		}
		commitments[i] = &c
	}

	// Per bit: run the real branch with a fresh witness and simulate the
	// other with a scripted sub-challenge and response.
	witnesses := make([]*ristretto.Scalar, numBits)
	simChallenges := make([]*ristretto.Scalar, numBits)
	simResponses := make([]*ristretto.Scalar, numBits)
	t0 := make([]*ristretto.Point, numBits)
	t1 := make([]*ristretto.Point, numBits)
	for i := 0; i < numBits; i++ {
		witnesses[i] = entropy.RandomScalar()
		simChallenges[i] = entropy.RandomScalar()
		simResponses[i] = entropy.RandomScalar()

		var live ristretto.Point
		live.ScalarMult(blindBase, witnesses[i])

		var shifted ristretto.Point
		shifted.Sub(commitments[i], &base)

		if (value>>uint(i))&1 == 0 {
			t0[i] = &live
			t1[i] = simulatedWitness(blindBase, &shifted, simChallenges[i], simResponses[i])
		} else {
			t0[i] = simulatedWitness(blindBase, commitments[i], simChallenges[i], simResponses[i])
			t1[i] = &live
		}
	}

	appendInt64("n", uint64(numBits), t)
	appendPoint("blind-base", blindBase, t)
	for i := 0; i < numBits; i++ {
		appendPoint("bit", commitments[i], t)
	}
	for i := 0; i < numBits; i++ {
		appendPoint("t0", t0[i], t)
		appendPoint("t1", t1[i], t)
	}
	challenge := challengeScalar("range-challenge", t)

	responses := make([]*ristretto.Scalar, 0, 3*numBits)
	for i := 0; i < numBits; i++ {
		if (value>>uint(i))&1 == 0 {
			c0 := SubScalars(challenge, simChallenges[i])
			s0 := AddScalars(witnesses[i], MulScalars(c0, bitBlindings[i]))
			responses = append(responses, c0, s0, simResponses[i])
		} else {
			c0 := simChallenges[i]
			c1 := SubScalars(challenge, c0)
			s1 := AddScalars(witnesses[i], MulScalars(c1, bitBlindings[i]))
			responses = append(responses, c0, simResponses[i], s1)
		}
	}

	return &RangeProof{
		BitCommitments: commitments,
		Challenge:      challenge,
		Responses:      responses,
		NumBits:        numBits,
	}, nil
}

// simulatedWitness recomputes the witness commitment of a branch from its
// response and sub-challenge: s*blindBase - c*statement.
func simulatedWitness(blindBase, statement *ristretto.Point, c, s *ristretto.Scalar) *ristretto.Point {
	var sb, cs, w ristretto.Point
	sb.ScalarMult(blindBase, s)
	cs.ScalarMult(statement, c)
	return w.Sub(&sb, &cs)
}

// Verify checks the proof against the target commitment. The transcript must
// be seeded exactly as at construction time.
func (p *RangeProof) Verify(t *merlin.Transcript, commitment, blindBase *ristretto.Point) error {
	if p.NumBits <= 0 || len(p.BitCommitments) != p.NumBits || len(p.Responses) != 3*p.NumBits || p.Challenge == nil {
		return errors.Wrap(ErrVerificationRejected, "malformed range proof")
	}
	for i := range p.BitCommitments {
		if p.BitCommitments[i] == nil {
			return errors.Wrap(ErrVerificationRejected, "malformed range proof")
		}
	}
	for i := range p.Responses {
		if p.Responses[i] == nil {
			return errors.Wrap(ErrVerificationRejected, "malformed range proof")
		}
	}

	// The weighted bit commitments must reconstruct the commitment.
	weights := make([]*ristretto.Scalar, p.NumBits)
	for i := 0; i < p.NumBits; i++ {
		weights[i] = uint64ToScalar(uint64(1) << uint(i))
	}
	if !multiscalarMul(weights, p.BitCommitments).Equals(commitment) {
		return errors.Wrap(ErrVerificationRejected, "bit commitments do not reconstruct the amount commitment")
	}

	var base ristretto.Point
	base.SetBase()

	t0 := make([]*ristretto.Point, p.NumBits)
	t1 := make([]*ristretto.Point, p.NumBits)
	for i := 0; i < p.NumBits; i++ {
		c0, s0, s1 := p.Responses[3*i], p.Responses[3*i+1], p.Responses[3*i+2]
		c1 := SubScalars(p.Challenge, c0)

		var shifted ristretto.Point
		shifted.Sub(p.BitCommitments[i], &base)

		t0[i] = simulatedWitness(blindBase, p.BitCommitments[i], c0, s0)
		t1[i] = simulatedWitness(blindBase, &shifted, c1, s1)
	}

	appendInt64("n", uint64(p.NumBits), t)
	appendPoint("blind-base", blindBase, t)
	for i := 0; i < p.NumBits; i++ {
		appendPoint("bit", p.BitCommitments[i], t)
	}
	for i := 0; i < p.NumBits; i++ {
		appendPoint("t0", t0[i], t)
		appendPoint("t1", t1[i], t)
	}
	if !challengeScalar("range-challenge", t).Equals(p.Challenge) {
		return errors.Wrap(ErrVerificationRejected, "range proof challenge mismatch")
	}
	return nil
}

func (p *RangeProof) ToBytes() []byte {
	var buf []byte
	for _, c := range p.BitCommitments {
		buf = append(buf, c.Bytes()...)
	}
	buf = append(buf, p.Challenge.Bytes()...)
	for _, r := range p.Responses {
		buf = append(buf, r.Bytes()...)
	}
	return buf
}
