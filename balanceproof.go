package api

import (
	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
	"github.com/pkg/errors"
)

// BalanceProof proves that the prover's encrypted balance covers the give
// amount of an order, without revealing either value. The statement is built
// over the homomorphic difference D = balance ⊖ give: a Schnorr response ties
// the randomness of the two ciphertexts through D's C1 leg, and the embedded
// range proof shows D's C2 leg commits a non-negative difference.
type BalanceProof struct {
	BalanceCommitment *ristretto.Point
	Challenge         *ristretto.Scalar
	Response          *ristretto.Scalar
	DiffProof         *RangeProof
}

// BalanceWitness is the account owner's plaintext view of an encrypted
// balance: the amount and the accumulated encryption randomness.
type BalanceWitness struct {
	Amount     uint64
	Randomness *ristretto.Scalar
	Ciphertext *Ciphertext
}

// NewBalanceWitness encrypts an opening balance and keeps the plaintext side.
func NewBalanceWitness(amount uint64, pub *ristretto.Point, entropy Entropy) *BalanceWitness {
	r := entropy.RandomScalar()
	return &BalanceWitness{
		Amount:     amount,
		Randomness: r,
		Ciphertext: Encrypt(amount, pub, r),
	}
}

// Debit folds a settled spend back into the witness.
func (w *BalanceWitness) Debit(amount uint64, randomness *ristretto.Scalar, spent *Ciphertext) {
	w.Amount -= amount
	w.Randomness = SubScalars(w.Randomness, randomness)
	w.Ciphertext = w.Ciphertext.Combine(spent.Neg())
}

// BuildBalanceProof fails with ErrInsufficientBalance before anything touches
// the network when the real balance cannot cover giveAmount.
func BuildBalanceProof(t *merlin.Transcript, gens *SwapGens, pub *ristretto.Point, balance *BalanceWitness, giveAmount uint64, giveRandomness *ristretto.Scalar, giveCt *Ciphertext, entropy Entropy) (*BalanceProof, error) {
	if giveAmount > balance.Amount {
		return nil, errors.Wrapf(ErrInsufficientBalance, "balance covers %d, order gives %d", balance.Amount, giveAmount)
	}

	diff := balance.Amount - giveAmount
	diffRandomness := SubScalars(balance.Randomness, giveRandomness)
	diffCt := balance.Ciphertext.Combine(giveCt.Neg())

	witness := entropy.RandomScalar()
	var tw ristretto.Point
	tw.ScalarMultBase(witness)

	appendCiphertext("difference", diffCt, t)
	appendPoint("t", &tw, t)
	challenge := challengeScalar("balance-challenge", t)
	response := AddScalars(witness, MulScalars(challenge, diffRandomness))

	diffProof, err := BuildRangeProof(t, diff, diffRandomness, AMOUNT_NUM_BITS, pub, entropy)
	if err != nil {
		return nil, err
	}

	return &BalanceProof{
		BalanceCommitment: diffCt.C2,
		Challenge:         challenge,
		Response:          response,
		DiffProof:         diffProof,
	}, nil
}

// Verify recomputes the difference ciphertext from the public balance and the
// order's give leg, then checks both the Schnorr tie and the range proof.
func (p *BalanceProof) Verify(t *merlin.Transcript, gens *SwapGens, pub *ristretto.Point, balanceCt, giveCt *Ciphertext) error {
	if p.DiffProof == nil || p.BalanceCommitment == nil || p.Challenge == nil || p.Response == nil {
		return errors.Wrap(ErrVerificationRejected, "malformed balance proof")
	}
	diffCt := balanceCt.Combine(giveCt.Neg())
	if !diffCt.C2.Equals(p.BalanceCommitment) {
		return errors.Wrap(ErrVerificationRejected, "balance commitment does not match ledger state")
	}

	var zb ristretto.Point
	zb.ScalarMultBase(p.Response)
	tw := subWitness(&zb, diffCt.C1, p.Challenge)

	appendCiphertext("difference", diffCt, t)
	appendPoint("t", tw, t)
	if !challengeScalar("balance-challenge", t).Equals(p.Challenge) {
		return errors.Wrap(ErrVerificationRejected, "balance proof challenge mismatch")
	}

	return p.DiffProof.Verify(t, diffCt.C2, pub)
}

func (p *BalanceProof) ToBytes() []byte {
	var buf []byte
	buf = append(buf, p.BalanceCommitment.Bytes()...)
	buf = append(buf, p.Challenge.Bytes()...)
	buf = append(buf, p.Response.Bytes()...)
	buf = append(buf, p.DiffProof.ToBytes()...)
	return buf
}
