package api

import (
	"math/big"
	"time"

	"github.com/bwesterb/go-ristretto"
	"github.com/pkg/errors"
)

// SigmaVerifier checks order and take proof bundles with nothing but public
// material: it holds no key and learns no amount. Anyone replicating the
// ledger can run it.
type SigmaVerifier struct {
	Gens  *SwapGens
	Pub   *ristretto.Point
	Clock func() time.Time
}

func NewSigmaVerifier(pub *ristretto.Point) *SigmaVerifier {
	return &SigmaVerifier{
		Gens:  DefaultSwapGens(),
		Pub:   pub,
		Clock: time.Now,
	}
}

// VerifyOrder checks the maker signature, the expiry, and all four proofs
// against the order digest. makerBalance is the encrypted balance the order
// was proven against, supplied by the ledger.
func (v *SigmaVerifier) VerifyOrder(o *Order, makerBalance *Ciphertext) error {
	if o.Bundle == nil || o.Bundle.RangeProofGive == nil || o.Bundle.RangeProofWant == nil || o.Bundle.RateProof == nil || o.Bundle.BalanceProof == nil {
		return errors.Wrap(ErrVerificationRejected, "incomplete proof bundle")
	}
	if !o.EncryptedGive.wellFormed() || !o.EncryptedWant.wellFormed() || o.RateCommitment == nil {
		return errors.Wrap(ErrVerificationRejected, "malformed order ciphertexts")
	}
	if o.MinFillBps == 0 || o.MinFillBps > 10000 {
		return errors.Wrapf(ErrVerificationRejected, "min fill %d bps outside (0, 10000]", o.MinFillBps)
	}
	if !v.Clock().Before(o.ExpiresAt) {
		return errors.Wrapf(ErrVerificationRejected, "order %s expired", o.ID)
	}
	digest := o.Digest()
	if o.ID != OrderID(digest) {
		return errors.Wrap(ErrVerificationRejected, "order id does not match its digest")
	}
	if !o.VerifySignature() {
		return errors.Wrap(ErrVerificationRejected, "invalid maker signature")
	}

	if err := o.Bundle.RangeProofGive.Verify(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"), o.EncryptedGive.C2, v.Pub); err != nil {
		return err
	}
	if err := o.Bundle.RangeProofWant.Verify(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "want"), o.EncryptedWant.C2, v.Pub); err != nil {
		return err
	}
	if err := o.Bundle.RateProof.Verify(proofTranscript(RATE_PROOF_DOMAIN_TAG, digest, "maker"), v.Gens, v.Pub, o.EncryptedGive, o.EncryptedWant, o.RateCommitment); err != nil {
		return err
	}
	return o.Bundle.BalanceProof.Verify(proofTranscript(BALANCE_PROOF_DOMAIN_TAG, digest, "maker"), v.Gens, v.Pub, makerBalance, o.EncryptedGive)
}

// VerifyTake checks a take request against the order it claims to fill. The
// taker's rate proof must verify against the maker's rate commitment, which is
// what makes the two confidential legs a match.
func (v *SigmaVerifier) VerifyTake(o *Order, take *TakeRequest, takerBalance *Ciphertext) error {
	if take.Bundle == nil || take.Bundle.RangeProofGive == nil || take.Bundle.RangeProofWant == nil || take.Bundle.RateProof == nil || take.Bundle.BalanceProof == nil {
		return errors.Wrap(ErrVerificationRejected, "incomplete proof bundle")
	}
	if !take.EncryptedGive.wellFormed() || !take.EncryptedWant.wellFormed() {
		return errors.Wrap(ErrVerificationRejected, "malformed take ciphertexts")
	}
	if take.OrderID != o.ID {
		return errors.Wrapf(ErrVerificationRejected, "take targets order %s, not %s", take.OrderID, o.ID)
	}
	if o.Status.Terminal() {
		return errors.Wrapf(ErrVerificationRejected, "order %s is %s", o.ID, o.Status)
	}
	if !v.Clock().Before(o.ExpiresAt) {
		return errors.Wrapf(ErrVerificationRejected, "order %s expired", o.ID)
	}
	if take.RateCommitment == nil || !take.RateCommitment.Equals(o.RateCommitment) {
		return errors.Wrap(ErrVerificationRejected, "take rate commitment differs from the order")
	}

	orderDigest := o.Digest()
	digest := take.Digest(orderDigest)
	if take.ID != OrderID(digest) {
		return errors.Wrap(ErrVerificationRejected, "take id does not match its digest")
	}
	if !take.VerifySignature(orderDigest) {
		return errors.Wrap(ErrVerificationRejected, "invalid taker signature")
	}

	if err := take.Bundle.RangeProofGive.Verify(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"), take.EncryptedGive.C2, v.Pub); err != nil {
		return err
	}
	if err := take.Bundle.RangeProofWant.Verify(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "want"), take.EncryptedWant.C2, v.Pub); err != nil {
		return err
	}
	if err := take.Bundle.RateProof.Verify(proofTranscript(RATE_PROOF_DOMAIN_TAG, digest, "taker"), v.Gens, v.Pub, take.EncryptedWant, take.EncryptedGive, o.RateCommitment); err != nil {
		return err
	}
	return take.Bundle.BalanceProof.Verify(proofTranscript(BALANCE_PROOF_DOMAIN_TAG, digest, "taker"), v.Gens, v.Pub, takerBalance, take.EncryptedGive)
}

// SettlementVerifier extends the public verifier with the protocol view key.
// It is the only party able to recover amounts, and it does so solely to
// enforce the numeric fill rules: rate consistency, overfill and min fill.
type SettlementVerifier struct {
	*SigmaVerifier
	view      *ristretto.Scalar
	maxAmount uint64
}

// NewSettlementVerifier derives the public verifier from the view key.
// maxAmount bounds the discrete log scan used for amount recovery.
func NewSettlementVerifier(view *ristretto.Scalar, maxAmount uint64) *SettlementVerifier {
	var pub ristretto.Point
	pub.ScalarMultBase(view)
	return &SettlementVerifier{
		SigmaVerifier: NewSigmaVerifier(&pub),
		view:          view,
		maxAmount:     maxAmount,
	}
}

type SettleParams struct {
	Order *Order
	Take  *TakeRequest
	// MakerBalance and TakerBalance are the encrypted balances the two
	// bundles were proven against.
	MakerBalance *Ciphertext
	TakerBalance *Ciphertext
	// RemainingGive and RemainingWant track the unfilled portion of the
	// order, homomorphically decremented on every prior fill.
	RemainingGive *Ciphertext
	RemainingWant *Ciphertext
}

// FillQuote is the settlement verdict for one take: the recovered fill
// amounts and what remains of the order afterwards.
type FillQuote struct {
	TakerGive     uint64
	TakerWant     uint64
	RemainingGive uint64
	RemainingWant uint64
	Full          bool
}

// Settle runs the full public verification, recovers the fill amounts with
// the view key, and enforces the rules no sigma proof can express: the take
// must not overfill the remainder, must keep the remainder on the committed
// rate, and must meet the order's min fill unless it closes the order.
func (v *SettlementVerifier) Settle(p SettleParams) (*FillQuote, error) {
	if err := v.VerifyOrder(p.Order, p.MakerBalance); err != nil {
		return nil, err
	}
	if err := v.VerifyTake(p.Order, p.Take, p.TakerBalance); err != nil {
		return nil, err
	}

	takerGive, err := v.recover(p.Take.EncryptedGive)
	if err != nil {
		return nil, err
	}
	takerWant, err := v.recover(p.Take.EncryptedWant)
	if err != nil {
		return nil, err
	}
	remainingGive, err := v.recover(p.RemainingGive)
	if err != nil {
		return nil, err
	}
	remainingWant, err := v.recover(p.RemainingWant)
	if err != nil {
		return nil, err
	}
	orderGive, err := v.recover(p.Order.EncryptedGive)
	if err != nil {
		return nil, err
	}

	if takerGive == 0 || takerWant == 0 {
		return nil, errors.Wrap(ErrVerificationRejected, "empty fill")
	}
	if takerWant > remainingGive {
		return nil, errors.Wrapf(ErrVerificationRejected, "fill %d exceeds remaining %d", takerWant, remainingGive)
	}
	// Prior fills are all rate exact, so the remainder sits on the committed
	// rate too: takerGive*remainingGive == takerWant*remainingWant.
	lhs := new(big.Int).Mul(new(big.Int).SetUint64(takerGive), new(big.Int).SetUint64(remainingGive))
	rhs := new(big.Int).Mul(new(big.Int).SetUint64(takerWant), new(big.Int).SetUint64(remainingWant))
	if lhs.Cmp(rhs) != 0 {
		return nil, errors.Wrap(ErrVerificationRejected, "fill off the committed rate")
	}
	// Min fill is measured against the original order size. A fill that
	// closes out the remainder is always allowed.
	if takerWant != remainingGive {
		fill := new(big.Int).Mul(new(big.Int).SetUint64(takerWant), big.NewInt(10000))
		floor := new(big.Int).Mul(new(big.Int).SetUint64(p.Order.MinFillBps), new(big.Int).SetUint64(orderGive))
		if fill.Cmp(floor) < 0 {
			return nil, errors.Wrapf(ErrVerificationRejected, "fill below min fill of %d bps", p.Order.MinFillBps)
		}
	}

	return &FillQuote{
		TakerGive:     takerGive,
		TakerWant:     takerWant,
		RemainingGive: remainingGive - takerWant,
		RemainingWant: remainingWant - takerGive,
		Full:          takerWant == remainingGive,
	}, nil
}

func (v *SettlementVerifier) recover(c *Ciphertext) (uint64, error) {
	amount, err := RecoverValue(Decrypt(c, v.view), v.maxAmount)
	if err != nil {
		return 0, errors.Wrapf(ErrVerificationRejected, "amount recovery: %v", err)
	}
	return amount, nil
}
