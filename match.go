package api

import (
	"math/big"
	"time"

	"github.com/ChainSafe/go-schnorrkel"
	"github.com/bwesterb/go-ristretto"
	"github.com/pkg/errors"
)

const TAKE_SIGNING_CONTEXT = "ss_take_signature"

// TakeRequest is a taker's confidential fill against an open order. The give
// leg is denominated in the order's want asset and the want leg in the order's
// give asset; the rate proof binds both to the maker's rate commitment, which
// is the whole matching argument.
type TakeRequest struct {
	ID             string
	OrderID        string
	Taker          [32]byte
	EncryptedGive  *Ciphertext
	EncryptedWant  *Ciphertext
	RateCommitment *ristretto.Point
	Bundle         *ProofBundle
	Signature      [64]byte
}

// Digest chains the take onto the order it fills, so a take replayed against
// any other order fails every proof and the signature.
func (r *TakeRequest) Digest(orderDigest []byte) []byte {
	t := InitialTranscript(TAKE_DIGEST_DOMAIN_TAG)
	appendBytes([]byte("order-digest"), orderDigest, t)
	appendBytes([]byte("taker"), r.Taker[:], t)
	appendCiphertext("encrypted-give", r.EncryptedGive, t)
	appendCiphertext("encrypted-want", r.EncryptedWant, t)
	appendPoint("rate-commitment", r.RateCommitment, t)
	return t.ExtractBytes([]byte("digest32"), 32)
}

func (r *TakeRequest) VerifySignature(orderDigest []byte) bool {
	var sig schnorrkel.Signature
	if err := sig.Decode(r.Signature); err != nil {
		return false
	}
	pub := schnorrkel.NewPublicKey(r.Taker)
	t := schnorrkel.NewSigningContext([]byte(TAKE_SIGNING_CONTEXT), r.Digest(orderDigest))
	return pub.Verify(&sig, t)
}

type MatchEngine struct {
	Gens    *SwapGens
	Pub     *ristretto.Point
	Entropy Entropy
}

func NewMatchEngine(pub *ristretto.Point) *MatchEngine {
	return &MatchEngine{
		Gens:    DefaultSwapGens(),
		Pub:     pub,
		Entropy: CryptoEntropy{},
	}
}

type TakeParams struct {
	// GiveAmount is what the taker pays, in the order's want asset.
	GiveAmount uint64
	// WantAmount is what the taker receives, in the order's give asset.
	WantAmount uint64
	// Rate is the opening the maker shared off-ledger. It must open the
	// order's rate commitment.
	Rate     *RateOpening
	Balance  *BalanceWitness
	TakerKey *schnorrkel.MiniSecretKey
}

// TakeSecrets is the taker's private side of a built take request.
type TakeSecrets struct {
	GiveRandomness *ristretto.Scalar
	WantRandomness *ristretto.Scalar
}

// BuildTake assembles a confidential take against order. The taker proves the
// complementary rate relation give = want*rate against the maker's own
// commitment, so a verifying order/take pair necessarily satisfies
// takerGive*makerGive = takerWant*makerWant without anyone opening anything.
func (e *MatchEngine) BuildTake(order *Order, p TakeParams) (*TakeRequest, *TakeSecrets, error) {
	if order.Status.Terminal() {
		return nil, nil, errors.Wrapf(ErrEncoding, "order %s is %s", order.ID, order.Status)
	}
	if !time.Now().Before(order.ExpiresAt) {
		return nil, nil, errors.Wrapf(ErrEncoding, "order %s expired", order.ID)
	}
	if p.GiveAmount == 0 || p.WantAmount == 0 {
		return nil, nil, errors.Wrap(ErrEncoding, "zero amount take")
	}
	if !e.Gens.CommitRate(p.Rate.ScaledRate, p.Rate.Blinding).Equals(order.RateCommitment) {
		return nil, nil, errors.Wrap(ErrProofConstruction, "rate opening does not open the order commitment")
	}
	// give = want*rate must hold exactly at the committed precision.
	lhs := new(big.Int).Mul(new(big.Int).SetUint64(p.GiveAmount), new(big.Int).SetUint64(RATE_SCALE))
	rhs := new(big.Int).Mul(new(big.Int).SetUint64(p.WantAmount), new(big.Int).SetUint64(p.Rate.ScaledRate))
	if lhs.Cmp(rhs) != 0 {
		return nil, nil, errors.Wrapf(ErrProofConstruction, "take %d/%d off the committed rate", p.GiveAmount, p.WantAmount)
	}

	giveRandomness := e.Entropy.RandomScalar()
	wantRandomness := e.Entropy.RandomScalar()

	orderDigest := order.Digest()
	take := &TakeRequest{
		OrderID:        order.ID,
		EncryptedGive:  Encrypt(p.GiveAmount, e.Pub, giveRandomness),
		EncryptedWant:  Encrypt(p.WantAmount, e.Pub, wantRandomness),
		RateCommitment: order.RateCommitment,
	}
	take.Taker = p.TakerKey.Public().Encode()

	digest := take.Digest(orderDigest)
	take.ID = OrderID(digest)

	rangeGive, err := BuildRangeProof(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"), p.GiveAmount, giveRandomness, AMOUNT_NUM_BITS, e.Pub, e.Entropy)
	if err != nil {
		return nil, nil, err
	}
	rangeWant, err := BuildRangeProof(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "want"), p.WantAmount, wantRandomness, AMOUNT_NUM_BITS, e.Pub, e.Entropy)
	if err != nil {
		return nil, nil, err
	}
	rateProof, err := BuildRateProof(proofTranscript(RATE_PROOF_DOMAIN_TAG, digest, "taker"), e.Gens, e.Pub, RateProofParams{
		Value:             p.WantAmount,
		ValueRandomness:   wantRandomness,
		ValueCiphertext:   take.EncryptedWant,
		ProductValue:      p.GiveAmount,
		ProductRandomness: giveRandomness,
		ProductCiphertext: take.EncryptedGive,
		Opening:           p.Rate,
		RateCommitment:    order.RateCommitment,
	}, e.Entropy)
	if err != nil {
		return nil, nil, err
	}
	balanceProof, err := BuildBalanceProof(proofTranscript(BALANCE_PROOF_DOMAIN_TAG, digest, "taker"), e.Gens, e.Pub, p.Balance, p.GiveAmount, giveRandomness, take.EncryptedGive, e.Entropy)
	if err != nil {
		return nil, nil, err
	}
	take.Bundle = &ProofBundle{
		RangeProofGive: rangeGive,
		RangeProofWant: rangeWant,
		RateProof:      rateProof,
		BalanceProof:   balanceProof,
	}

	sig, err := p.TakerKey.ExpandEd25519().Sign(schnorrkel.NewSigningContext([]byte(TAKE_SIGNING_CONTEXT), digest))
	if err != nil {
		return nil, nil, errors.Wrapf(ErrProofConstruction, "take signature: %v", err)
	}
	take.Signature = sig.Encode()

	return take, &TakeSecrets{
		GiveRandomness: giveRandomness,
		WantRandomness: wantRandomness,
	}, nil
}
