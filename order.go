package api

import (
	"hash/crc32"
	"strconv"
	"time"

	"github.com/ChainSafe/go-schnorrkel"
	"github.com/MixinNetwork/go-number"
	"github.com/btcsuite/btcutil/base58"
	"github.com/bwesterb/go-ristretto"
	"github.com/dchest/blake2b"
	"github.com/pkg/errors"
)

const (
	ORDER_DIGEST_DOMAIN_TAG  = "ss_order_digest"
	TAKE_DIGEST_DOMAIN_TAG   = "ss_take_digest"
	RANGE_PROOF_DOMAIN_TAG   = "ss_range_proof"
	RATE_PROOF_DOMAIN_TAG    = "ss_rate_proof"
	BALANCE_PROOF_DOMAIN_TAG = "ss_balance_proof"
	ORDER_ID_DOMAIN_TAG      = "ss_order_id"
	ORDER_SIGNING_CONTEXT    = "ss_order_signature"
)

type OrderStatus uint8

const (
	StatusOpen OrderStatus = iota
	StatusPartialFill
	StatusFilled
	StatusCancelled
	StatusExpired
)

// Terminal states admit no further transitions.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusPartialFill:
		return "partial"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	case StatusExpired:
		return "expired"
	}
	return "unknown"
}

// ProofBundle accompanies every order and take request. No plaintext amount
// appears anywhere in it.
type ProofBundle struct {
	RangeProofGive *RangeProof
	RangeProofWant *RangeProof
	RateProof      *RateProof
	BalanceProof   *BalanceProof
}

func (b *ProofBundle) ToBytes() []byte {
	var buf []byte
	buf = append(buf, b.RangeProofGive.ToBytes()...)
	buf = append(buf, b.RangeProofWant.ToBytes()...)
	buf = append(buf, b.RateProof.ToBytes()...)
	buf = append(buf, b.BalanceProof.ToBytes()...)
	return buf
}

// Order is a maker's confidential listing. Only ciphertexts, the rate
// commitment and proof material are ever persisted or transmitted; the ledger
// alone mutates Status.
type Order struct {
	ID             string
	Maker          [32]byte
	GiveAsset      string
	WantAsset      string
	EncryptedGive  *Ciphertext
	EncryptedWant  *Ciphertext
	RateCommitment *ristretto.Point
	MinFillBps     uint64
	ExpiresAt      time.Time
	Status         OrderStatus
	Bundle         *ProofBundle
	Signature      [64]byte
}

// Digest binds every public field of the order into a 32 byte transcript
// digest. All proofs and the maker signature are bound to it, so none of them
// survives any mutation of the public order.
func (o *Order) Digest() []byte {
	t := InitialTranscript(ORDER_DIGEST_DOMAIN_TAG)
	appendBytes([]byte("maker"), o.Maker[:], t)
	appendBytes([]byte("give-asset"), []byte(o.GiveAsset), t)
	appendBytes([]byte("want-asset"), []byte(o.WantAsset), t)
	appendCiphertext("encrypted-give", o.EncryptedGive, t)
	appendCiphertext("encrypted-want", o.EncryptedWant, t)
	appendPoint("rate-commitment", o.RateCommitment, t)
	appendInt64("min-fill-bps", o.MinFillBps, t)
	appendInt64("expires-at", uint64(o.ExpiresAt.Unix()), t)
	return t.ExtractBytes([]byte("digest32"), 32)
}

// OrderID renders a digest as a base58 order identifier with a crc32
// checksum, the same shape the payment address codec uses.
func OrderID(digest []byte) string {
	hash := blake2b.New256()
	hash.Write([]byte(ORDER_ID_DOMAIN_TAG))
	hash.Write(digest)
	payload := hash.Sum(nil)
	checksum := crc32.ChecksumIEEE(payload)
	payload = append(payload, byte(checksum), byte(checksum>>8), byte(checksum>>16), byte(checksum>>24))
	return base58.Encode(payload)
}

func (o *Order) VerifySignature() bool {
	var sig schnorrkel.Signature
	if err := sig.Decode(o.Signature); err != nil {
		return false
	}
	pub := schnorrkel.NewPublicKey(o.Maker)
	t := schnorrkel.NewSigningContext([]byte(ORDER_SIGNING_CONTEXT), o.Digest())
	return pub.Verify(&sig, t)
}

type OrderBuilder struct {
	Gens    *SwapGens
	Pub     *ristretto.Point
	Entropy Entropy
}

func NewOrderBuilder(pub *ristretto.Point) *OrderBuilder {
	return &OrderBuilder{
		Gens:    DefaultSwapGens(),
		Pub:     pub,
		Entropy: CryptoEntropy{},
	}
}

type OrderParams struct {
	GiveAsset  string
	WantAsset  string
	GiveAmount uint64
	WantAmount uint64
	// MinFill is the minimum fill as a percentage of the order size.
	MinFill   number.Decimal
	ExpiresIn time.Duration
	Balance   *BalanceWitness
	MakerKey  *schnorrkel.MiniSecretKey
}

// OrderSecrets is the maker's private side of a built order: the encryption
// randomness and the rate opening. The maker shares the rate opening with a
// counterparty off-ledger; nothing here is ever submitted.
type OrderSecrets struct {
	GiveRandomness *ristretto.Scalar
	WantRandomness *ristretto.Scalar
	Rate           *RateOpening
}

// Build assembles a confidential order: both amounts encrypted with
// independent fresh randomness, the rate committed with a fresh blinding, and
// the full proof bundle bound to the order digest. Every failure is local;
// nothing is submitted.
func (b *OrderBuilder) Build(p OrderParams) (*Order, *OrderSecrets, error) {
	if _, err := LookupAsset(p.GiveAsset); err != nil {
		return nil, nil, err
	}
	if _, err := LookupAsset(p.WantAsset); err != nil {
		return nil, nil, err
	}
	if p.GiveAmount == 0 || p.WantAmount == 0 {
		return nil, nil, errors.Wrap(ErrEncoding, "zero amount order")
	}
	if p.ExpiresIn <= 0 {
		return nil, nil, errors.Wrap(ErrEncoding, "order already expired")
	}
	minFillBps, err := minFillToBps(p.MinFill)
	if err != nil {
		return nil, nil, err
	}
	scaledRate, err := ScaledRate(p.GiveAmount, p.WantAmount)
	if err != nil {
		return nil, nil, err
	}

	giveRandomness := b.Entropy.RandomScalar()
	wantRandomness := b.Entropy.RandomScalar()
	rateBlinding := b.Entropy.RandomScalar()

	opening := &RateOpening{ScaledRate: scaledRate, Blinding: rateBlinding}
	order := &Order{
		GiveAsset:      p.GiveAsset,
		WantAsset:      p.WantAsset,
		EncryptedGive:  Encrypt(p.GiveAmount, b.Pub, giveRandomness),
		EncryptedWant:  Encrypt(p.WantAmount, b.Pub, wantRandomness),
		RateCommitment: b.Gens.CommitRate(scaledRate, rateBlinding),
		MinFillBps:     minFillBps,
		ExpiresAt:      time.Now().Add(p.ExpiresIn),
		Status:         StatusOpen,
	}
	order.Maker = p.MakerKey.Public().Encode()

	digest := order.Digest()
	order.ID = OrderID(digest)

	bundle, err := b.buildBundle(digest, p, order, opening, giveRandomness, wantRandomness)
	if err != nil {
		return nil, nil, err
	}
	order.Bundle = bundle

	sig, err := p.MakerKey.ExpandEd25519().Sign(schnorrkel.NewSigningContext([]byte(ORDER_SIGNING_CONTEXT), digest))
	if err != nil {
		return nil, nil, errors.Wrapf(ErrProofConstruction, "order signature: %v", err)
	}
	order.Signature = sig.Encode()

	return order, &OrderSecrets{
		GiveRandomness: giveRandomness,
		WantRandomness: wantRandomness,
		Rate:           opening,
	}, nil
}

func (b *OrderBuilder) buildBundle(digest []byte, p OrderParams, order *Order, opening *RateOpening, giveRandomness, wantRandomness *ristretto.Scalar) (*ProofBundle, error) {
	rangeGive, err := BuildRangeProof(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"), p.GiveAmount, giveRandomness, AMOUNT_NUM_BITS, b.Pub, b.Entropy)
	if err != nil {
		return nil, err
	}
	rangeWant, err := BuildRangeProof(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "want"), p.WantAmount, wantRandomness, AMOUNT_NUM_BITS, b.Pub, b.Entropy)
	if err != nil {
		return nil, err
	}
	rateProof, err := BuildRateProof(proofTranscript(RATE_PROOF_DOMAIN_TAG, digest, "maker"), b.Gens, b.Pub, RateProofParams{
		Value:             p.GiveAmount,
		ValueRandomness:   giveRandomness,
		ValueCiphertext:   order.EncryptedGive,
		ProductValue:      p.WantAmount,
		ProductRandomness: wantRandomness,
		ProductCiphertext: order.EncryptedWant,
		Opening:           opening,
		RateCommitment:    order.RateCommitment,
	}, b.Entropy)
	if err != nil {
		return nil, err
	}
	balanceProof, err := BuildBalanceProof(proofTranscript(BALANCE_PROOF_DOMAIN_TAG, digest, "maker"), b.Gens, b.Pub, p.Balance, p.GiveAmount, giveRandomness, order.EncryptedGive, b.Entropy)
	if err != nil {
		return nil, err
	}
	return &ProofBundle{
		RangeProofGive: rangeGive,
		RangeProofWant: rangeWant,
		RateProof:      rateProof,
		BalanceProof:   balanceProof,
	}, nil
}

// minFillToBps converts a min-fill percentage to basis points exactly. The
// percentage must land on a whole basis point; anything finer is not
// representable in the order.
func minFillToBps(minFill number.Decimal) (uint64, error) {
	bps, err := strconv.ParseUint(minFill.Mul(number.FromString("100")).String(), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrEncoding, "min fill %s%% not a whole basis point", minFill.String())
	}
	if bps == 0 || bps > 10000 {
		return 0, errors.Wrapf(ErrEncoding, "min fill %s%% outside (0, 100]", minFill.String())
	}
	return bps, nil
}
