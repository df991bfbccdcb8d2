package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateProof(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	gens := DefaultSwapGens()
	entropy := CryptoEntropy{}
	_, pub := GenerateProtocolKey(entropy)
	digest := []byte("rate proof test digest aaaaaaaaaa")

	// 1000 want for 100 give, rate 10.
	scaledRate, err := ScaledRate(100, 1000)
	require.Nil(err)
	opening := &RateOpening{ScaledRate: scaledRate, Blinding: entropy.RandomScalar()}
	rateCommitment := gens.CommitRate(opening.ScaledRate, opening.Blinding)

	giveRand := entropy.RandomScalar()
	wantRand := entropy.RandomScalar()
	giveCt := Encrypt(100, pub, giveRand)
	wantCt := Encrypt(1000, pub, wantRand)

	proof, err := BuildRateProof(proofTranscript(RATE_PROOF_DOMAIN_TAG, digest, "maker"), gens, pub, RateProofParams{
		Value:             100,
		ValueRandomness:   giveRand,
		ValueCiphertext:   giveCt,
		ProductValue:      1000,
		ProductRandomness: wantRand,
		ProductCiphertext: wantCt,
		Opening:           opening,
		RateCommitment:    rateCommitment,
	}, entropy)
	require.Nil(err)

	err = proof.Verify(proofTranscript(RATE_PROOF_DOMAIN_TAG, digest, "maker"), gens, pub, giveCt, wantCt, rateCommitment)
	assert.Nil(err)

	// The same proof against another commitment to the same rate fails.
	other := gens.CommitRate(opening.ScaledRate, entropy.RandomScalar())
	err = proof.Verify(proofTranscript(RATE_PROOF_DOMAIN_TAG, digest, "maker"), gens, pub, giveCt, wantCt, other)
	assert.ErrorIs(err, ErrVerificationRejected)

	// Swapped legs fail the challenge.
	err = proof.Verify(proofTranscript(RATE_PROOF_DOMAIN_TAG, digest, "maker"), gens, pub, wantCt, giveCt, rateCommitment)
	assert.ErrorIs(err, ErrVerificationRejected)
}

func TestRateProofComplementary(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	gens := DefaultSwapGens()
	entropy := CryptoEntropy{}
	_, pub := GenerateProtocolKey(entropy)

	scaledRate, err := ScaledRate(100, 1000)
	require.Nil(err)
	opening := &RateOpening{ScaledRate: scaledRate, Blinding: entropy.RandomScalar()}
	rateCommitment := gens.CommitRate(opening.ScaledRate, opening.Blinding)

	// A taker proves give = want*rate against the maker's commitment: the
	// taker pays 500 of the want asset to receive 50 of the give asset.
	digest := []byte("rate proof test digest bbbbbbbbbb")
	takerGiveRand := entropy.RandomScalar()
	takerWantRand := entropy.RandomScalar()
	takerGiveCt := Encrypt(500, pub, takerGiveRand)
	takerWantCt := Encrypt(50, pub, takerWantRand)

	proof, err := BuildRateProof(proofTranscript(RATE_PROOF_DOMAIN_TAG, digest, "taker"), gens, pub, RateProofParams{
		Value:             50,
		ValueRandomness:   takerWantRand,
		ValueCiphertext:   takerWantCt,
		ProductValue:      500,
		ProductRandomness: takerGiveRand,
		ProductCiphertext: takerGiveCt,
		Opening:           opening,
		RateCommitment:    rateCommitment,
	}, entropy)
	require.Nil(err)

	err = proof.Verify(proofTranscript(RATE_PROOF_DOMAIN_TAG, digest, "taker"), gens, pub, takerWantCt, takerGiveCt, rateCommitment)
	assert.Nil(err)
}

func TestRateProofRejectsInconsistentWitness(t *testing.T) {
	assert := assert.New(t)

	gens := DefaultSwapGens()
	entropy := CryptoEntropy{}
	_, pub := GenerateProtocolKey(entropy)
	digest := []byte("rate proof test digest cccccccccc")

	opening := &RateOpening{ScaledRate: 1000000000, Blinding: entropy.RandomScalar()}
	rateCommitment := gens.CommitRate(opening.ScaledRate, opening.Blinding)

	giveRand := entropy.RandomScalar()
	wantRand := entropy.RandomScalar()

	_, err := BuildRateProof(proofTranscript(RATE_PROOF_DOMAIN_TAG, digest, "maker"), gens, pub, RateProofParams{
		Value:             100,
		ValueRandomness:   giveRand,
		ValueCiphertext:   Encrypt(100, pub, giveRand),
		ProductValue:      999,
		ProductRandomness: wantRand,
		ProductCiphertext: Encrypt(999, pub, wantRand),
		Opening:           opening,
		RateCommitment:    rateCommitment,
	}, entropy)
	assert.ErrorIs(err, ErrProofConstruction)
}
