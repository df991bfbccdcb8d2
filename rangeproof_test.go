package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeProof(t *testing.T) {
	assert := assert.New(t)

	entropy := CryptoEntropy{}
	_, pub := GenerateProtocolKey(entropy)
	digest := []byte("range proof test digest aaaaaaaa")

	for _, amount := range []uint64{0, 1, 100, 1000, 1<<32 + 7} {
		r := entropy.RandomScalar()
		ct := Encrypt(amount, pub, r)

		proof, err := BuildRangeProof(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"), amount, r, AMOUNT_NUM_BITS, pub, entropy)
		assert.Nil(err)
		err = proof.Verify(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"), ct.C2, pub)
		assert.Nil(err)
	}
}

func TestRangeProofSmallWidth(t *testing.T) {
	assert := assert.New(t)

	entropy := CryptoEntropy{}
	_, pub := GenerateProtocolKey(entropy)
	digest := []byte("range proof test digest bbbbbbbb")

	r := entropy.RandomScalar()
	ct := Encrypt(200, pub, r)
	proof, err := BuildRangeProof(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"), 200, r, 8, pub, entropy)
	assert.Nil(err)
	assert.Nil(proof.Verify(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"), ct.C2, pub))

	_, err = BuildRangeProof(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"), 256, r, 8, pub, entropy)
	assert.ErrorIs(err, ErrProofConstruction)

	_, err = BuildRangeProof(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"), 200, r, 12, pub, entropy)
	assert.ErrorIs(err, ErrProofConstruction)
}

func TestRangeProofRejectsTampering(t *testing.T) {
	assert := assert.New(t)

	entropy := CryptoEntropy{}
	_, pub := GenerateProtocolKey(entropy)
	digest := []byte("range proof test digest cccccccc")

	r := entropy.RandomScalar()
	ct := Encrypt(1000, pub, r)
	proof, err := BuildRangeProof(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"), 1000, r, AMOUNT_NUM_BITS, pub, entropy)
	assert.Nil(err)

	// Different commitment.
	other := Encrypt(1001, pub, r)
	err = proof.Verify(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"), other.C2, pub)
	assert.ErrorIs(err, ErrVerificationRejected)

	// Different transcript binding.
	err = proof.Verify(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "want"), ct.C2, pub)
	assert.ErrorIs(err, ErrVerificationRejected)

	// Swapped bit commitments keep the weighted sum wrong.
	proof.BitCommitments[0], proof.BitCommitments[1] = proof.BitCommitments[1], proof.BitCommitments[0]
	err = proof.Verify(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"), ct.C2, pub)
	assert.ErrorIs(err, ErrVerificationRejected)
}

func TestRangeProofRejectsMalformed(t *testing.T) {
	assert := assert.New(t)

	entropy := CryptoEntropy{}
	_, pub := GenerateProtocolKey(entropy)
	digest := []byte("range proof test digest dddddddd")

	r := entropy.RandomScalar()
	ct := Encrypt(5, pub, r)
	proof, err := BuildRangeProof(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"), 5, r, AMOUNT_NUM_BITS, pub, entropy)
	assert.Nil(err)

	proof.Responses = proof.Responses[:len(proof.Responses)-1]
	err = proof.Verify(proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"), ct.C2, pub)
	assert.ErrorIs(err, ErrVerificationRejected)
}
