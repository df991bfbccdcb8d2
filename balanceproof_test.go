package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceProof(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	gens := DefaultSwapGens()
	entropy := CryptoEntropy{}
	_, pub := GenerateProtocolKey(entropy)
	digest := []byte("balance proof test digest aaaaaa")

	balance := NewBalanceWitness(1000, pub, entropy)
	giveRand := entropy.RandomScalar()
	giveCt := Encrypt(100, pub, giveRand)

	proof, err := BuildBalanceProof(proofTranscript(BALANCE_PROOF_DOMAIN_TAG, digest, "maker"), gens, pub, balance, 100, giveRand, giveCt, entropy)
	require.Nil(err)

	err = proof.Verify(proofTranscript(BALANCE_PROOF_DOMAIN_TAG, digest, "maker"), gens, pub, balance.Ciphertext, giveCt)
	assert.Nil(err)

	// Exact cover: balance == give.
	giveAllRand := entropy.RandomScalar()
	giveAllCt := Encrypt(1000, pub, giveAllRand)
	proof, err = BuildBalanceProof(proofTranscript(BALANCE_PROOF_DOMAIN_TAG, digest, "all"), gens, pub, balance, 1000, giveAllRand, giveAllCt, entropy)
	require.Nil(err)
	err = proof.Verify(proofTranscript(BALANCE_PROOF_DOMAIN_TAG, digest, "all"), gens, pub, balance.Ciphertext, giveAllCt)
	assert.Nil(err)
}

func TestBalanceProofInsufficient(t *testing.T) {
	assert := assert.New(t)

	gens := DefaultSwapGens()
	entropy := CryptoEntropy{}
	_, pub := GenerateProtocolKey(entropy)
	digest := []byte("balance proof test digest bbbbbb")

	balance := NewBalanceWitness(50, pub, entropy)
	giveRand := entropy.RandomScalar()
	giveCt := Encrypt(100, pub, giveRand)

	_, err := BuildBalanceProof(proofTranscript(BALANCE_PROOF_DOMAIN_TAG, digest, "maker"), gens, pub, balance, 100, giveRand, giveCt, entropy)
	assert.ErrorIs(err, ErrInsufficientBalance)
}

func TestBalanceProofRejectsOtherBalance(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	gens := DefaultSwapGens()
	entropy := CryptoEntropy{}
	_, pub := GenerateProtocolKey(entropy)
	digest := []byte("balance proof test digest cccccc")

	balance := NewBalanceWitness(1000, pub, entropy)
	giveRand := entropy.RandomScalar()
	giveCt := Encrypt(100, pub, giveRand)

	proof, err := BuildBalanceProof(proofTranscript(BALANCE_PROOF_DOMAIN_TAG, digest, "maker"), gens, pub, balance, 100, giveRand, giveCt, entropy)
	require.Nil(err)

	other := NewBalanceWitness(1000, pub, entropy)
	err = proof.Verify(proofTranscript(BALANCE_PROOF_DOMAIN_TAG, digest, "maker"), gens, pub, other.Ciphertext, giveCt)
	assert.ErrorIs(err, ErrVerificationRejected)
}

func TestBalanceWitnessDebit(t *testing.T) {
	assert := assert.New(t)

	entropy := CryptoEntropy{}
	private, pub := GenerateProtocolKey(entropy)

	balance := NewBalanceWitness(1000, pub, entropy)
	giveRand := entropy.RandomScalar()
	giveCt := Encrypt(100, pub, giveRand)

	balance.Debit(100, giveRand, giveCt)
	assert.Equal(uint64(900), balance.Amount)
	value, err := RecoverValue(Decrypt(balance.Ciphertext, private), 1<<12)
	assert.Nil(err)
	assert.Equal(uint64(900), value)
	assert.True(balance.Ciphertext.Equals(EncryptScalar(uint64ToScalar(900), pub, balance.Randomness)))
}
