package api

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProofTranscript(t *testing.T) {
	assert := assert.New(t)

	digest := []byte("transcript test digest aaaaaaaaaa")

	a := challengeScalar("c", proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"))
	b := challengeScalar("c", proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give"))
	assert.True(a.Equals(b))

	// Domain, digest and leg all separate the challenge space.
	c := challengeScalar("c", proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "want"))
	assert.False(a.Equals(c))
	d := challengeScalar("c", proofTranscript(RATE_PROOF_DOMAIN_TAG, digest, "give"))
	assert.False(a.Equals(d))
	e := challengeScalar("c", proofTranscript(RANGE_PROOF_DOMAIN_TAG, []byte("transcript test digest bbbbbbbbbb"), "give"))
	assert.False(a.Equals(e))
}

func TestChallengeScalarBindsAppends(t *testing.T) {
	assert := assert.New(t)

	digest := []byte("transcript test digest cccccccccc")

	t1 := proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give")
	appendInt64("n", 64, t1)
	a := challengeScalar("c", t1)

	t2 := proofTranscript(RANGE_PROOF_DOMAIN_TAG, digest, "give")
	appendInt64("n", 32, t2)
	b := challengeScalar("c", t2)
	assert.False(a.Equals(b))

	assert.False(bytes.Equal(a.Bytes(), b.Bytes()))
}
