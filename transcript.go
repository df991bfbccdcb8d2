package api

import (
	"encoding/binary"

	"github.com/bwesterb/go-ristretto"
	"github.com/gtank/merlin"
)

func InitialTranscript(label string) *merlin.Transcript {
	return merlin.NewTranscript(label)
}

// proofTranscript seeds a transcript with the proof domain, the digest of the
// order (or take request) the proof is bound to, and the leg it covers. A
// proof only verifies against the exact public data it was built over.
func proofTranscript(domain string, digest []byte, leg string) *merlin.Transcript {
	t := InitialTranscript(domain)
	appendBytes([]byte("dom-sep"), []byte(domain), t)
	appendBytes([]byte("digest"), digest, t)
	appendBytes([]byte("leg"), []byte(leg), t)
	return t
}

func appendBytes(field, data []byte, t *merlin.Transcript) {
	t.AppendMessage(field, data)
}

func appendInt64(label string, i uint64, t *merlin.Transcript) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, i)
	appendBytes([]byte(label), buf, t)
}

func appendPoint(label string, p *ristretto.Point, t *merlin.Transcript) {
	appendBytes([]byte(label), p.Bytes(), t)
}

func appendCiphertext(label string, c *Ciphertext, t *merlin.Transcript) {
	appendBytes([]byte(label), c.ToBytes(), t)
}

// challengeScalar extracts a Fiat-Shamir challenge from the transcript,
// reduced from 64 uniform bytes.
func challengeScalar(label string, t *merlin.Transcript) *ristretto.Scalar {
	return ReduceWide(t.ExtractBytes([]byte(label), 64))
}
