package api

import (
	"github.com/bwesterb/go-ristretto"
	"github.com/pkg/errors"
)

// Ciphertext is a twisted ElGamal encryption of an amount under the protocol
// public key: C1 = r*B, C2 = value*B + r*pub. C2 doubles as a Pedersen
// commitment to the value with the public key as blinding base, which is what
// the range proofs target.
type Ciphertext struct {
	C1 *ristretto.Point
	C2 *ristretto.Point
}

// GenerateProtocolKey derives the protocol view keypair. The private half is
// held by the settlement layer only.
func GenerateProtocolKey(entropy Entropy) (*ristretto.Scalar, *ristretto.Point) {
	private := entropy.RandomScalar()
	var public ristretto.Point
	public.ScalarMultBase(private)
	return private, &public
}

// Encrypt encrypts value under pub with the caller-supplied randomness. The
// randomness must be fresh per call; range membership of value is enforced by
// the accompanying range proof, not here.
func Encrypt(value uint64, pub *ristretto.Point, randomness *ristretto.Scalar) *Ciphertext {
	return EncryptScalar(uint64ToScalar(value), pub, randomness)
}

func EncryptScalar(value *ristretto.Scalar, pub *ristretto.Point, randomness *ristretto.Scalar) *Ciphertext {
	var c1, vb, rp, c2 ristretto.Point
	c1.ScalarMultBase(randomness)
	vb.ScalarMultBase(value)
	rp.ScalarMult(pub, randomness)
	c2.Add(&vb, &rp)
	return &Ciphertext{C1: &c1, C2: &c2}
}

// Combine adds two ciphertexts componentwise, yielding an encryption of the
// sum of the plaintexts under the same key.
func (c *Ciphertext) Combine(o *Ciphertext) *Ciphertext {
	var c1, c2 ristretto.Point
	c1.Add(c.C1, o.C1)
	c2.Add(c.C2, o.C2)
	return &Ciphertext{C1: &c1, C2: &c2}
}

// Neg returns the encryption of the negated plaintext.
func (c *Ciphertext) Neg() *Ciphertext {
	var c1, c2 ristretto.Point
	c1.Neg(c.C1)
	c2.Neg(c.C2)
	return &Ciphertext{C1: &c1, C2: &c2}
}

// ScalarMult multiplies the plaintext (and randomness) by s.
func (c *Ciphertext) ScalarMult(s *ristretto.Scalar) *Ciphertext {
	var c1, c2 ristretto.Point
	c1.ScalarMult(c.C1, s)
	c2.ScalarMult(c.C2, s)
	return &Ciphertext{C1: &c1, C2: &c2}
}

// wellFormed guards digest and group operations against ciphertexts arriving
// off the wire with missing components.
func (c *Ciphertext) wellFormed() bool {
	return c != nil && c.C1 != nil && c.C2 != nil
}

func (c *Ciphertext) Equals(o *Ciphertext) bool {
	return c.C1.Equals(o.C1) && c.C2.Equals(o.C2)
}

func (c *Ciphertext) ToBytes() []byte {
	var buf []byte
	buf = append(buf, c.C1.Bytes()...)
	buf = append(buf, c.C2.Bytes()...)
	return buf
}

// Decrypt strips the key layer and returns the value point value*B. Only the
// key holder can invoke this; it never appears in any verification path.
func Decrypt(c *Ciphertext, private *ristretto.Scalar) *ristretto.Point {
	var shared, value ristretto.Point
	shared.ScalarMult(c.C1, private)
	return value.Sub(c.C2, &shared)
}

// RecoverValue resolves a value point back to its scalar by bounded search.
// Exact recovery of an ElGamal exponent needs a discrete log scan, so callers
// state how far they are willing to look.
func RecoverValue(valuePoint *ristretto.Point, max uint64) (uint64, error) {
	var acc, base ristretto.Point
	acc.SetZero()
	base.SetBase()
	for v := uint64(0); v <= max; v++ {
		if acc.Equals(valuePoint) {
			return v, nil
		}
		acc.Add(&acc, &base)
	}
	return 0, errors.Wrap(ErrEncoding, "value point outside search bound")
}

// IsEncryptionOfZero reports whether c decrypts to zero under private.
func IsEncryptionOfZero(c *Ciphertext, private *ristretto.Scalar) bool {
	var zero ristretto.Point
	zero.SetZero()
	return Decrypt(c, private).Equals(&zero)
}
