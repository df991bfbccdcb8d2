package api

import (
	"math/big"
	"strconv"

	"github.com/MixinNetwork/go-number"
	"github.com/bwesterb/go-ristretto"
	"github.com/pkg/errors"
)

const (
	// RATE_PRECISION is the fixed-point precision of committed exchange
	// rates: rate scalars carry 8 decimals.
	RATE_PRECISION = 8
	RATE_SCALE     = uint64(100000000)
)

// RateOpening is the secret side of a rate commitment. The maker shares it
// off-ledger with a counterparty so the taker can bind its own proofs to the
// same commitment; it never appears on the public ledger.
type RateOpening struct {
	ScaledRate uint64
	Blinding   *ristretto.Scalar
}

// CommitRate commits the fixed-point rate under the blinding generator:
// scaledRate*B + blinding*BBlinding. Binding and hiding rest on the unknown
// discrete log relation between the two generators.
func (sg *SwapGens) CommitRate(scaledRate uint64, blinding *ristretto.Scalar) *ristretto.Point {
	return sg.Commit(uint64ToScalar(scaledRate), blinding)
}

// ScaledRate computes want/give at RATE_PRECISION decimals. The rate proof
// relation is exact arithmetic over the group, so the division must be exact
// at this precision; anything else is not representable.
func ScaledRate(giveAmount, wantAmount uint64) (uint64, error) {
	if giveAmount == 0 || wantAmount == 0 {
		return 0, errors.Wrap(ErrEncoding, "zero amount has no rate")
	}
	num := new(big.Int).Mul(new(big.Int).SetUint64(wantAmount), new(big.Int).SetUint64(RATE_SCALE))
	den := new(big.Int).SetUint64(giveAmount)
	quo, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	if rem.Sign() != 0 {
		return 0, errors.Wrapf(ErrEncoding, "rate %d/%d not representable at %d decimals", wantAmount, giveAmount, RATE_PRECISION)
	}
	if !quo.IsUint64() {
		return 0, errors.Wrapf(ErrEncoding, "rate %d/%d overflows", wantAmount, giveAmount)
	}
	return quo.Uint64(), nil
}

// RateDecimal renders the advertised rate for callers that deal in decimals.
func RateDecimal(giveAmount, wantAmount uint64) number.Decimal {
	want := number.FromString(strconv.FormatUint(wantAmount, 10))
	give := number.FromString(strconv.FormatUint(giveAmount, 10))
	return want.Div(give)
}
