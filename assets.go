package api

import (
	"hash/crc32"
	"strconv"
	"strings"

	"github.com/MixinNetwork/go-number"
	"github.com/btcsuite/btcutil/base58"
	"github.com/dchest/blake2b"
	"github.com/pkg/errors"
)

const ASSET_ID_DOMAIN_TAG = "ss_asset_id"

// Asset is a tradable asset. The registry is fixed at process start; amounts
// on the wire are integers at the asset's precision.
type Asset struct {
	Code      string
	Name      string
	Precision int32
}

var assetRegistry = map[string]Asset{
	"XIN":  {Code: "XIN", Name: "Mixin", Precision: 8},
	"BTC":  {Code: "BTC", Name: "Bitcoin", Precision: 8},
	"ETH":  {Code: "ETH", Name: "Ether", Precision: 8},
	"MOB":  {Code: "MOB", Name: "MobileCoin", Precision: 8},
	"USDT": {Code: "USDT", Name: "Tether USD", Precision: 8},
}

func LookupAsset(code string) (Asset, error) {
	asset, found := assetRegistry[code]
	if !found {
		return Asset{}, errors.Wrapf(ErrEncoding, "unknown asset %s", code)
	}
	return asset, nil
}

// ID renders the asset code the way order identifiers are rendered, blake2b
// under a domain tag with a crc32 checksum, base58 encoded.
func (a Asset) ID() string {
	hash := blake2b.New256()
	hash.Write([]byte(ASSET_ID_DOMAIN_TAG))
	hash.Write([]byte(a.Code))
	payload := hash.Sum(nil)
	checksum := crc32.ChecksumIEEE(payload)
	payload = append(payload, byte(checksum), byte(checksum>>8), byte(checksum>>16), byte(checksum>>24))
	return base58.Encode(payload)
}

// FormatAmount renders an integer wire amount at the asset's precision.
func (a Asset) FormatAmount(amount uint64) number.Decimal {
	value := number.FromString(strconv.FormatUint(amount, 10))
	scale := number.FromString("1" + strings.Repeat("0", int(a.Precision)))
	return value.Div(scale)
}
