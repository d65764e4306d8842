package codec

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Known human-readable prefixes of the address text format.
const (
	HRPTestnet  = "mtst"
	HRPLocalnet = "mlcl"
)

// EncodeAddress renders a 15-byte account identifier in the platform's
// bech32 address text format under the given human-readable prefix.
func EncodeAddress(hrp string, id IssuerID) (string, error) {
	converted, err := bech32.ConvertBits(id[:], 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("convert account id bits: %w", err)
	}
	addr, err := bech32.Encode(hrp, converted)
	if err != nil {
		return "", fmt.Errorf("encode account address: %w", err)
	}
	return addr, nil
}

// DecodeAddress parses an account address back into its prefix and the raw
// 15-byte identifier.
func DecodeAddress(addr string) (hrp string, id IssuerID, err error) {
	hrp, data, err := bech32.DecodeNoLimit(addr)
	if err != nil {
		return "", IssuerID{}, fmt.Errorf("decode account address %q: %w", addr, err)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", IssuerID{}, fmt.Errorf("convert account address bits: %w", err)
	}
	if len(raw) != len(id) {
		return "", IssuerID{}, fmt.Errorf("account address %q carries %d bytes, want %d", addr, len(raw), len(id))
	}
	copy(id[:], raw)
	return hrp, id, nil
}
