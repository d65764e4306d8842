// Package codec encodes and decodes the packed word representation used by
// ledger account storage: token symbols and issuer identifiers squeezed into
// storage words, and the linked-list book entries kept in storage maps.
package codec

import (
	"fmt"
)

// Word is a single storage word: four 64-bit field elements.
type Word [4]uint64

// IssuerID is the raw 15-byte account identifier of an asset issuer.
type IssuerID [15]byte

// MaxSymbolLen is the longest token symbol that fits in one word element.
const MaxSymbolLen = 8

// EncodeSymbol packs an uppercase ASCII symbol of up to eight characters
// into a single big-endian element: character i occupies byte 7-i, unused
// low bytes stay zero.
func EncodeSymbol(symbol string) (uint64, error) {
	if len(symbol) == 0 {
		return 0, fmt.Errorf("symbol must not be empty")
	}
	if len(symbol) > MaxSymbolLen {
		return 0, fmt.Errorf("symbol %q exceeds %d characters", symbol, MaxSymbolLen)
	}
	var packed uint64
	for i := 0; i < len(symbol); i++ {
		b := symbol[i]
		if b < 'A' || b > 'Z' {
			return 0, fmt.Errorf("symbol %q contains %q; only uppercase ASCII letters are allowed", symbol, b)
		}
		packed |= uint64(b) << (8 * (7 - i))
	}
	return packed, nil
}

// DecodeSymbol unpacks a symbol element, stopping at the first zero byte.
func DecodeSymbol(packed uint64) string {
	buf := make([]byte, 0, MaxSymbolLen)
	for i := 0; i < MaxSymbolLen; i++ {
		b := byte(packed >> (8 * (7 - i)))
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}

// SplitIssuer splits a 15-byte issuer identifier into its two word elements:
// the prefix carries bytes 0..7 big-endian, the suffix carries bytes 8..14
// in its high seven bytes with a zero low byte.
func SplitIssuer(id IssuerID) (prefix, suffix uint64) {
	for i := 0; i < 8; i++ {
		prefix |= uint64(id[i]) << (8 * (7 - i))
	}
	for i := 0; i < 7; i++ {
		suffix |= uint64(id[8+i]) << (8 * (7 - i))
	}
	return prefix, suffix
}

// JoinIssuer reassembles an issuer identifier from its prefix and suffix
// elements. The low byte of the suffix is ignored; ErrDirtySuffix is
// returned when it is non-zero since that indicates a mis-packed word.
func JoinIssuer(prefix, suffix uint64) (IssuerID, error) {
	var id IssuerID
	if suffix&0xff != 0 {
		return id, fmt.Errorf("issuer suffix has non-zero padding byte 0x%02x", suffix&0xff)
	}
	for i := 0; i < 8; i++ {
		id[i] = byte(prefix >> (8 * (7 - i)))
	}
	for i := 0; i < 7; i++ {
		id[8+i] = byte(suffix >> (8 * (7 - i)))
	}
	return id, nil
}

// EncodePair packs one side of a market pair (symbol plus issuer) into a
// storage word: element 0 is the packed symbol, element 1 stays zero,
// elements 2 and 3 carry the issuer prefix and suffix.
func EncodePair(symbol string, issuer IssuerID) (Word, error) {
	sym, err := EncodeSymbol(symbol)
	if err != nil {
		return Word{}, err
	}
	prefix, suffix := SplitIssuer(issuer)
	return Word{sym, 0, prefix, suffix}, nil
}

// DecodePair unpacks a market pair word into its symbol and issuer.
func DecodePair(w Word) (symbol string, issuer IssuerID, err error) {
	symbol = DecodeSymbol(w[0])
	if symbol == "" {
		return "", IssuerID{}, fmt.Errorf("pair word has empty symbol element")
	}
	issuer, err = JoinIssuer(w[2], w[3])
	if err != nil {
		return "", IssuerID{}, err
	}
	return symbol, issuer, nil
}

// EncodeBookEntry packs a quote entry into a storage map value:
// [id, next, price, amount]. An id of zero is reserved for the list
// terminator and is rejected.
func EncodeBookEntry(id, next, price, amount uint64) (Word, error) {
	if id == 0 {
		return Word{}, fmt.Errorf("book entry id 0 is reserved for the list terminator")
	}
	return Word{id, next, price, amount}, nil
}

// DecodeBookEntry unpacks a quote entry from its storage map value.
func DecodeBookEntry(w Word) (id, next, price, amount uint64) {
	return w[0], w[1], w[2], w[3]
}

// IsZero reports whether the word has all elements zero, the value storage
// returns for absent slots and absent map keys.
func (w Word) IsZero() bool {
	return w == Word{}
}
