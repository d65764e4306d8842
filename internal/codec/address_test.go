package codec

import (
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	ids := []IssuerID{
		{},
		{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f},
		{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
	}

	for _, hrp := range []string{HRPTestnet, HRPLocalnet} {
		for _, id := range ids {
			addr, err := EncodeAddress(hrp, id)
			if err != nil {
				t.Fatalf("EncodeAddress(%s, %x) failed: %v", hrp, id, err)
			}
			if !strings.HasPrefix(addr, hrp+"1") {
				t.Errorf("address %q does not start with %q", addr, hrp+"1")
			}

			gotHRP, gotID, err := DecodeAddress(addr)
			if err != nil {
				t.Fatalf("DecodeAddress(%q) failed: %v", addr, err)
			}
			if gotHRP != hrp {
				t.Errorf("DecodeAddress(%q) hrp = %q, want %q", addr, gotHRP, hrp)
			}
			if gotID != id {
				t.Errorf("DecodeAddress(%q) id = %x, want %x", addr, gotID, id)
			}
		}
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	for _, addr := range []string{"", "mtst1", "not-an-address", "mtst1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq"} {
		if _, _, err := DecodeAddress(addr); err == nil {
			t.Errorf("DecodeAddress(%q) should fail", addr)
		}
	}
}
