package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseWalletID checks that parsing never panics and accepted IDs round-trip.
func FuzzParseWalletID(f *testing.F) {
	f.Add("")
	f.Add("wallet-01")
	f.Add("dgb:main:abc.def_1")
	f.Add("'; DROP TABLE profiles;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("wallet\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseWalletID(input)
		if err != nil {
			return
		}
		roundTrip, err := ParseWalletID(id.String())
		if err != nil {
			t.Errorf("valid ID failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed ID value")
		}
		if !utf8.ValidString(input) {
			t.Error("non-UTF8 input was accepted")
		}
		if len(input) == 0 || len(input) > maxOpaqueIDLength {
			t.Errorf("accepted out-of-range length %d", len(input))
		}
	})
}
