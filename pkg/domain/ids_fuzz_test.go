//go:build go1.18

package domain

import (
	"strconv"
	"testing"
)

// FuzzParseProjectID tests that parsing never panics on arbitrary input
// and always returns either a positive id or an error.
func FuzzParseProjectID(f *testing.F) {
	f.Add("")
	f.Add("1")
	f.Add("0")
	f.Add("18446744073709551615")
	f.Add("18446744073709551616")
	f.Add("'; DROP TABLE projects;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseProjectID(input)
		if err != nil {
			if id != 0 {
				t.Errorf("error path returned non-zero id %d", id)
			}
			return
		}
		if id == 0 {
			t.Fatal("valid parse returned zero id")
		}
		roundTrip, err := ParseProjectID(strconv.FormatUint(uint64(id), 10))
		if err != nil || roundTrip != id {
			t.Errorf("round-trip failed for %q: %v", input, err)
		}
	})
}
