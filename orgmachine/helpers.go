package orgmachine

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	boom "github.com/tylertreat/BoomFilters"
)

func Touch(path string) error {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
	}
	return nil
}

// NormalizeHatID makes role-token ids comparable: stringified, trimmed, and
// lowercased when hex-prefixed. The indexer mixes decimal and checksummed-hex
// representations for the same hat.
func NormalizeHatID(id HatID) HatID {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "0x") || strings.HasPrefix(id, "0X") {
		return strings.ToLower(id)
	}
	return id
}

// HatSetsIntersect reports whether any of held matches any of wanted after
// normalization.
func HatSetsIntersect(held, wanted []HatID) bool {
	for _, h := range held {
		for _, w := range wanted {
			if NormalizeHatID(h) == NormalizeHatID(w) {
				return true
			}
		}
	}
	return false
}

// Percent returns part/total as a display percentage, capped at 100.
// Arbitrary precision in, float out, because this only feeds the UI.
func Percent(part, total *big.Int) float64 {
	if total == nil || total.Sign() == 0 {
		return 0
	}
	r := new(big.Rat).SetFrac(part, total)
	r.Mul(r, big.NewRat(100, 1))
	f, _ := r.Float64()
	if f > 100 {
		return 100
	}
	return f
}

// MakeNewInverseBloomFilter returns a closure that reports true the first
// time it sees a message and false on repeats (within capacity).
func MakeNewInverseBloomFilter(capacity uint) func(message interface{}) bool {
	ibf := boom.NewInverseBloomFilter(capacity)
	return func(message interface{}) bool {
		return !ibf.TestAndAdd([]byte(fmt.Sprint(message)))
	}
}
