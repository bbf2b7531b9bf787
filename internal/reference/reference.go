package reference

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const base36Upper = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const suffixLength = 8

// NewSaleReference produces a human-readable sale reference like
// RES-1735689600000-K3F9A2ZQ. Collisions are vanishingly unlikely but the
// caller must regenerate on a storage uniqueness failure.
func NewSaleReference(now time.Time) string {
	return fmt.Sprintf("RES-%d-%s", now.UnixMilli(), randomBase36(suffixLength))
}

func randomBase36(length int) string {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(base36Upper)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		buf[i] = base36Upper[n.Int64()]
	}
	return string(buf)
}
