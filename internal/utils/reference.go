package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// ReferencePrefix is the prefix of every booking reference code. The
// full code looks like "TRF-482913" and is the identifier customers
// quote on the phone, so it stays short and digits-only after the
// prefix.
const ReferencePrefix = "TRF-"

// NewReferenceCode returns a fresh booking reference code with six
// random digits. Uniqueness is enforced by the database; callers retry
// on collision. crypto/rand keeps codes unguessable so one customer
// cannot probe another's booking.
func NewReferenceCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%06d", ReferencePrefix, n.Int64()), nil
}
