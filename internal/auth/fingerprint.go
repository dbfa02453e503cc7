package auth

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/fivetwenty-io/ghauth/internal/constants"
)

// fractionBits is the precision of the random fractions behind fingerprints.
// 36 * 2^56 still fits in a uint64.
const fractionBits = 56

const base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandomSource returns a random numerator n of the fraction n / 2^56.
type RandomSource func() uint64

// cryptoRandom is the default RandomSource.
func cryptoRandom() uint64 {
	var buf [8]byte

	_, err := rand.Read(buf[:])
	if err != nil {
		panic("crypto/rand: " + err.Error())
	}

	return binary.BigEndian.Uint64(buf[:]) >> (64 - fractionBits)
}

// fingerprintFrom writes the fraction n / 2^56 in base 36 and keeps the
// first FingerprintLength digits after the point.
func fingerprintFrom(n uint64) string {
	const mask = uint64(1)<<fractionBits - 1

	n &= mask
	digits := make([]byte, constants.FingerprintLength)

	for i := range digits {
		n *= 36
		digits[i] = base36Digits[n>>fractionBits]
		n &= mask
	}

	return string(digits)
}
