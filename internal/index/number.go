package index

import (
	"fmt"
	"math"
	"strconv"
)

// EncodeNumber encodes f as a fixed-width term whose lexical order matches numeric order.
func EncodeNumber(f float64) string {
	bits := math.Float64bits(f)
	if bits&(1<<63) == 0 {
		bits ^= 1 << 63
	} else {
		bits = ^bits
	}
	return fmt.Sprintf("%016x", bits)
}

// DecodeNumber reverses EncodeNumber.
func DecodeNumber(term string) (float64, error) {
	bits, err := strconv.ParseUint(term, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number term %q: %w", term, err)
	}
	if bits&(1<<63) != 0 {
		bits ^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits), nil
}
