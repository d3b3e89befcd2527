// Package kmer slides fixed-length windows over sequence bytes.
package kmer

import "iter"

var validBase = func() (table [256]bool) {
	for _, b := range []byte("ACGTacgt") {
		table[b] = true
	}
	return table
}()

// IsValidBase reports whether b is one of A, C, G, T in either case.
func IsValidBase(b byte) bool {
	return validBase[b]
}

// Windows yields every length-k window of seq, left to right. The yielded
// slices alias seq and must not be retained or modified.
func Windows(seq []byte, k int) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if k <= 0 {
			return
		}
		for i := 0; i+k <= len(seq); i++ {
			if !yield(seq[i : i+k : i+k]) {
				return
			}
		}
	}
}

// ValidWindows is like Windows but skips every window that contains a byte
// other than A, C, G or T. A run of valid bases restarts after each invalid
// byte, so an N in the middle of a record splits it in two.
func ValidWindows(seq []byte, k int) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if k <= 0 {
			return
		}
		run := 0
		for i, b := range seq {
			if !validBase[b] {
				run = 0
				continue
			}
			run++
			if run >= k {
				start := i + 1 - k
				if !yield(seq[start : i+1 : i+1]) {
					return
				}
			}
		}
	}
}

// Upper converts ASCII lowercase letters to uppercase in place and returns
// seq.
func Upper(seq []byte) []byte {
	for i, b := range seq {
		if 'a' <= b && b <= 'z' {
			seq[i] = b - ('a' - 'A')
		}
	}
	return seq
}
