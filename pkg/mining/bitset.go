package mining

import "math/bits"

// Bitset is a fixed-width membership vector over the indices of an Alphabet.
// Every Bitset built for the same Alphabet has the same number of words, so
// subset tests are a straight word-by-word AND.
type Bitset []uint64

// NewBitset returns an empty Bitset wide enough to hold width indices.
func NewBitset(width int) Bitset {
	return make(Bitset, (width+63)/64)
}

// Set marks index i as present.
func (b Bitset) Set(i int) {
	b[i>>6] |= 1 << (uint(i) & 63)
}

// Has reports whether index i is present.
func (b Bitset) Has(i int) bool {
	return b[i>>6]&(1<<(uint(i)&63)) != 0
}

// ContainsAll reports whether every index set in sub is also set in b.
func (b Bitset) ContainsAll(sub Bitset) bool {
	for i, w := range sub {
		if b[i]&w != w {
			return false
		}
	}
	return true
}

// Count returns the number of indices present.
func (b Bitset) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// Indices returns the present indices in ascending order.
func (b Bitset) Indices() []int {
	out := make([]int, 0, b.Count())
	for wi, w := range b {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			out = append(out, wi*64+tz)
			w &= w - 1
		}
	}
	return out
}

// maskOf builds the Bitset for an itemset over an alphabet of the given width.
func maskOf(width int, items Itemset) Bitset {
	b := NewBitset(width)
	for _, i := range items {
		b.Set(i)
	}
	return b
}
