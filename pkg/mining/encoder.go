package mining

import (
	"slices"
)

// Transaction is one basket: an external id and the labels observed in it.
// Labels may repeat; encoding collapses them.
type Transaction struct {
	ID    string
	Items []string
}

// Alphabet is the sorted, duplicate-free set of item labels a run works over,
// with a label to index map. Index order is label order.
type Alphabet struct {
	labels []string
	index  map[string]int
}

// NewAlphabet builds an Alphabet from arbitrary labels. Duplicates and empty
// labels are dropped and the rest sorted.
func NewAlphabet(labels []string) *Alphabet {
	sorted := make([]string, 0, len(labels))
	for _, l := range labels {
		if l != "" {
			sorted = append(sorted, l)
		}
	}
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	index := make(map[string]int, len(sorted))
	for i, l := range sorted {
		index[l] = i
	}
	return &Alphabet{labels: sorted, index: index}
}

// AlphabetOf returns the union alphabet of every label in txns.
func AlphabetOf(txns []Transaction) *Alphabet {
	var all []string
	for _, t := range txns {
		all = append(all, t.Items...)
	}
	return NewAlphabet(all)
}

// Len returns the number of labels.
func (a *Alphabet) Len() int {
	return len(a.labels)
}

// Labels returns a copy of the sorted labels.
func (a *Alphabet) Labels() []string {
	return slices.Clone(a.labels)
}

// Label returns the label at index i.
func (a *Alphabet) Label(i int) string {
	return a.labels[i]
}

// Index returns the index of label, if present.
func (a *Alphabet) Index(label string) (int, bool) {
	i, ok := a.index[label]
	return i, ok
}

// LabelsOf maps an itemset to its labels, preserving index order.
func (a *Alphabet) LabelsOf(items Itemset) []string {
	out := make([]string, len(items))
	for i, idx := range items {
		out[i] = a.labels[idx]
	}
	return out
}

// EncodedTransactions is the transaction x item incidence matrix, stored one
// Bitset per transaction. Rows keep the input order.
type EncodedTransactions struct {
	Alphabet *Alphabet
	IDs      []string
	Rows     []Bitset
}

// Len returns the number of transactions, which is the support denominator.
func (e *EncodedTransactions) Len() int {
	return len(e.Rows)
}

// Incidence expands the rows into a boolean matrix, one column per label.
func (e *EncodedTransactions) Incidence() [][]bool {
	width := e.Alphabet.Len()
	out := make([][]bool, len(e.Rows))
	for r, row := range e.Rows {
		cells := make([]bool, width)
		for c := range width {
			cells[c] = row.Has(c)
		}
		out[r] = cells
	}
	return out
}

// Encode interns txns against alphabet. A nil alphabet means the union of
// all labels in txns. Labels missing from a supplied alphabet are ignored;
// transactions that end up empty are kept as all-false rows so they still
// count toward the total.
func Encode(txns []Transaction, alphabet *Alphabet) *EncodedTransactions {
	if alphabet == nil {
		alphabet = AlphabetOf(txns)
	}

	enc := &EncodedTransactions{
		Alphabet: alphabet,
		IDs:      make([]string, len(txns)),
		Rows:     make([]Bitset, len(txns)),
	}
	for i, t := range txns {
		row := NewBitset(alphabet.Len())
		for _, label := range t.Items {
			if idx, ok := alphabet.Index(label); ok {
				row.Set(idx)
			}
		}
		enc.IDs[i] = t.ID
		enc.Rows[i] = row
	}
	return enc
}
