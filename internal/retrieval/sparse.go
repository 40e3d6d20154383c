package retrieval

import (
	"hash/fnv"
	"sort"
	"strings"
	"unicode"
)

// EncodeSparse converts query text into a hashed term-frequency sparse vector.
// Terms are lowercased, split on any non-letter non-digit rune, and hashed
// with FNV-1a into the index space. Indices are returned in ascending order
// with values aligned to them.
func EncodeSparse(text string) ([]uint32, []float32) {
	terms := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	counts := make(map[uint32]float32, len(terms))
	for _, term := range terms {
		if len(term) < 2 {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(term))
		counts[h.Sum32()]++
	}
	if len(counts) == 0 {
		return nil, nil
	}

	indices := make([]uint32, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float32, len(indices))
	for i, idx := range indices {
		values[i] = counts[idx]
	}
	return indices, values
}
