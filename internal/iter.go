package internal

import (
	"iter"
)

// ConcatSeq2 chains key/value sequences, in order. Duplicate keys are
// yielded as often as they appear.
func ConcatSeq2[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for key, value := range seq {
				if !yield(key, value) {
					return
				}
			}
		}
	}
}
