package quiz

import "math/rand"

// DefaultSampleSize caps how many questions one session draws from the bank.
const DefaultSampleSize = 10

// Sample draws min(n, len(bank)) questions without replacement via a
// uniform Fisher-Yates permutation, then independently shuffles each
// selected question's options. The bank slice is never mutated; selected
// questions get fresh option slices.
func Sample(bank []Question, n int, rng *rand.Rand) []Question {
	if n > len(bank) {
		n = len(bank)
	}
	perm := rng.Perm(len(bank))
	out := make([]Question, 0, n)
	for _, idx := range perm[:n] {
		q := bank[idx]
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		rng.Shuffle(len(opts), func(i, j int) {
			opts[i], opts[j] = opts[j], opts[i]
		})
		q.Options = opts
		out = append(out, q)
	}
	return out
}
