package evaluation

// HitAtK returns 1 when expected appears in the first k ranked product ids, else 0.
func HitAtK(expected string, ranked []string, k int) float64 {
	if expected == "" {
		return 0.0
	}

	for i, id := range ranked {
		if i >= k {
			break
		}
		if id == expected {
			return 1.0
		}
	}

	return 0.0
}

// ReciprocalRankAtK returns 1/rank of expected within the first k ranked product ids.
// Returns 0.0 if expected is not ranked in the top k.
func ReciprocalRankAtK(expected string, ranked []string, k int) float64 {
	if expected == "" || len(ranked) == 0 {
		return 0.0
	}

	rank := 0
	for i, id := range ranked {
		if i >= k {
			break
		}
		// unmapped candidates carry no product id and still take a rank
		if id == expected {
			rank = i + 1
			break
		}
	}
	if rank == 0 {
		return 0.0
	}

	return 1.0 / float64(rank)
}
