package recommender

// EvaluateHitRate computes hit-rate@k over held-out pairs: the fraction of
// holdout (user, item) observations whose item appears in the user's
// top-k, with the user's training items excluded from the candidate set.
// Pairs whose user or item is absent from the snapshot are skipped.
func EvaluateHitRate(s *Snapshot, train *RatingMatrix, holdout []RatedPair, k int) float64 {
	if len(holdout) == 0 || k <= 0 {
		return 0
	}

	// Training items per user, for exclusion.
	seen := make(map[string]map[string]bool)
	for u := 0; u < train.NumUsers(); u++ {
		userID, _ := train.Users.Decode(u)
		cols, _ := train.Row(u)
		items := make(map[string]bool, len(cols))
		for _, c := range cols {
			itemID, _ := train.Items.Decode(c)
			items[itemID] = true
		}
		seen[userID] = items
	}

	hits, evaluated := 0, 0
	for _, pair := range holdout {
		if !s.KnowsUser(pair.UserID) || !s.items.Contains(pair.ItemID) {
			continue
		}
		top, err := s.TopKForUser(pair.UserID, k, seen[pair.UserID])
		if err != nil {
			continue
		}
		evaluated++
		for _, scored := range top {
			if scored.ItemID == pair.ItemID {
				hits++
				break
			}
		}
	}

	if evaluated == 0 {
		return 0
	}
	return float64(hits) / float64(evaluated)
}
