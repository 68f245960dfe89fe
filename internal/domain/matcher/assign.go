package matcher

// Assignment pairs a transaction with the expense chosen for it.
type Assignment struct {
	TransactionID string
	Candidate     MatchCandidate
}

// AssignResult contains results from one-to-one assignment over a batch
type AssignResult struct {
	Assignments []Assignment
	Unassigned  int // transactions with no eligible candidate left
}

// Assign picks at most one expense per transaction from batch shortlists,
// walking transactions in order. A candidate is eligible when its score is at
// least minScore and its expense is neither in claimedExpenseIDs nor already
// taken earlier in this call. Only the shortlist is considered; a transaction
// whose shortlisted expenses are all taken stays unassigned.
func Assign(results []BatchResult, minScore int, claimedExpenseIDs map[string]bool) *AssignResult {
	out := &AssignResult{}

	// Track expenses taken in this round to prevent duplicates
	takenThisRound := make(map[string]bool)

	for _, r := range results {
		var chosen *MatchCandidate
		for i := range r.Candidates {
			c := &r.Candidates[i]
			if c.Score < minScore {
				break // shortlist is sorted by score
			}
			id := c.Expense.ID
			if claimedExpenseIDs[id] || takenThisRound[id] {
				continue
			}
			chosen = c
			break
		}

		if chosen == nil {
			out.Unassigned++
			continue
		}

		takenThisRound[chosen.Expense.ID] = true
		out.Assignments = append(out.Assignments, Assignment{
			TransactionID: r.Transaction.ID,
			Candidate:     *chosen,
		})
	}

	return out
}
