package cloudsync

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/i4ali/macrosnap/domain"
)

// entryContentHash fingerprints an entry by its user-visible content. Two
// remote records with the same hash describe the same logical entry: an edit
// that cleared the local remote identity re-uploads the entry as a new
// record, and a write-back commit that failed after a successful save leaves
// the old upload behind.
func entryContentHash(e domain.Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s",
		e.Date.UTC().Format("2006-01-02"),
		strconv.FormatFloat(e.Protein, 'f', -1, 64),
		strconv.FormatFloat(e.Carbs, 'f', -1, 64),
		strconv.FormatFloat(e.Fat, 'f', -1, 64),
		e.Notes)
	return hex.EncodeToString(h.Sum(nil))
}

// dedupEntries reduces remote entry records sharing a content hash to one
// winner each and returns the loser record IDs to delete remotely. A record
// some local entry points at is never deleted.
func dedupEntries(decoded []remoteEntry, byRemote map[string]domain.Entry) (keep []remoteEntry, deleteIDs []string) {
	groups := make(map[string][]remoteEntry)
	for _, re := range decoded {
		h := entryContentHash(re.entry)
		groups[h] = append(groups[h], re)
	}

	for _, group := range groups {
		winner := group[0]
		for _, cand := range group[1:] {
			if betterEntry(cand, winner, byRemote) {
				winner = cand
			}
		}
		keep = append(keep, winner)
		for _, re := range group {
			if re.rec.ID == winner.rec.ID {
				continue
			}
			if _, referenced := byRemote[re.rec.ID]; referenced {
				continue
			}
			deleteIDs = append(deleteIDs, re.rec.ID)
		}
	}
	return keep, deleteIDs
}

// betterEntry is a total order over duplicate entry records: a record with a
// local reference beats one without, then the newer timestamp, then the
// lexically smaller record ID. The result never depends on query order.
func betterEntry(a, b remoteEntry, byRemote map[string]domain.Entry) bool {
	_, aRef := byRemote[a.rec.ID]
	_, bRef := byRemote[b.rec.ID]
	if aRef != bRef {
		return aRef
	}
	if !a.entry.UpdatedAt.Equal(b.entry.UpdatedAt) {
		return a.entry.UpdatedAt.After(b.entry.UpdatedAt)
	}
	return a.rec.ID < b.rec.ID
}

// pickGoalWinner selects the surviving record among goals sharing a day of
// week: newest timestamp wins, ties broken by lexically smaller record ID.
func pickGoalWinner(group []remoteGoal) remoteGoal {
	winner := group[0]
	for _, cand := range group[1:] {
		if betterGoal(cand, winner) {
			winner = cand
		}
	}
	return winner
}

func betterGoal(a, b remoteGoal) bool {
	if !a.goal.UpdatedAt.Equal(b.goal.UpdatedAt) {
		return a.goal.UpdatedAt.After(b.goal.UpdatedAt)
	}
	return a.rec.ID < b.rec.ID
}
