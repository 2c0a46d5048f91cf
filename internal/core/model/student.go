// Package model holds the domain types shared by every core component:
// students, classes, and the school snapshot that ties them together.
package model

// Gender is restricted to the two values the scorer's gender-balance metric
// understands.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Rank is an ordinal grade A (best) through D (worst).
type Rank string

const (
	RankA Rank = "A"
	RankB Rank = "B"
	RankC Rank = "C"
	RankD Rank = "D"
)

// Numeric converts a rank to its A=1..D=4 scale. An empty rank defaults to A,
// per the roster's missing-value convention; anything else invalid also
// falls back to A rather than panicking, since normalization happens at
// ingestion time.
func (r Rank) Numeric() int {
	switch r {
	case RankB:
		return 2
	case RankC:
		return 3
	case RankD:
		return 4
	default:
		return 1
	}
}

// StudentID is the roster's 9-digit identifier, kept as a string so leading
// zeros and synthetic hash-derived ids survive round trips untouched.
type StudentID string

// ClassID identifies a class within a school snapshot.
type ClassID string

// Student is immutable once constructed; the only thing that changes over an
// optimization run is which class a student belongs to, and that lives on
// the Snapshot, not here.
type Student struct {
	ID                 StudentID
	FirstName          string
	LastName           string
	Gender             Gender
	AcademicScore      float64
	BehaviorRank       Rank
	StudentialityRank  Rank
	AssistancePackage  bool
	SchoolOfOrigin     string
	PreferredFriends   []StudentID
	DislikedPeers      []StudentID
	ForceClass         ClassID
	ForceGroup         string
	// Extra carries unknown input columns verbatim so they can be
	// re-emitted on export without the core knowing what they mean.
	Extra map[string]string
}

// Normalize enforces the roster invariants from the data model: friends and
// dislikes are de-duplicated and stripped of self-references, capped at
// three and five entries respectively, and a peer listed in both preferred
// and disliked keeps only the dislike.
func (s Student) Normalize() Student {
	dislikes := dedupCapped(s.DislikedPeers, s.ID, 5, nil)
	disliked := make(map[StudentID]bool, len(dislikes))
	for _, id := range dislikes {
		disliked[id] = true
	}
	friends := dedupCapped(s.PreferredFriends, s.ID, 3, disliked)

	s.PreferredFriends = friends
	s.DislikedPeers = dislikes
	return s
}

func dedupCapped(ids []StudentID, self StudentID, cap int, exclude map[StudentID]bool) []StudentID {
	seen := make(map[StudentID]bool, len(ids))
	out := make([]StudentID, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == self || seen[id] || exclude[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		if len(out) == cap {
			break
		}
	}
	return out
}
