package tasks

import (
	"math"

	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/shared"
)

// Reconciliation partitions two libraries into exclusive and shared tracks.
//
// Every list keeps the library order of the side it came from. Common holds side A's copy.
type Reconciliation struct {
	OnlyA  []models.TrackRecord
	OnlyB  []models.TrackRecord
	Common []models.TrackRecord

	TotalA       int // distinct track ids in A
	TotalB       int // distinct track ids in B
	ExactMatches int
	FuzzyMatches int
}

// identityMap keeps the first occurrence of every track id.
func identityMap(tracks []models.TrackRecord) ([]models.TrackRecord, map[string]struct{}) {
	seen := make(map[string]struct{}, len(tracks))
	unique := make([]models.TrackRecord, 0, len(tracks))
	for _, t := range tracks {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		unique = append(unique, t)
	}
	return unique, seen
}

// ExactPass splits a and b by track id.
func ExactPass(a, b []models.TrackRecord) Reconciliation {
	uniqueA, idsA := identityMap(a)
	uniqueB, idsB := identityMap(b)

	r := Reconciliation{TotalA: len(uniqueA), TotalB: len(uniqueB)}
	for _, t := range uniqueA {
		if _, inB := idsB[t.ID]; inB {
			r.Common = append(r.Common, t)
		} else {
			r.OnlyA = append(r.OnlyA, t)
		}
	}
	for _, t := range uniqueB {
		if _, inA := idsA[t.ID]; !inA {
			r.OnlyB = append(r.OnlyB, t)
		}
	}
	r.ExactMatches = len(r.Common)
	return r
}

func fuzzyKey(t models.TrackRecord) string {
	if shared.NormalizeTitle(t.Name) == "" {
		return ""
	}
	return shared.NormalizeTrackKey(t.Name, t.PrimaryArtist())
}

// FuzzyPass re-reconciles the exclusive remainders of r by normalized title and primary artist.
//
// For every key found on both sides the first exclusive track from each side is promoted
// into Common. Tracks already matched by id are never revisited.
func FuzzyPass(r Reconciliation) Reconciliation {
	firstB := make(map[string]int, len(r.OnlyB))
	for i, t := range r.OnlyB {
		key := fuzzyKey(t)
		if key == "" {
			continue
		}
		if _, ok := firstB[key]; !ok {
			firstB[key] = i
		}
	}

	promotedA := make(map[int]struct{})
	promotedB := make(map[int]struct{})
	for i, t := range r.OnlyA {
		key := fuzzyKey(t)
		j, ok := firstB[key]
		if key == "" || !ok {
			continue
		}
		promotedA[i] = struct{}{}
		promotedB[j] = struct{}{}
		delete(firstB, key)
	}

	if len(promotedA) == 0 {
		return r
	}

	out := Reconciliation{
		Common:       append([]models.TrackRecord(nil), r.Common...),
		TotalA:       r.TotalA,
		TotalB:       r.TotalB,
		ExactMatches: r.ExactMatches,
		FuzzyMatches: r.FuzzyMatches + len(promotedA),
	}
	for i, t := range r.OnlyA {
		if _, ok := promotedA[i]; ok {
			out.Common = append(out.Common, t)
		} else {
			out.OnlyA = append(out.OnlyA, t)
		}
	}
	for j, t := range r.OnlyB {
		if _, ok := promotedB[j]; !ok {
			out.OnlyB = append(out.OnlyB, t)
		}
	}
	return out
}

// CompatibilityScore is the Dice overlap of two libraries as a percentage rounded to one
// decimal. Two empty libraries score 0.
func CompatibilityScore(common, totalA, totalB int) float64 {
	if totalA+totalB == 0 {
		return 0
	}
	score := float64(common) * 2 / float64(totalA+totalB) * 100
	return math.Round(score*10) / 10
}

// Compare runs both passes over a and b and scores the result.
func Compare(userA, userB models.Participant, a, b []models.TrackRecord) *models.ComparisonResult {
	return NewResult(userA, userB, FuzzyPass(ExactPass(a, b)))
}

// NewResult builds the client-facing result from a reconciliation. Nil lists become empty.
func NewResult(userA, userB models.Participant, r Reconciliation) *models.ComparisonResult {
	orEmpty := func(ts []models.TrackRecord) []models.TrackRecord {
		if ts == nil {
			return []models.TrackRecord{}
		}
		return ts
	}

	return &models.ComparisonResult{
		UserA:  userA,
		UserB:  userB,
		OnlyA:  orEmpty(r.OnlyA),
		OnlyB:  orEmpty(r.OnlyB),
		Common: orEmpty(r.Common),
		Stats: models.Stats{
			TotalA:             r.TotalA,
			TotalB:             r.TotalB,
			OnlyACount:         len(r.OnlyA),
			OnlyBCount:         len(r.OnlyB),
			CommonCount:        len(r.Common),
			CompatibilityScore: CompatibilityScore(len(r.Common), r.TotalA, r.TotalB),
		},
	}
}
