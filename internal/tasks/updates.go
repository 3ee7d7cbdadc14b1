package tasks

import (
	"fmt"

	"github.com/desertthunder/vibesync/internal/models"
)

// ProgressUpdate represents a progress event during a comparison.
//
// Used to send real-time updates to the CLI or log output.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchA Phase = iota
	FetchB
	ExactMatch
	FuzzyMatch
	Done
)

func (p Phase) String() string {
	switch p {
	case FetchA:
		return "fetch_a"
	case FetchB:
		return "fetch_b"
	case ExactMatch:
		return "exact_match"
	case FuzzyMatch:
		return "fuzzy_match"
	case Done:
		return "done"
	default:
		return ""
	}
}

func fetchingUpdate(phase Phase, who models.Participant) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching saved tracks for %s...", who.DisplayName),
	}
}

func fetchedUpdate(phase Phase, who models.Participant, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetched %d saved tracks for %s", count, who.DisplayName),
		Data:    count,
	}
}

func exactMatchUpdate(r Reconciliation) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExactMatch,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Matched %d tracks by id", r.ExactMatches),
		Data:    r.ExactMatches,
	}
}

func fuzzyMatchUpdate(r Reconciliation) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FuzzyMatch,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Matched %d more tracks by title and artist", r.FuzzyMatches),
		Data:    r.FuzzyMatches,
	}
}

func doneUpdate(result *models.ComparisonResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Compatibility %.1f%% (%d in common)", result.Stats.CompatibilityScore, result.Stats.CommonCount),
		Data:    result,
	}
}
