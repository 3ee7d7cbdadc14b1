// package tasks implements the library comparison between two participants.
//
// The core abstraction is CompareEngine, which fetches both libraries and reconciles them.
// Operations emit progress updates via channels for non-blocking status reporting.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Side is one participant of a comparison together with the upstream access token used
// to read their library.
type Side struct {
	Participant models.Participant
	AccessToken string
}

// LibraryFetcher retrieves a user's full saved-track library.
//
// [services.SpotifyService] implements this.
type LibraryFetcher interface {
	AllSavedTracks(ctx context.Context, accessToken string) ([]models.TrackRecord, error)
}

// Comparer compares the libraries of two participants.
type Comparer interface {
	// Run fetches both libraries concurrently and reconciles them. A failed fetch on
	// either side fails the whole run; no partial result is returned.
	Run(ctx context.Context, a, b Side, progress chan<- ProgressUpdate) (*models.ComparisonResult, error)
}

// CompareEngine implements [Comparer] on top of a [LibraryFetcher].
type CompareEngine struct {
	library LibraryFetcher
	logger  *log.Logger
}

// NewCompareEngine creates a new CompareEngine. A nil logger discards debug output.
func NewCompareEngine(library LibraryFetcher, logger *log.Logger) *CompareEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
		logger.SetLevel(log.WarnLevel)
	}
	return &CompareEngine{library: library, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Every update is also logged at debug level.
func (e *CompareEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	e.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run fetches the saved tracks of a and b concurrently and compares them.
//
// Upstream errors are returned unchanged so callers can classify them with errors.Is.
func (e *CompareEngine) Run(ctx context.Context, a, b Side, progress chan<- ProgressUpdate) (*models.ComparisonResult, error) {
	if e.library == nil {
		return nil, fmt.Errorf("library fetcher not initialized")
	}

	var tracksA, tracksB []models.TrackRecord
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e.sendProgress(progress, fetchingUpdate(FetchA, a.Participant))
		tracks, err := e.library.AllSavedTracks(gctx, a.AccessToken)
		if err != nil {
			return err
		}
		tracksA = tracks
		e.sendProgress(progress, fetchedUpdate(FetchA, a.Participant, len(tracks)))
		return nil
	})

	g.Go(func() error {
		e.sendProgress(progress, fetchingUpdate(FetchB, b.Participant))
		tracks, err := e.library.AllSavedTracks(gctx, b.AccessToken)
		if err != nil {
			return err
		}
		tracksB = tracks
		e.sendProgress(progress, fetchedUpdate(FetchB, b.Participant, len(tracks)))
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	exact := ExactPass(tracksA, tracksB)
	e.sendProgress(progress, exactMatchUpdate(exact))

	reconciled := FuzzyPass(exact)
	e.sendProgress(progress, fuzzyMatchUpdate(reconciled))

	result := NewResult(a.Participant, b.Participant, reconciled)
	e.sendProgress(progress, doneUpdate(result))
	return result, nil
}
