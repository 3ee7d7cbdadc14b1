package pairing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/vibesync/internal/auth"
	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/repositories"
	"github.com/desertthunder/vibesync/internal/shared"
	"github.com/desertthunder/vibesync/internal/tasks"
	tu "github.com/desertthunder/vibesync/internal/testing"
)

type mockComparer struct {
	mu    sync.Mutex
	calls [][2]tasks.Side
	err   error
}

func (m *mockComparer) Run(ctx context.Context, a, b tasks.Side, progress chan<- tasks.ProgressUpdate) (*models.ComparisonResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, [2]tasks.Side{a, b})
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return tasks.Compare(a.Participant, b.Participant, nil, nil), nil
}

func (m *mockComparer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type fixture struct {
	clock     *tu.Clock
	authority *auth.Authority
	comparer  *mockComparer
	stores    Stores
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := tu.NewClock()
	authority, err := auth.NewAuthority("test-secret", nil, auth.WithClock(clock.Now), auth.WithTTL(2*time.Hour))
	if err != nil {
		t.Fatalf("failed to create authority: %v", err)
	}

	cfg := shared.PairingConfig{RoomTTLMinutes: 30, HandoffTTLMinutes: 5, StateTTLMinutes: 10}
	stores := NewStores(cfg, repositories.WithClock(clock.Now))
	comparer := &mockComparer{}
	logger, _ := tu.NewTestLogger(t)

	return &fixture{
		clock:     clock,
		authority: authority,
		comparer:  comparer,
		stores:    stores,
		svc:       NewService(authority, comparer, stores, logger),
	}
}

func (f *fixture) credential(t *testing.T, userID, name string) string {
	t.Helper()
	token, err := f.authority.Issue(auth.Identity{
		UserID:       userID,
		DisplayName:  name,
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
	})
	if err != nil {
		t.Fatalf("failed to issue credential: %v", err)
	}
	return token
}

func TestRooms(t *testing.T) {
	t.Run("CreateRoom", func(t *testing.T) {
		t.Run("Allocates A Code", func(t *testing.T) {
			f := newFixture(t)

			ticket, err := f.svc.CreateRoom(f.credential(t, "alice", "Alice"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(ticket.Code) != repositories.RoomCodeLength {
				t.Errorf("expected six character code, got %q", ticket.Code)
			}
			if ticket.ExpiresInMinutes != 30 {
				t.Errorf("expected 30 minutes, got %d", ticket.ExpiresInMinutes)
			}
			if !ticket.Created {
				t.Error("expected a new room")
			}
		})

		t.Run("Same Subject Gets Same Code", func(t *testing.T) {
			f := newFixture(t)

			first, _ := f.svc.CreateRoom(f.credential(t, "alice", "Alice"))
			f.clock.Advance(time.Minute)
			newer := f.credential(t, "alice", "Alice")
			second, err := f.svc.CreateRoom(newer)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if first.Code != second.Code {
				t.Errorf("expected same code, got %s and %s", first.Code, second.Code)
			}
			if second.Created {
				t.Error("expected existing room to be reused")
			}

			room, _ := f.stores.Rooms.Get(first.Code)
			if room.Credential != newer {
				t.Error("expected newer credential to be stored")
			}
		})

		t.Run("Different Subjects Get Different Codes", func(t *testing.T) {
			f := newFixture(t)

			a, _ := f.svc.CreateRoom(f.credential(t, "alice", "Alice"))
			b, _ := f.svc.CreateRoom(f.credential(t, "bob", "Bob"))
			if a.Code == b.Code {
				t.Error("expected distinct codes")
			}
		})

		t.Run("Invalid Credential", func(t *testing.T) {
			f := newFixture(t)

			if _, err := f.svc.CreateRoom("not-a-token"); !errors.Is(err, shared.ErrTokenInvalid) {
				t.Errorf("expected ErrTokenInvalid, got %v", err)
			}
		})

		t.Run("Expired Credential", func(t *testing.T) {
			f := newFixture(t)
			cred := f.credential(t, "alice", "Alice")
			f.clock.Advance(3 * time.Hour)

			if _, err := f.svc.CreateRoom(cred); !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
		})
	})

	t.Run("CheckRoom", func(t *testing.T) {
		f := newFixture(t)
		ticket, _ := f.svc.CreateRoom(f.credential(t, "alice", "Alice"))

		t.Run("Normalizes Code", func(t *testing.T) {
			host, err := f.svc.CheckRoom("  " + strings.ToLower(ticket.Code) + " ")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if host != "Alice" {
				t.Errorf("expected host Alice, got %s", host)
			}
		})

		t.Run("Unknown Code", func(t *testing.T) {
			if _, err := f.svc.CheckRoom("ZZZZZZ"); !errors.Is(err, shared.ErrRoomNotFound) {
				t.Errorf("expected ErrRoomNotFound, got %v", err)
			}
		})

		t.Run("Expired Room", func(t *testing.T) {
			f.clock.Advance(30 * time.Minute)
			if _, err := f.svc.CheckRoom(ticket.Code); !errors.Is(err, shared.ErrRoomNotFound) {
				t.Errorf("expected ErrRoomNotFound, got %v", err)
			}
		})
	})

	t.Run("JoinRoom", func(t *testing.T) {
		t.Run("Compares And Consumes", func(t *testing.T) {
			f := newFixture(t)
			ticket, _ := f.svc.CreateRoom(f.credential(t, "alice", "Alice"))

			res, err := f.svc.JoinRoom(context.Background(), strings.ToLower(ticket.Code), f.credential(t, "bob", "Bob"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if res.UserA.ID != "alice" || res.UserB.ID != "bob" {
				t.Errorf("expected creator as user A, got %+v %+v", res.UserA, res.UserB)
			}

			call := f.comparer.calls[0]
			if call[0].AccessToken != "access-alice" || call[1].AccessToken != "access-bob" {
				t.Errorf("expected upstream tokens from credentials, got %+v", call)
			}

			if _, err := f.svc.CheckRoom(ticket.Code); !errors.Is(err, shared.ErrRoomNotFound) {
				t.Error("expected room to be consumed")
			}
			if _, err := f.svc.JoinRoom(context.Background(), ticket.Code, f.credential(t, "carol", "Carol")); !errors.Is(err, shared.ErrRoomNotFound) {
				t.Errorf("expected second join to fail with ErrRoomNotFound, got %v", err)
			}
		})

		t.Run("Self Comparison Leaves Room Waiting", func(t *testing.T) {
			f := newFixture(t)
			ticket, _ := f.svc.CreateRoom(f.credential(t, "alice", "Alice"))

			_, err := f.svc.JoinRoom(context.Background(), ticket.Code, f.credential(t, "alice", "Alice"))
			if !errors.Is(err, shared.ErrSelfComparison) {
				t.Fatalf("expected ErrSelfComparison, got %v", err)
			}
			if f.comparer.count() != 0 {
				t.Error("expected no comparison")
			}

			if host, err := f.svc.CheckRoom(ticket.Code); err != nil || host != "Alice" {
				t.Errorf("expected room to remain, got %q %v", host, err)
			}
			if _, err := f.svc.JoinRoom(context.Background(), ticket.Code, f.credential(t, "bob", "Bob")); err != nil {
				t.Errorf("expected another user to still join, got %v", err)
			}
		})

		t.Run("Expired Creator Drops Room", func(t *testing.T) {
			f := newFixture(t)
			creator, _ := f.authority.Issue(auth.Identity{UserID: "alice", DisplayName: "Alice"})
			ticket, _ := f.svc.CreateRoom(creator)

			// credentials outlive rooms by default; shorten the creator's
			short, _ := auth.NewAuthority("test-secret", nil, auth.WithClock(f.clock.Now), auth.WithTTL(10*time.Minute))
			shortCred, _ := short.Issue(auth.Identity{UserID: "alice", DisplayName: "Alice"})
			if _, err := f.svc.CreateRoom(shortCred); err != nil {
				t.Fatalf("failed to refresh room credential: %v", err)
			}

			f.clock.Advance(15 * time.Minute)
			_, err := f.svc.JoinRoom(context.Background(), ticket.Code, f.credential(t, "bob", "Bob"))
			if !errors.Is(err, shared.ErrCreatorSessionExpired) {
				t.Fatalf("expected ErrCreatorSessionExpired, got %v", err)
			}
			if _, err := f.svc.CheckRoom(ticket.Code); !errors.Is(err, shared.ErrRoomNotFound) {
				t.Error("expected room to be deleted")
			}
		})

		t.Run("Invalid Joiner Leaves Room Waiting", func(t *testing.T) {
			f := newFixture(t)
			ticket, _ := f.svc.CreateRoom(f.credential(t, "alice", "Alice"))

			if _, err := f.svc.JoinRoom(context.Background(), ticket.Code, "garbage"); !errors.Is(err, shared.ErrTokenInvalid) {
				t.Errorf("expected ErrTokenInvalid, got %v", err)
			}
			if _, err := f.svc.CheckRoom(ticket.Code); err != nil {
				t.Errorf("expected room to remain, got %v", err)
			}
		})

		t.Run("Unknown Code", func(t *testing.T) {
			f := newFixture(t)

			if _, err := f.svc.JoinRoom(context.Background(), "ABCDEF", f.credential(t, "bob", "Bob")); !errors.Is(err, shared.ErrRoomNotFound) {
				t.Errorf("expected ErrRoomNotFound, got %v", err)
			}
		})

		t.Run("Comparison Failure Still Consumes Room", func(t *testing.T) {
			f := newFixture(t)
			f.comparer.err = shared.ErrUpstreamUnauthorized
			ticket, _ := f.svc.CreateRoom(f.credential(t, "alice", "Alice"))

			if _, err := f.svc.JoinRoom(context.Background(), ticket.Code, f.credential(t, "bob", "Bob")); !errors.Is(err, shared.ErrUpstreamUnauthorized) {
				t.Errorf("expected ErrUpstreamUnauthorized, got %v", err)
			}
			if _, err := f.svc.CheckRoom(ticket.Code); !errors.Is(err, shared.ErrRoomNotFound) {
				t.Error("expected room to be consumed")
			}
		})

		t.Run("Concurrent Joins Pair Once", func(t *testing.T) {
			f := newFixture(t)
			ticket, _ := f.svc.CreateRoom(f.credential(t, "alice", "Alice"))

			joiners := []string{"bob", "carol", "dave", "erin", "frank", "grace"}
			creds := make([]string, len(joiners))
			for i, j := range joiners {
				creds[i] = f.credential(t, j, j)
			}

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				successes int
			)
			for _, cred := range creds {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := f.svc.JoinRoom(context.Background(), ticket.Code, cred); err == nil {
						mu.Lock()
						successes++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			if successes != 1 || f.comparer.count() != 1 {
				t.Errorf("expected exactly one pairing, got %d successes and %d comparisons", successes, f.comparer.count())
			}
		})
	})
}

func TestHandoffs(t *testing.T) {
	t.Run("Consume Once", func(t *testing.T) {
		f := newFixture(t)

		id, err := f.svc.CreateHandoff(auth.Identity{UserID: "alice", DisplayName: "Alice", AccessToken: "at", RefreshToken: "rt"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(id) != repositories.HandoffIDLength {
			t.Errorf("expected %d character id, got %q", repositories.HandoffIDLength, id)
		}

		cred, err := f.svc.ConsumeHandoff(id)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		claims, err := f.authority.Verify(cred)
		if err != nil {
			t.Fatalf("expected minted credential to verify, got %v", err)
		}
		if claims.Subject != "alice" || claims.SpotifyToken != "at" || claims.RefreshToken != "rt" {
			t.Errorf("unexpected claims: %+v", claims)
		}

		if _, err := f.svc.ConsumeHandoff(id); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected replay to fail with ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Expires After Five Minutes", func(t *testing.T) {
		f := newFixture(t)
		id, _ := f.svc.CreateHandoff(auth.Identity{UserID: "alice"})

		f.clock.Advance(5 * time.Minute)
		if _, err := f.svc.ConsumeHandoff(id); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Requires Subject", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.svc.CreateHandoff(auth.Identity{}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestStates(t *testing.T) {
	t.Run("Single Use", func(t *testing.T) {
		f := newFixture(t)

		state, err := f.svc.NewState()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := f.svc.ConsumeState(state); err != nil {
			t.Fatalf("expected first use to succeed, got %v", err)
		}
		if err := f.svc.ConsumeState(state); !errors.Is(err, shared.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState on reuse, got %v", err)
		}
	})

	t.Run("Unknown And Empty", func(t *testing.T) {
		f := newFixture(t)
		for _, s := range []string{"", "forged"} {
			if err := f.svc.ConsumeState(s); !errors.Is(err, shared.ErrInvalidState) {
				t.Errorf("expected ErrInvalidState for %q, got %v", s, err)
			}
		}
	})

	t.Run("Expires", func(t *testing.T) {
		f := newFixture(t)
		state, _ := f.svc.NewState()

		f.clock.Advance(10 * time.Minute)
		if err := f.svc.ConsumeState(state); !errors.Is(err, shared.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState after expiry, got %v", err)
		}
	})
}
