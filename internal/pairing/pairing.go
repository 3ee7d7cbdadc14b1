// Package pairing implements the rendezvous between two browser sessions: one-time handoff
// sessions that bridge the OAuth callback to a credential, and room codes that pair a waiting
// creator with a joiner.
//
// Room lifecycle: absent -> waiting -> consumed (joined) or expired. A room is also dropped
// when its creator's credential no longer verifies at join time. A failed self-join leaves
// the room waiting.
package pairing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibesync/internal/auth"
	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/repositories"
	"github.com/desertthunder/vibesync/internal/shared"
	"github.com/desertthunder/vibesync/internal/tasks"
)

// Authority issues and verifies credentials. [auth.Authority] implements this.
type Authority interface {
	Issue(id auth.Identity) (string, error)
	Verify(token string) (*auth.Claims, error)
}

// RoomTicket is returned when a room is created.
type RoomTicket struct {
	Code             string
	ExpiresInMinutes int
	Created          bool // false when an existing room was handed back
}

// Service implements the pairing operations on top of the in-memory stores.
type Service struct {
	authority Authority
	comparer  tasks.Comparer
	rooms     *repositories.Store[models.Room]
	handoffs  *repositories.Store[models.Handoff]
	states    *repositories.Store[models.OAuthState]
	logger    *log.Logger
}

// Stores groups the registries a [Service] works on.
type Stores struct {
	Rooms    *repositories.Store[models.Room]
	Handoffs *repositories.Store[models.Handoff]
	States   *repositories.Store[models.OAuthState]
}

// NewStores creates stores with the configured lifetimes.
func NewStores(cfg shared.PairingConfig, opts ...repositories.Option) Stores {
	return Stores{
		Rooms:    repositories.NewRoomStore(cfg.RoomTTL(), opts...),
		Handoffs: repositories.NewHandoffStore(cfg.HandoffTTL(), opts...),
		States:   repositories.NewStateStore(cfg.StateTTL(), opts...),
	}
}

// NewService creates a pairing [Service].
func NewService(authority Authority, comparer tasks.Comparer, stores Stores, logger *log.Logger) *Service {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Service{
		authority: authority,
		comparer:  comparer,
		rooms:     stores.Rooms,
		handoffs:  stores.Handoffs,
		states:    stores.States,
		logger:    shared.WithLogger(logger, "component", "pairing"),
	}
}

// CreateRoom opens a room for the holder of credential.
//
// A subject has at most one live room: calling again returns the same code and stores the
// newer credential with it.
func (s *Service) CreateRoom(credential string) (*RoomTicket, error) {
	claims, err := s.authority.Verify(credential)
	if err != nil {
		return nil, err
	}

	now := s.rooms.Now()
	code, created, err := s.rooms.Upsert(
		func(r models.Room) bool { return r.OwnerID == claims.Subject },
		func(r models.Room) models.Room {
			r.Credential = credential
			r.OwnerName = claims.DisplayName
			return r
		},
		func(code string) models.Room {
			return models.Room{
				Code:       code,
				OwnerID:    claims.Subject,
				OwnerName:  claims.DisplayName,
				Credential: credential,
				CreatedAt:  now,
			}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate room code: %w", err)
	}

	if created {
		s.logger.Info("room created", "code", code)
	} else {
		s.logger.Debug("room reused", "code", code)
	}

	return &RoomTicket{
		Code:             code,
		ExpiresInMinutes: int(s.rooms.TTL() / time.Minute),
		Created:          created,
	}, nil
}

// CheckRoom reports the display name of the participant waiting on code.
func (s *Service) CheckRoom(code string) (string, error) {
	room, ok := s.rooms.Get(shared.NormalizeCode(code))
	if !ok {
		return "", shared.ErrRoomNotFound
	}
	return room.OwnerName, nil
}

// JoinRoom pairs the holder of credential with the participant waiting on code and
// compares their libraries.
//
// The room is consumed before the comparison starts, so a failed comparison still
// leaves the room gone.
func (s *Service) JoinRoom(ctx context.Context, code, credential string) (*models.ComparisonResult, error) {
	code = shared.NormalizeCode(code)

	var creator, joiner *auth.Claims
	_, ok, err := s.rooms.Resolve(code, func(room models.Room) (bool, error) {
		c, err := s.authority.Verify(room.Credential)
		if err != nil {
			return true, fmt.Errorf("%w: ask them to create a new room", shared.ErrCreatorSessionExpired)
		}

		j, err := s.authority.Verify(credential)
		if err != nil {
			return false, err
		}

		if c.Subject == j.Subject {
			return false, shared.ErrSelfComparison
		}

		creator, joiner = c, j
		return true, nil
	})
	if !ok {
		return nil, shared.ErrRoomNotFound
	}
	if err != nil {
		if errors.Is(err, shared.ErrCreatorSessionExpired) {
			s.logger.Info("room dropped, creator credential no longer valid", "code", code)
		}
		return nil, err
	}

	s.logger.Info("room joined", "code", code)

	return s.comparer.Run(ctx,
		tasks.Side{
			Participant: models.Participant{ID: creator.Subject, DisplayName: creator.DisplayName},
			AccessToken: creator.SpotifyToken,
		},
		tasks.Side{
			Participant: models.Participant{ID: joiner.Subject, DisplayName: joiner.DisplayName},
			AccessToken: joiner.SpotifyToken,
		},
		nil,
	)
}

// CreateHandoff stages id until the frontend exchanges the returned handoff id.
func (s *Service) CreateHandoff(id auth.Identity) (string, error) {
	if id.UserID == "" {
		return "", fmt.Errorf("%w: subject is required", shared.ErrValidation)
	}

	now := s.handoffs.Now()
	key, err := s.handoffs.Insert(func(key string) models.Handoff {
		return models.Handoff{
			ID:           key,
			UserID:       id.UserID,
			DisplayName:  id.DisplayName,
			AccessToken:  id.AccessToken,
			RefreshToken: id.RefreshToken,
			CreatedAt:    now,
		}
	})
	if err != nil {
		return "", fmt.Errorf("failed to allocate handoff id: %w", err)
	}
	return key, nil
}

// ConsumeHandoff pops the handoff and mints a credential from it. A handoff id works once.
func (s *Service) ConsumeHandoff(handoffID string) (string, error) {
	h, ok := s.handoffs.Pop(handoffID)
	if !ok {
		return "", shared.ErrSessionNotFound
	}

	return s.authority.Issue(auth.Identity{
		UserID:       h.UserID,
		DisplayName:  h.DisplayName,
		AccessToken:  h.AccessToken,
		RefreshToken: h.RefreshToken,
	})
}

// NewState allocates an OAuth anti-forgery state.
func (s *Service) NewState() (string, error) {
	now := s.states.Now()
	state, err := s.states.Insert(func(key string) models.OAuthState {
		return models.OAuthState{Value: key, CreatedAt: now}
	})
	if err != nil {
		return "", fmt.Errorf("failed to allocate oauth state: %w", err)
	}
	return state, nil
}

// ConsumeState accepts a state once. Unknown, reused and expired states fail with [shared.ErrInvalidState].
func (s *Service) ConsumeState(state string) error {
	if state == "" {
		return shared.ErrInvalidState
	}
	if _, ok := s.states.Pop(state); !ok {
		return shared.ErrInvalidState
	}
	return nil
}
