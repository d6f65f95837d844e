package walk

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/paseoapp/walk-api/internal/authz"
	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/internal/repository"
	apperrors "github.com/paseoapp/walk-api/pkg/errors"
)

func (s *Service) getWalk(ctx context.Context, id uuid.UUID) (*model.Walk, error) {
	walk, err := s.store.Walks().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrWalkNotFound
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return walk, nil
}

// Get returns a walk the actor is allowed to see.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Walk, error) {
	walk, err := s.getWalk(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.Can(actor, authz.WalkRead, authz.WalkResource(walk)) {
		return nil, ErrForbidden
	}
	if err := s.checkZone(ctx, actor, walk); err != nil {
		return nil, err
	}
	return walk, nil
}

// checkZone applies the zone filter to a single open walk: with filtering on,
// a walker with a zone only reaches walks that have a pet in that zone.
func (s *Service) checkZone(ctx context.Context, actor authz.Actor, walk *model.Walk) error {
	if !s.zoneFilter || !actor.IsWalker() || walk.HasWalker() {
		return nil
	}
	zone, err := s.walkerZone(ctx, actor.UserID)
	if err != nil || zone == "" {
		return err
	}

	for _, petID := range walk.PetIDs {
		pet, err := s.store.Pets().Get(ctx, petID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return apperrors.Internal(err)
		}
		if pet.Zone == zone {
			return nil
		}
	}
	return ErrOutsideZone
}

// List returns the walks visible to actor, optionally narrowed by status.
func (s *Service) List(ctx context.Context, actor authz.Actor, status string) ([]*model.Walk, error) {
	filters := &model.WalkFilters{}
	if status != "" {
		st, ok := model.ParseWalkStatus(status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		filters.Status = st
	}

	switch {
	case actor.IsAdmin():
	case actor.IsClient():
		filters.ClientID = &actor.UserID
	case actor.IsWalker():
		filters.WalkerID = &actor.UserID
		filters.IncludeOpen = true
		if s.zoneFilter {
			zone, err := s.walkerZone(ctx, actor.UserID)
			if err != nil {
				return nil, err
			}
			filters.Zone = zone
		}
	default:
		return nil, ErrForbidden
	}

	walks, err := s.store.Walks().List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if walks == nil {
		walks = []*model.Walk{}
	}
	return walks, nil
}
