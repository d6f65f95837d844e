package walk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paseoapp/walk-api/internal/authz"
	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/internal/repository"
	"github.com/paseoapp/walk-api/internal/service/pricing"
	"github.com/paseoapp/walk-api/internal/service/schedule"
	apperrors "github.com/paseoapp/walk-api/pkg/errors"
)

// Create validates the request, then writes the walk, its schedule, pet links
// and the pending charge in a single transaction.
func (s *Service) Create(ctx context.Context, actor authz.Actor, req *model.CreateWalkRequest) (*model.Walk, error) {
	if !authz.Can(actor, authz.WalkCreate, authz.Resource{}) {
		return nil, ErrForbidden
	}

	walkType, petIDs, days, err := s.validateCreate(ctx, actor.UserID, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	walk := &model.Walk{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now.UTC(),
			UpdatedAt: now.UTC(),
		},
		WalkType: walkType,
		Status:   model.WalkStatusPending,
		ClientID: actor.UserID,
		Comments: req.Comments,
		PetIDs:   petIDs,
	}

	today := now.In(s.loc)
	if walkType == model.WalkTypeFixed {
		walk.Days = schedule.Fixed(walk.ID, today, days, req.StartTime, req.Duration)
	} else {
		walk.Days = schedule.Sporadic(walk.ID, today, days[0], req.StartTime, req.Duration)
	}

	amount, err := pricing.Amount(req.Duration, len(petIDs), len(walk.Days))
	if err != nil {
		return nil, err
	}
	payment := &model.Payment{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now.UTC(),
			UpdatedAt: now.UTC(),
		},
		WalkID: walk.ID,
		Kind:   model.PaymentKindCharge,
		Amount: amount,
		Status: model.PaymentStatusPending,
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Walks().Create(ctx, walk); err != nil {
			return err
		}
		if err := tx.Walks().AddScheduleRows(ctx, walk.Days); err != nil {
			return err
		}
		if err := tx.Walks().AddPets(ctx, walk.ID, petIDs); err != nil {
			return err
		}
		return tx.Payments().Create(ctx, payment)
	})
	if err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("create_walk", "error").Inc()
		s.log.Error(err, "failed to create walk", "client_id", actor.UserID.String())
		return nil, apperrors.Internal(err)
	}
	s.metrics.DatabaseOperations.WithLabelValues("create_walk", "success").Inc()
	s.metrics.WalksCreated.WithLabelValues(string(walkType)).Inc()

	s.log.Info("walk created",
		"walk_id", walk.ID.String(),
		"walk_type", string(walkType),
		"days", len(walk.Days),
		"amount", amount,
	)
	return walk, nil
}

// validateCreate checks the request in a fixed order and stops at the first failure.
func (s *Service) validateCreate(ctx context.Context, clientID uuid.UUID, req *model.CreateWalkRequest) (model.WalkType, []uuid.UUID, []time.Weekday, error) {
	walkType := model.WalkType(req.WalkType)
	if !walkType.Valid() {
		return "", nil, nil, ErrInvalidWalkType
	}

	petIDs := req.AllPetIDs()
	if len(petIDs) == 0 {
		return "", nil, nil, ErrPetRequired
	}
	for _, petID := range petIDs {
		pet, err := s.store.Pets().Get(ctx, petID)
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, nil, ErrPetNotFound
		}
		if err != nil {
			return "", nil, nil, apperrors.Internal(err)
		}
		if pet.OwnerID != clientID {
			return "", nil, nil, ErrPetNotOwned
		}
	}

	days, err := s.parseDays(walkType, req.Days)
	if err != nil {
		return "", nil, nil, err
	}

	if err := s.validator.ValidateField(req.StartTime, "hhmm"); err != nil {
		return "", nil, nil, ErrInvalidStartTime
	}
	if err := s.validator.ValidateField(req.Duration, "oneof=30 60"); err != nil {
		return "", nil, nil, pricing.ErrInvalidDuration
	}
	if err := s.validator.ValidateField(req.Comments, fmt.Sprintf("max=%d", MaxCommentLength)); err != nil {
		return "", nil, nil, ErrCommentsTooLong
	}

	return walkType, petIDs, days, nil
}

// parseDays resolves day names and enforces the per-type cardinality. Fixed walks
// count distinct days; a sporadic walk takes exactly one entry.
func (s *Service) parseDays(walkType model.WalkType, names []string) ([]time.Weekday, error) {
	if len(names) == 0 {
		return nil, ErrDaysRequired
	}
	if err := s.validator.ValidateField(names, "dive,weekday"); err != nil {
		return nil, schedule.ErrInvalidInput
	}

	seen := make(map[time.Weekday]bool, len(names))
	var days []time.Weekday
	for _, name := range names {
		wd, err := schedule.ParseDay(name)
		if err != nil {
			return nil, err
		}
		if !seen[wd] {
			seen[wd] = true
			days = append(days, wd)
		}
	}

	switch walkType {
	case model.WalkTypeFixed:
		if len(days) < 2 {
			return nil, ErrFixedNeedsTwoDays
		}
	case model.WalkTypeSporadic:
		if len(names) != 1 {
			return nil, ErrSporadicNeedsOneDay
		}
	}
	return days, nil
}
