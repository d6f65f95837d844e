package walk

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/paseoapp/walk-api/internal/authz"
	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/internal/repository"
	"github.com/paseoapp/walk-api/internal/service/schedule"
	apperrors "github.com/paseoapp/walk-api/pkg/errors"
)

type walkerEffect int

const (
	keepWalker walkerEffect = iota
	assignActor
	clearWalker
)

// Transition is one allowed edge of the walk state machine.
type Transition struct {
	From   model.WalkStatus
	To     model.WalkStatus
	Action authz.Action

	walker walkerEffect
	// guarded transitions must happen before the cancellation window closes.
	guarded bool
}

// Transitions lists every allowed status change. Anything else is rejected.
var Transitions = []Transition{
	{From: model.WalkStatusPending, To: model.WalkStatusConfirmed, Action: authz.WalkConfirm, walker: assignActor},
	{From: model.WalkStatusConfirmed, To: model.WalkStatusPending, Action: authz.WalkRelease, walker: clearWalker, guarded: true},
	{From: model.WalkStatusConfirmed, To: model.WalkStatusInProgress, Action: authz.WalkStart},
	{From: model.WalkStatusInProgress, To: model.WalkStatusFinished, Action: authz.WalkFinish},
	{From: model.WalkStatusPending, To: model.WalkStatusCancelled, Action: authz.WalkCancel},
	{From: model.WalkStatusConfirmed, To: model.WalkStatusCancelled, Action: authz.WalkCancel, guarded: true},
}

// FindTransition looks up the edge from -> to.
func FindTransition(from, to model.WalkStatus) (Transition, bool) {
	for _, t := range Transitions {
		if t.From == from && t.To == to {
			return t, true
		}
	}
	return Transition{}, false
}

// UpdateStatus moves a walk along the state machine on behalf of actor.
func (s *Service) UpdateStatus(ctx context.Context, actor authz.Actor, walkID uuid.UUID, req *model.UpdateWalkStatusRequest) (*model.Walk, error) {
	target, ok := model.ParseWalkStatus(req.Status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	walk, err := s.getWalk(ctx, walkID)
	if err != nil {
		return nil, err
	}

	tr, ok := FindTransition(walk.Status, target)
	if !ok {
		return nil, ErrTransitionNotAllowed
	}
	if !authz.Can(actor, tr.Action, authz.WalkResource(walk)) {
		return nil, ErrForbidden
	}
	if tr.Action == authz.WalkConfirm {
		if err := s.checkZone(ctx, actor, walk); err != nil {
			return nil, err
		}
	}

	if tr.guarded {
		if err := s.checkCancellationWindow(ctx, walk.ID); err != nil {
			return nil, err
		}
	}

	var ratings []*model.Rating
	if tr.Action == authz.WalkFinish {
		if ratings, err = s.buildRatings(walk, req); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	change := repository.StatusChange{
		WalkID: walk.ID,
		From:   walk.Status,
		To:     target,
		At:     now,
	}
	switch tr.walker {
	case assignActor:
		walkerID := actor.UserID
		change.SetWalker, change.WalkerID = true, &walkerID
	case clearWalker:
		change.SetWalker = true
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Walks().UpdateStatus(ctx, change); err != nil {
			return err
		}
		if target == model.WalkStatusCancelled {
			if _, err := tx.Payments().CancelPendingCharges(ctx, walk.ID, now); err != nil {
				return err
			}
		}
		for _, r := range ratings {
			r.CreatedAt = now
			if err := tx.Ratings().Create(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})
	switch {
	case errors.Is(err, repository.ErrStale):
		return nil, ErrWalkChanged
	case errors.Is(err, repository.ErrConflict):
		return nil, ErrRatingExists
	case err != nil:
		s.log.Error(err, "failed to update walk status", "walk_id", walk.ID.String())
		return nil, apperrors.Internal(err)
	}

	s.metrics.WalkTransitions.WithLabelValues(string(walk.Status), string(target)).Inc()
	s.log.Info("walk status updated",
		"walk_id", walk.ID.String(),
		"from", string(walk.Status),
		"to", string(target),
		"actor_id", actor.UserID.String(),
	)

	return s.getWalk(ctx, walk.ID)
}

// checkCancellationWindow rejects changes once the next occurrence is too close.
// Occurrences whose start already passed are skipped; when none is left there
// is nothing to protect and the change is allowed.
func (s *Service) checkCancellationWindow(ctx context.Context, walkID uuid.UUID) error {
	now := s.now()
	rows, err := s.store.Walks().UpcomingScheduleRows(ctx, walkID, schedule.Date(now.In(s.loc)))
	if err != nil {
		return apperrors.Internal(err)
	}

	for _, row := range rows {
		startsAt, err := row.StartsAt(s.loc)
		if err != nil {
			return apperrors.Internal(err)
		}
		if startsAt.Before(now) {
			continue
		}
		if startsAt.Sub(now) < s.window {
			return ErrCancellationWindow
		}
		return nil
	}
	return nil
}

// buildRatings validates both optional ratings before anything is written.
func (s *Service) buildRatings(walk *model.Walk, req *model.UpdateWalkStatusRequest) ([]*model.Rating, error) {
	if req.WalkerRating == nil && req.ClientRating == nil {
		return nil, nil
	}
	if !walk.HasWalker() {
		return nil, ErrRatingWithoutWalker
	}

	for _, in := range []*model.RatingInput{req.WalkerRating, req.ClientRating} {
		if in == nil {
			continue
		}
		if strings.TrimSpace(in.Comment) == "" {
			return nil, ErrMissingRatingComment
		}
		if in.Value < 0 || in.Value > MaxRatingValue {
			return nil, ErrInvalidRatingValue
		}
	}

	var ratings []*model.Rating
	if in := req.WalkerRating; in != nil {
		ratings = append(ratings, &model.Rating{
			ID:         uuid.New(),
			WalkID:     walk.ID,
			SenderID:   walk.ClientID,
			ReceiverID: *walk.WalkerID,
			Value:      in.Value,
			Comment:    strings.TrimSpace(in.Comment),
		})
	}
	if in := req.ClientRating; in != nil {
		ratings = append(ratings, &model.Rating{
			ID:         uuid.New(),
			WalkID:     walk.ID,
			SenderID:   *walk.WalkerID,
			ReceiverID: walk.ClientID,
			Value:      in.Value,
			Comment:    strings.TrimSpace(in.Comment),
		})
	}
	return ratings, nil
}
