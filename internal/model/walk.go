package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type WalkType string

const (
	WalkTypeFixed    WalkType = "fijo"
	WalkTypeSporadic WalkType = "esporadico"
)

func (t WalkType) Valid() bool {
	return t == WalkTypeFixed || t == WalkTypeSporadic
}

type WalkStatus string

const (
	WalkStatusPending    WalkStatus = "pending"
	WalkStatusConfirmed  WalkStatus = "confirmado"
	WalkStatusInProgress WalkStatus = "en_curso"
	WalkStatusFinished   WalkStatus = "finalizado"
	WalkStatusCancelled  WalkStatus = "cancelado"
)

// ParseWalkStatus reports whether s names a known walk status.
func ParseWalkStatus(s string) (WalkStatus, bool) {
	switch st := WalkStatus(s); st {
	case WalkStatusPending, WalkStatusConfirmed, WalkStatusInProgress, WalkStatusFinished, WalkStatusCancelled:
		return st, true
	}
	return "", false
}

type Walk struct {
	Base
	WalkType WalkType   `db:"walk_type" json:"walk_type"`
	Status   WalkStatus `db:"status" json:"status"`
	ClientID uuid.UUID  `db:"client_id" json:"client_id"`
	WalkerID *uuid.UUID `db:"walker_id" json:"walker_id"`
	Comments string     `db:"comments" json:"comments,omitempty"`

	Days   []ScheduleRow `db:"-" json:"days,omitempty"`
	PetIDs []uuid.UUID   `db:"-" json:"pet_ids,omitempty"`
}

// HasWalker reports whether a walker is assigned.
func (w *Walk) HasWalker() bool {
	return w.WalkerID != nil && *w.WalkerID != uuid.Nil
}

// ScheduleRow is one concrete occurrence of a walk (a "days_walk" row).
type ScheduleRow struct {
	ID        uuid.UUID `db:"id" json:"id"`
	WalkID    uuid.UUID `db:"walk_id" json:"walk_id"`
	Date      time.Time `db:"walk_date" json:"-"`
	StartTime string    `db:"start_time" json:"start_time"`
	Duration  int       `db:"duration" json:"duration"`
}

// DateString renders the calendar date of the row.
func (r ScheduleRow) DateString() string {
	return r.Date.Format(DateLayout)
}

func (r ScheduleRow) MarshalJSON() ([]byte, error) {
	type row ScheduleRow
	return json.Marshal(struct {
		row
		Date string `json:"date"`
	}{row(r), r.DateString()})
}

// StartsAt combines the row date and start time in loc.
func (r ScheduleRow) StartsAt(loc *time.Location) (time.Time, error) {
	clock, err := time.Parse(TimeLayout, r.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

type CreateWalkRequest struct {
	WalkType  string      `json:"walk_type"`
	PetID     *uuid.UUID  `json:"pet_id,omitempty"`
	PetIDs    []uuid.UUID `json:"pet_ids,omitempty"`
	Comments  string      `json:"comments"`
	StartTime string      `json:"start_time"`
	Duration  int         `json:"duration"`
	Days      []string    `json:"days"`
}

// AllPetIDs merges pet_id and pet_ids without duplicates, preserving order.
func (r *CreateWalkRequest) AllPetIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	add := func(id uuid.UUID) {
		if id == uuid.Nil {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if r.PetID != nil {
		add(*r.PetID)
	}
	for _, id := range r.PetIDs {
		add(id)
	}
	return ids
}

// CreateWalkResponse is the body returned once a walk has been created.
type CreateWalkResponse struct {
	WalkID uuid.UUID `json:"walk_id"`
}

type RatingInput struct {
	Value   int    `json:"value"`
	Comment string `json:"comment"`
}

type UpdateWalkStatusRequest struct {
	Status       string       `json:"status"`
	WalkerRating *RatingInput `json:"walker_rating,omitempty"`
	ClientRating *RatingInput `json:"client_rating,omitempty"`
}

type WalkFilters struct {
	ClientID *uuid.UUID
	// WalkerID restricts to walks assigned to the walker. With IncludeOpen the
	// unassigned pending walks are added, optionally limited to Zone.
	WalkerID    *uuid.UUID
	IncludeOpen bool
	Zone        string
	Status      WalkStatus
}
