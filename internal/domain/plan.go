package domain

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// DaysPerWeek is the number of PlanDay entries in a well-formed PlanWeek.
const DaysPerWeek = 7

// ItemType classifies a plan item
type ItemType string

const (
	ItemTypeWorkout ItemType = "WORKOUT"
	ItemTypeDiet    ItemType = "DIET"
	ItemTypeNote    ItemType = "NOTE"
)

// UnmarshalJSON accepts item types in any letter case ("workout", "Diet", ...)
func (t *ItemType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = ItemType(strings.ToUpper(strings.TrimSpace(raw)))
	return nil
}

// StatusMark is the completion mark a user sets on an item
type StatusMark string

const (
	MarkUnset      StatusMark = ""
	MarkComplete   StatusMark = "O"
	MarkPartial    StatusMark = "D"
	MarkIncomplete StatusMark = "X"
)

// PlanItem is a single workout, diet or note entry within a day
type PlanItem struct {
	ID          int64      `json:"id" bson:"id"`
	ItemType    ItemType   `json:"itemType" bson:"item_type"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	TargetKcal  *int       `json:"targetKcal,omitempty" bson:"target_kcal,omitempty"`
	TargetMin   *int       `json:"targetMin,omitempty" bson:"target_min,omitempty"`
	StatusMark  StatusMark `json:"statusMark,omitempty" bson:"status_mark,omitempty"`
	Locked      bool       `json:"locked" bson:"locked"` // frozen by the trainer
}

// PlanDay is one calendar day of a plan week.
// Its date key is derived by the consumer from the week start and the day's position.
type PlanDay struct {
	ID       int64      `json:"id" bson:"id"`
	DayIndex int        `json:"dayIndex" bson:"day_index"`
	Note     string     `json:"note,omitempty" bson:"note,omitempty"`
	Items    []PlanItem `json:"items" bson:"items"`
}

// PlanWeek is a server-returned week; WeekStart is always a Monday (YYYY-MM-DD)
type PlanWeek struct {
	ID        int64      `json:"id" bson:"week_id"`
	MatchID   int64      `json:"matchId" bson:"match_id"`
	WeekStart string     `json:"weekStart" bson:"week_start"`
	Title     string     `json:"title" bson:"title"`
	Note      string     `json:"note,omitempty" bson:"note,omitempty"`
	Days      []*PlanDay `json:"days" bson:"days"`
}

// Repositories

// WeekPlanFetcher retrieves the plan of one week for a match.
// Implementations return ErrWeekNotFound when the match has no plan for that week.
type WeekPlanFetcher interface {
	FetchWeek(ctx context.Context, matchID int64, weekStart time.Time) (*PlanWeek, error)
}

// WeekPlanInvalidator drops cached weeks of a match so the next fetch hits the source
type WeekPlanInvalidator interface {
	InvalidateMatch(ctx context.Context, matchID int64) error
}

// WeekPlanStore is a local mirror of week plans
type WeekPlanStore interface {
	WeekPlanFetcher
	Upsert(ctx context.Context, week *PlanWeek) error
	DeleteByMatch(ctx context.Context, matchID int64) (int64, error)
}
