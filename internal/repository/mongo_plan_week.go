package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/healthweb/planboard/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPlanWeekRepository is a local mirror of plan weeks, keyed by (match_id, week_start)
type MongoPlanWeekRepository struct {
	collection *mongo.Collection
}

func NewMongoPlanWeekRepository(db *mongo.Database) *MongoPlanWeekRepository {
	return &MongoPlanWeekRepository{
		collection: db.Collection("plan_weeks"),
	}
}

// EnsureIndexes creates the unique (match_id, week_start) index
func (r *MongoPlanWeekRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "match_id", Value: 1}, {Key: "week_start", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create plan_weeks index: %w", err)
	}
	return nil
}

func (r *MongoPlanWeekRepository) FetchWeek(ctx context.Context, matchID int64, weekStart time.Time) (*domain.PlanWeek, error) {
	filter := bson.M{
		"match_id":   matchID,
		"week_start": domain.DateKey(weekStart),
	}

	var week domain.PlanWeek
	err := r.collection.FindOne(ctx, filter).Decode(&week)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrWeekNotFound
		}
		return nil, err
	}
	return &week, nil
}

// Upsert replaces the stored week for the same match and week start
func (r *MongoPlanWeekRepository) Upsert(ctx context.Context, week *domain.PlanWeek) error {
	if week.MatchID <= 0 {
		return domain.ErrInvalidMatchID
	}
	if _, err := domain.ParseDateKey(week.WeekStart, time.UTC); err != nil {
		return err
	}

	filter := bson.M{
		"match_id":   week.MatchID,
		"week_start": week.WeekStart,
	}
	_, err := r.collection.ReplaceOne(ctx, filter, week, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert plan week: %w", err)
	}
	return nil
}

func (r *MongoPlanWeekRepository) DeleteByMatch(ctx context.Context, matchID int64) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"match_id": matchID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete plan weeks: %w", err)
	}
	return result.DeletedCount, nil
}
