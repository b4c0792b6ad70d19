package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/healthweb/planboard/internal/config"
	"github.com/healthweb/planboard/internal/domain"
	"github.com/healthweb/planboard/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// seeds demo week plans into the Mongo mirror used with PLAN_SOURCE=mongo
func main() {
	matchID := flag.Int64("match", 1, "match id to seed")
	weeks := flag.Int("weeks", 4, "number of weeks to seed, starting at the current week")
	reset := flag.Bool("reset", false, "delete the match's existing weeks first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid timezone: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer client.Disconnect(ctx)

	repo := repository.NewMongoPlanWeekRepository(client.Database(cfg.MongoDB.Database))
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	if *reset {
		deleted, err := repo.DeleteByMatch(ctx, *matchID)
		if err != nil {
			log.Fatalf("Failed to delete weeks: %v", err)
		}
		fmt.Printf("Deleted %d weeks of match %d\n", deleted, *matchID)
	}

	monday := domain.MondayOf(time.Now().In(loc))
	for i := 0; i < *weeks; i++ {
		weekStart := domain.AddDays(monday, i*domain.DaysPerWeek)
		week := demoWeek(*matchID, int64(i+1), weekStart, i)
		if err := repo.Upsert(ctx, week); err != nil {
			log.Fatalf("Failed to upsert week %s: %v", week.WeekStart, err)
		}
		fmt.Printf("Seeded week %s for match %d\n", week.WeekStart, *matchID)
	}
}

var (
	workouts = []string{"Upper Body", "Lower Body", "Cardio 30min", "Full Body", "Mobility", "Long Walk", ""}
	meals    = []string{"High protein breakfast", "Chicken salad", "Salmon and rice", "Greek yogurt", "Oatmeal", "Veggie bowl", "Cheat meal"}
	// past weeks get marks so every status shows up on the board
	marks = []domain.StatusMark{domain.MarkComplete, domain.MarkPartial, domain.MarkIncomplete, domain.MarkComplete, domain.MarkUnset, domain.MarkComplete, domain.MarkUnset}
)

func demoWeek(matchID, weekID int64, weekStart time.Time, offset int) *domain.PlanWeek {
	kcal := 600
	minutes := 45

	days := make([]*domain.PlanDay, domain.DaysPerWeek)
	for i := range days {
		mark := domain.MarkUnset
		if offset == 0 {
			mark = marks[i]
		}

		day := &domain.PlanDay{ID: weekID*10 + int64(i), DayIndex: i}
		if workouts[i] != "" {
			day.Items = append(day.Items, domain.PlanItem{
				ID:         day.ID*10 + 1,
				ItemType:   domain.ItemTypeWorkout,
				Title:      workouts[i],
				TargetMin:  &minutes,
				StatusMark: mark,
			})
		} else {
			day.Note = "Rest day"
		}
		day.Items = append(day.Items, domain.PlanItem{
			ID:         day.ID*10 + 2,
			ItemType:   domain.ItemTypeDiet,
			Title:      meals[i],
			TargetKcal: &kcal,
			StatusMark: mark,
		})
		days[i] = day
	}

	return &domain.PlanWeek{
		ID:        weekID,
		MatchID:   matchID,
		WeekStart: domain.DateKey(weekStart),
		Title:     fmt.Sprintf("Week %d", offset+1),
		Days:      days,
	}
}
