package domain

// Status is the completion classification of a day's workout or diet items
type Status string

const (
	StatusEmpty      Status = "EMPTY"
	StatusComplete   Status = "COMPLETE"
	StatusPartial    Status = "PARTIAL"
	StatusIncomplete Status = "INCOMPLETE"
)

// DayStatus is the classification of one calendar day
type DayStatus struct {
	Workout       Status   `json:"workout"`
	Diet          Status   `json:"diet"`
	WorkoutTitles []string `json:"workout_titles"`
	DietTitles    []string `json:"diet_titles"`
}

// ClassifyItems classifies a homogeneous item subset.
// COMPLETE needs every mark to be O; one O or D makes it PARTIAL.
func ClassifyItems(items []PlanItem) Status {
	if len(items) == 0 {
		return StatusEmpty
	}

	allComplete := true
	anyProgress := false
	for _, item := range items {
		switch item.StatusMark {
		case MarkComplete:
			anyProgress = true
		case MarkPartial:
			anyProgress = true
			allComplete = false
		default:
			allComplete = false
		}
	}

	switch {
	case allComplete:
		return StatusComplete
	case anyProgress:
		return StatusPartial
	default:
		return StatusIncomplete
	}
}

// Classify computes the workout and diet status of a day. NOTE items are ignored
// and a nil day (not loaded or absent) is EMPTY on both sides.
func Classify(day *PlanDay) DayStatus {
	status := DayStatus{
		Workout:       StatusEmpty,
		Diet:          StatusEmpty,
		WorkoutTitles: []string{},
		DietTitles:    []string{},
	}
	if day == nil {
		return status
	}

	var workout, diet []PlanItem
	for _, item := range day.Items {
		switch item.ItemType {
		case ItemTypeWorkout:
			workout = append(workout, item)
			status.WorkoutTitles = append(status.WorkoutTitles, item.Title)
		case ItemTypeDiet:
			diet = append(diet, item)
			status.DietTitles = append(status.DietTitles, item.Title)
		}
	}

	status.Workout = ClassifyItems(workout)
	status.Diet = ClassifyItems(diet)
	return status
}
