package checklist

import (
	"time"

	"github.com/google/uuid"

	"github.com/padraicbc/raceprep/models"
)

// newID is swapped out by tests that need deterministic identifiers.
var newID = uuid.NewString

// Progress summarises checklist completion. DONE and SKIPPED both count as
// done; hidden tasks are excluded entirely.
type Progress struct {
	Total      int `json:"total"`
	Done       int `json:"done"`
	Percentage int `json:"percentage"`
}

// DuePartition splits non-terminal visible tasks by urgency relative to the
// current milestone.
type DuePartition struct {
	Overdue  []*models.Task `json:"overdue"`
	DueNow   []*models.Task `json:"due_now"`
	Upcoming []*models.Task `json:"upcoming"`
}

// GenerateDefaultChecklist instantiates the default catalog for a new race.
// Templates whose eligibility condition fails are skipped; milestones are
// rolled forward for races created inside their window. Sort order follows
// catalog order starting at 0.
func GenerateDefaultChecklist(race *models.Race) ([]*models.Task, error) {
	daysUntil, err := DaysUntilRace(race.Date)
	if err != nil {
		return nil, err
	}

	tasks := make([]*models.Task, 0, len(defaultTasks))
	sortOrder := 0
	for _, def := range defaultTasks {
		if !def.Condition.eligible(race) {
			continue
		}
		tasks = append(tasks, newTask(def, race.ID, daysUntil, sortOrder, true))
		sortOrder++
	}
	return tasks, nil
}

// ApplyPersonalization reconciles the personalization catalog against an
// existing task set. Enabled flags synthesize missing tasks or unhide hidden
// ones; disabled flags hide their tasks in place. Tasks are never deleted, so
// status and edits survive a later re-enable. Matching is by exact title.
// Returns existing (mutated in place where hidden state changed) plus any
// newly synthesized tasks.
func ApplyPersonalization(existing []*models.Task, race *models.Race, profile *models.PersonalizationProfile) ([]*models.Task, error) {
	daysUntil, err := DaysUntilRace(race.Date)
	if err != nil {
		return nil, err
	}

	maxSortOrder := 0
	for _, t := range existing {
		if t.SortOrder > maxSortOrder {
			maxSortOrder = t.SortOrder
		}
	}

	var toAdd []*models.Task
	for _, group := range personalizationTasks {
		enabled := group.Flag.enabled(profile)
		for _, def := range group.Tasks {
			match := findByTitle(existing, def.Title)
			switch {
			case enabled && match == nil:
				maxSortOrder++
				task := newTask(def, race.ID, daysUntil, maxSortOrder, false)
				toAdd = append(toAdd, task)
			case !enabled && match != nil:
				match.IsHidden = true
			case enabled && match.IsHidden:
				match.IsHidden = false
			}
		}
	}

	return append(existing, toAdd...), nil
}

// TasksDueNow partitions visible, non-terminal tasks into overdue, due-now
// and upcoming buckets by comparing each task's milestone to the current one.
// Input order is preserved within each bucket.
func TasksDueNow(tasks []*models.Task, daysUntil int) DuePartition {
	currentIdx := MilestoneIndex(CurrentMilestone(daysUntil))

	part := DuePartition{
		Overdue:  []*models.Task{},
		DueNow:   []*models.Task{},
		Upcoming: []*models.Task{},
	}
	for _, t := range tasks {
		if t.IsHidden || t.Status.Terminal() {
			continue
		}
		switch idx := MilestoneIndex(t.Milestone); {
		case idx < currentIdx:
			part.Overdue = append(part.Overdue, t)
		case idx == currentIdx:
			part.DueNow = append(part.DueNow, t)
		default:
			part.Upcoming = append(part.Upcoming, t)
		}
	}
	return part
}

// CalculateProgress counts visible tasks and those complete (DONE or
// SKIPPED). Percentage is rounded to the nearest integer, zero for an empty
// checklist.
func CalculateProgress(tasks []*models.Task) Progress {
	var p Progress
	for _, t := range tasks {
		if t.IsHidden {
			continue
		}
		p.Total++
		if t.Status.Terminal() {
			p.Done++
		}
	}
	if p.Total > 0 {
		p.Percentage = (p.Done*100 + p.Total/2) / p.Total
	}
	return p
}

// DuplicateRace copies a race and its checklist onto a new date. Task
// statuses reset to NOT_STARTED, sort order collapses to input-array
// position, and each task's milestone is re-rolled forward for the new date.
func DuplicateRace(src *models.Race, srcTasks []*models.Task, newName, newDate string) (*models.Race, []*models.Task, error) {
	newDaysUntil, err := DaysUntilRace(newDate)
	if err != nil {
		return nil, nil, err
	}

	now := timeNow().UTC().Format(time.RFC3339)
	sourceID := src.ID

	race := &models.Race{
		ID:                newID(),
		Name:              newName,
		Distance:          src.Distance,
		Date:              newDate,
		StartTime:         cloneString(src.StartTime),
		City:              cloneString(src.City),
		Country:           cloneString(src.Country),
		IsTravelRace:      src.IsTravelRace,
		CreatedFromRaceID: &sourceID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	tasks := make([]*models.Task, len(srcTasks))
	for i, st := range srcTasks {
		task := *st
		task.ID = newID()
		task.RaceID = race.ID
		task.Description = cloneString(st.Description)
		task.Milestone = AdjustedMilestone(st.Milestone, newDaysUntil)
		task.Status = models.StatusNotStarted
		task.SortOrder = i
		tasks[i] = &task
	}

	return race, tasks, nil
}

// DefaultProfile infers starting personalization toggles from the race:
// travel races default the travel flags on, and anything longer than a 10K
// assumes gels.
func DefaultProfile(race *models.Race) *models.PersonalizationProfile {
	return &models.PersonalizationProfile{
		RaceID:              race.ID,
		InternationalTravel: race.IsTravelRace,
		StaysInHotel:        race.IsTravelRace,
		UsesGels:            race.Distance != models.Distance10K,
	}
}

func newTask(def taskDef, raceID string, daysUntil, sortOrder int, isDefault bool) *models.Task {
	var desc *string
	if def.Description != "" {
		d := def.Description
		desc = &d
	}
	return &models.Task{
		ID:          newID(),
		RaceID:      raceID,
		Title:       def.Title,
		Description: desc,
		Category:    def.Category,
		Milestone:   AdjustedMilestone(def.Milestone, daysUntil),
		Status:      models.StatusNotStarted,
		SortOrder:   sortOrder,
		IsDefault:   isDefault,
		IsHidden:    false,
	}
}

func findByTitle(tasks []*models.Task, title string) *models.Task {
	for _, t := range tasks {
		if t.Title == title {
			return t
		}
	}
	return nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
