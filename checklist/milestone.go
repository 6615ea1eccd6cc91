// Package checklist is the race-preparation checklist engine: a static task
// catalog plus pure functions that generate checklists, reconcile
// personalization toggles, and classify tasks against the milestone calendar.
// Persistence belongs to the caller; nothing here touches the database.
package checklist

import (
	"fmt"
	"math"
	"time"

	"github.com/padraicbc/raceprep/models"
)

// MilestoneOrder lists the milestones earliest-to-latest relative to race day.
var MilestoneOrder = []models.Milestone{
	models.MilestoneASAP6Mo,
	models.MilestoneMo3,
	models.MilestoneMo1,
	models.MilestoneD7,
	models.MilestoneD1,
	models.MilestoneRaceMorning,
}

// milestoneDays holds each milestone's days-before-race threshold. Thresholds
// are strictly decreasing along MilestoneOrder.
var milestoneDays = map[models.Milestone]int{
	models.MilestoneASAP6Mo:     180,
	models.MilestoneMo3:         90,
	models.MilestoneMo1:         30,
	models.MilestoneD7:          7,
	models.MilestoneD1:          1,
	models.MilestoneRaceMorning: 0,
}

// timeNow is swapped out by tests that need a fixed clock.
var timeNow = time.Now

// DaysBefore returns the milestone's days-before-race threshold. Unknown
// milestone values are a contract violation and panic.
func DaysBefore(m models.Milestone) int {
	days, ok := milestoneDays[m]
	if !ok {
		panic(fmt.Sprintf("checklist: unknown milestone %q", m))
	}
	return days
}

// MilestoneIndex returns m's position in MilestoneOrder. Unknown milestone
// values panic.
func MilestoneIndex(m models.Milestone) int {
	for i, ms := range MilestoneOrder {
		if ms == m {
			return i
		}
	}
	panic(fmt.Sprintf("checklist: unknown milestone %q", m))
}

// DaysUntilRace returns the whole calendar days between today's local
// midnight and the race date's local midnight, ceiling-rounded toward the
// race. Positive means the race is in the future, zero means today.
func DaysUntilRace(raceDate string) (int, error) {
	race, err := time.ParseInLocation("2006-01-02", raceDate, time.Local)
	if err != nil {
		return 0, fmt.Errorf("parsing race date %q: %w", raceDate, err)
	}
	now := timeNow()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	// Ceiling keeps the day count correct across DST transitions.
	return int(math.Ceil(race.Sub(today).Hours() / 24)), nil
}

// CurrentMilestone returns the latest milestone whose window has already
// opened for the given days-until-race.
func CurrentMilestone(daysUntil int) models.Milestone {
	for _, m := range MilestoneOrder {
		if daysUntil >= milestoneDays[m] {
			return m
		}
	}
	return models.MilestoneRaceMorning
}

// AdjustedMilestone rolls a task's milestone forward when its natural window
// has already passed for the given days-until-race. A task due "3 months out"
// must still land somewhere actionable when the race is set up only days in
// advance, never vanish.
func AdjustedMilestone(original models.Milestone, daysUntil int) models.Milestone {
	if daysUntil >= DaysBefore(original) {
		return original
	}
	return CurrentMilestone(daysUntil)
}
