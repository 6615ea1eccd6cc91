package models

// Milestone is a named time bucket relative to race day. The calendar logic
// (ordering, day thresholds, roll-forward) lives in the checklist package;
// this is only the closed value set shared with storage.
type Milestone string

const (
	MilestoneASAP6Mo     Milestone = "ASAP_6MO"
	MilestoneMo3         Milestone = "MO_3"
	MilestoneMo1         Milestone = "MO_1"
	MilestoneD7          Milestone = "D_7"
	MilestoneD1          Milestone = "D_1"
	MilestoneRaceMorning Milestone = "RACE_MORNING"
)

// Valid reports whether m is a known milestone.
func (m Milestone) Valid() bool {
	switch m {
	case MilestoneASAP6Mo, MilestoneMo3, MilestoneMo1, MilestoneD7, MilestoneD1, MilestoneRaceMorning:
		return true
	}
	return false
}
