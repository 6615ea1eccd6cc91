package models

import "github.com/uptrace/bun"

// RaceDistance is the supported race distance set.
type RaceDistance string

const (
	Distance10K      RaceDistance = "10K"
	DistanceHalf     RaceDistance = "HALF"
	DistanceMarathon RaceDistance = "MARATHON"
)

// Valid reports whether d is one of the supported distances.
func (d RaceDistance) Valid() bool {
	switch d {
	case Distance10K, DistanceHalf, DistanceMarathon:
		return true
	}
	return false
}

// Race is a single race the user is preparing for. Dates are stored as
// YYYY-MM-DD strings, timestamps as RFC3339.
type Race struct {
	bun.BaseModel `bun:"table:races,alias:rc"`

	ID                string       `bun:"id,pk" json:"id"`
	Name              string       `bun:"name,notnull" json:"name"`
	Distance          RaceDistance `bun:"distance,notnull" json:"distance"`
	Date              string       `bun:"date,notnull" json:"date"`
	StartTime         *string      `bun:"start_time" json:"start_time,omitempty"`
	City              *string      `bun:"city" json:"city,omitempty"`
	Country           *string      `bun:"country" json:"country,omitempty"`
	IsTravelRace      bool         `bun:"is_travel_race,notnull,default:false" json:"is_travel_race"`
	CreatedFromRaceID *string      `bun:"created_from_race_id" json:"created_from_race_id,omitempty"`
	CreatedAt         string       `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt         string       `bun:"updated_at,notnull" json:"updated_at"`

	Tasks []*Task `bun:"rel:has-many,join:id=race_id" json:"-"`
}
