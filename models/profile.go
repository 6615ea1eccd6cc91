package models

import "github.com/uptrace/bun"

// PersonalizationProfile holds the per-race toggles that add or hide
// personalization tasks. One row per race, keyed by race_id.
type PersonalizationProfile struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	RaceID              string `bun:"race_id,pk" json:"race_id"`
	InternationalTravel bool   `bun:"international_travel,notnull,default:false" json:"international_travel"`
	StaysInHotel        bool   `bun:"stays_in_hotel,notnull,default:false" json:"stays_in_hotel"`
	HeatSensitive       bool   `bun:"heat_sensitive,notnull,default:false" json:"heat_sensitive"`
	UsesGels            bool   `bun:"uses_gels,notnull,default:false" json:"uses_gels"`
	UsesHydrationPack   bool   `bun:"uses_hydration_pack,notnull,default:false" json:"uses_hydration_pack"`
	UsesHeadphones      bool   `bun:"uses_headphones,notnull,default:false" json:"uses_headphones"`
	HasDependents       bool   `bun:"has_dependents,notnull,default:false" json:"has_dependents"`
}
