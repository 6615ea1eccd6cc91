package checklist

import (
	"fmt"

	"github.com/padraicbc/raceprep/models"
)

// condition tags a template's eligibility test. A closed tag set rather than
// a closure keeps the catalog inspectable in tests.
type condition int

const (
	condAlways condition = iota
	condTravelRace
)

func (c condition) eligible(race *models.Race) bool {
	switch c {
	case condAlways:
		return true
	case condTravelRace:
		return race.IsTravelRace
	}
	panic(fmt.Sprintf("checklist: unknown condition %d", c))
}

// taskDef is a catalog template. Title doubles as the reconciliation key for
// personalization tasks, so titles must stay unique within the catalog.
type taskDef struct {
	Title       string
	Description string
	Category    models.TaskCategory
	Milestone   models.Milestone
	Condition   condition
}

// defaultTasks are instantiated for every new race, in this order.
var defaultTasks = []taskDef{
	// ASAP / 6 months
	{
		Title:       "Register for race and confirm entry",
		Description: "Complete registration, save confirmation email, and note any early bird perks.",
		Category:    models.CategoryAdmin,
		Milestone:   models.MilestoneASAP6Mo,
	},
	{
		Title:       "Review race rules",
		Description: "Check cut-off times, bag drop policy, hydration stations, headphone rules.",
		Category:    models.CategoryAdmin,
		Milestone:   models.MilestoneASAP6Mo,
	},
	{
		Title:       "Check passport validity and visa requirements",
		Description: "Ensure passport is valid for 6+ months after race date. Check visa needs.",
		Category:    models.CategoryTravel,
		Milestone:   models.MilestoneASAP6Mo,
		Condition:   condTravelRace,
	},
	{
		Title:       "Note early start time and plan heat strategy",
		Description: "SEA races often start at 4-5am. Plan hydration, salt tabs, and cooling gear.",
		Category:    models.CategoryNutrition,
		Milestone:   models.MilestoneASAP6Mo,
	},
	// 3 months
	{
		Title:       "Book flights and accommodation",
		Description: "Prefer hotels close to start/finish or with good transport links.",
		Category:    models.CategoryTravel,
		Milestone:   models.MilestoneMo3,
		Condition:   condTravelRace,
	},
	{
		Title:       "Decide on race shoes and start using in long runs",
		Description: "Break in your race shoes with at least 50-80km before race day.",
		Category:    models.CategoryGear,
		Milestone:   models.MilestoneMo3,
	},
	{
		Title:       "Research typical climate for race location",
		Description: "Check historical weather data and shortlist appropriate gear options.",
		Category:    models.CategoryGear,
		Milestone:   models.MilestoneMo3,
	},
	// 1 month
	{
		Title:       "Confirm all bookings",
		Description: "Double-check time off work, hotel reservations, and transport arrangements.",
		Category:    models.CategoryTravel,
		Milestone:   models.MilestoneMo1,
		Condition:   condTravelRace,
	},
	{
		Title:       "Test race-day nutrition",
		Description: "Practice your planned breakfast and in-race fueling during training runs.",
		Category:    models.CategoryNutrition,
		Milestone:   models.MilestoneMo1,
	},
	{
		Title:       "Check race weekend schedule",
		Description: "Review expo dates, bib pickup hours, start corrals, and bag drop times.",
		Category:    models.CategoryAdmin,
		Milestone:   models.MilestoneMo1,
	},
	// 7 days
	{
		Title:       "Check 7-day weather forecast",
		Description: "Refine your gear list based on expected conditions.",
		Category:    models.CategoryGear,
		Milestone:   models.MilestoneD7,
	},
	{
		Title:       "Prepare complete packing list",
		Description: "Shoes, socks, kit, bib belt, hat/visor, anti-chafe, gels, watch, chargers, post-race clothes.",
		Category:    models.CategoryGear,
		Milestone:   models.MilestoneD7,
	},
	{
		Title:       "Confirm expo and bib pickup details",
		Description: "Note location, opening hours, and what documents you need.",
		Category:    models.CategoryAdmin,
		Milestone:   models.MilestoneD7,
	},
	{
		Title:       "Plan transport to start line",
		Description: "Include buffer time for road closures and crowds.",
		Category:    models.CategoryTravel,
		Milestone:   models.MilestoneD7,
	},
	// Day before
	{
		Title:       "Lay out full race kit",
		Description: "Pin bib if required. Double-check everything is ready.",
		Category:    models.CategoryGear,
		Milestone:   models.MilestoneD1,
	},
	{
		Title:       "Pack race bag and post-race clothes",
		Description: "Include warm layers, flip flops, and any recovery items.",
		Category:    models.CategoryGear,
		Milestone:   models.MilestoneD1,
	},
	{
		Title:       "Charge all devices",
		Description: "Watch, phone, headphones. Pack power bank.",
		Category:    models.CategoryPersonal,
		Milestone:   models.MilestoneD1,
	},
	{
		Title:       "Set alarms and confirm breakfast timing",
		Description: "Set primary and backup alarms. Plan to eat 2-3 hours before start.",
		Category:    models.CategoryPersonal,
		Milestone:   models.MilestoneD1,
	},
	// Race morning
	{
		Title:       "Morning routine: eat, hydrate, prepare",
		Description: "Breakfast, hydration, toilet, anti-chafe, sunscreen if needed.",
		Category:    models.CategoryNutrition,
		Milestone:   models.MilestoneRaceMorning,
	},
	{
		Title:       "Final kit check",
		Description: "Kit, gels, bottle, transit card, room key, cash/card.",
		Category:    models.CategoryGear,
		Milestone:   models.MilestoneRaceMorning,
	},
	{
		Title:       "Leave for start on time",
		Description: "Confirm bag drop location and any meet-up points.",
		Category:    models.CategoryTravel,
		Milestone:   models.MilestoneRaceMorning,
	},
}

// profileFlag names one boolean on the personalization profile.
type profileFlag int

const (
	flagHasDependents profileFlag = iota
	flagInternationalTravel
	flagStaysInHotel
	flagHeatSensitive
	flagUsesGels
	flagUsesHydrationPack
	flagUsesHeadphones
)

func (f profileFlag) enabled(p *models.PersonalizationProfile) bool {
	switch f {
	case flagHasDependents:
		return p.HasDependents
	case flagInternationalTravel:
		return p.InternationalTravel
	case flagStaysInHotel:
		return p.StaysInHotel
	case flagHeatSensitive:
		return p.HeatSensitive
	case flagUsesGels:
		return p.UsesGels
	case flagUsesHydrationPack:
		return p.UsesHydrationPack
	case flagUsesHeadphones:
		return p.UsesHeadphones
	}
	panic(fmt.Sprintf("checklist: unknown profile flag %d", f))
}

type personalizationGroup struct {
	Flag  profileFlag
	Tasks []taskDef
}

// personalizationTasks map each profile flag to its extra templates. Matching
// against existing tasks is by exact title, so a user who renames one of
// these tasks breaks the link to its flag. Known limitation, kept for
// compatibility with existing data.
var personalizationTasks = []personalizationGroup{
	{
		Flag: flagHasDependents,
		Tasks: []taskDef{
			{
				Title:       "Arrange childcare or pet care for race weekend",
				Description: "Confirm arrangements well in advance.",
				Category:    models.CategoryPersonal,
				Milestone:   models.MilestoneMo1,
			},
		},
	},
	{
		Flag: flagInternationalTravel,
		Tasks: []taskDef{
			{
				Title:       "Prepare travel adapters and check roaming/eSIM",
				Description: "Ensure you can charge devices and stay connected.",
				Category:    models.CategoryTravel,
				Milestone:   models.MilestoneD7,
			},
			{
				Title:       "Check travel insurance coverage",
				Description: "Ensure medical and trip cancellation coverage.",
				Category:    models.CategoryAdmin,
				Milestone:   models.MilestoneMo1,
			},
		},
	},
	{
		Flag: flagStaysInHotel,
		Tasks: []taskDef{
			{
				Title:       "Confirm late checkout or baggage storage",
				Description: "Arrange post-race access to your belongings.",
				Category:    models.CategoryTravel,
				Milestone:   models.MilestoneD7,
			},
			{
				Title:       "Check hotel breakfast timing",
				Description: "If breakfast starts late, plan an alternative pre-race meal.",
				Category:    models.CategoryNutrition,
				Milestone:   models.MilestoneD7,
			},
		},
	},
	{
		Flag: flagHeatSensitive,
		Tasks: []taskDef{
			{
				Title:       "Add salt tabs and extra fluids to pack list",
				Description: "Consider electrolyte tablets and extra water for hot conditions.",
				Category:    models.CategoryNutrition,
				Milestone:   models.MilestoneD7,
			},
			{
				Title:       "Pack sun protection gear",
				Description: "Sunscreen, hat/visor, sunglasses.",
				Category:    models.CategoryGear,
				Milestone:   models.MilestoneD7,
			},
		},
	},
	{
		Flag: flagUsesGels,
		Tasks: []taskDef{
			{
				Title:       "Pack race gels and confirm carrying strategy",
				Description: "Belt, shorts pockets, or vest. Test in training.",
				Category:    models.CategoryNutrition,
				Milestone:   models.MilestoneD7,
			},
		},
	},
	{
		Flag: flagUsesHydrationPack,
		Tasks: []taskDef{
			{
				Title:       "Clean and prepare hydration pack",
				Description: "Check bladder/bottles, test for leaks.",
				Category:    models.CategoryGear,
				Milestone:   models.MilestoneD7,
			},
		},
	},
	{
		Flag: flagUsesHeadphones,
		Tasks: []taskDef{
			{
				Title:       "Confirm headphone rules and prepare device",
				Description: "Some races ban headphones. Check rules and prep playlist.",
				Category:    models.CategoryPersonal,
				Milestone:   models.MilestoneD1,
			},
		},
	},
}
