package plan

import (
	"fmt"

	"dayplan-cli/internal/model"
)

type entry struct {
	label string
	tips  []string
}

// Weekday indexes (Monday=0).
const (
	mon = iota
	tue
	wed
	thu
	fri
	sat
	sun
)

var gymTable = map[model.Phase]map[int][]entry{
	model.PhaseBase: {
		mon: {
			{"Back squat 3x8 @ RPE 7", []string{"Brace before each descent", "Stop two reps shy of failure"}},
			{"Romanian deadlift 3x10", []string{"Hinge from the hips, soft knees"}},
			{"Plank 3x45s", nil},
		},
		wed: {
			{"Split squat 3x10/side", []string{"Front shin vertical"}},
			{"Pull-ups 3xmax", []string{"Full hang at the bottom"}},
			{"Side plank 3x30s/side", nil},
		},
		fri: {
			{"Goblet squat 2x12", nil},
			{"Single-leg RDL 2x10/side", []string{"Slow eccentric, 3 seconds"}},
		},
	},
	model.PhaseBuild: {
		mon: {
			{"Back squat 4x6 @ RPE 8", []string{"Rest 2-3 min between sets"}},
			{"Hip thrust 3x8", []string{"Pause one second at lockout"}},
			{"Dead bug 3x10", nil},
		},
		wed: {
			{"Step-ups 3x8/side", []string{"Drive through the heel"}},
			{"Bent-over row 3x8", nil},
			{"Pallof press 3x12", nil},
		},
		fri: {
			{"Box jumps 4x5", []string{"Step down, never jump down"}},
			{"Single-leg RDL 3x8/side", nil},
		},
	},
	model.PhasePeak: {
		mon: {
			{"Back squat 3x4 @ RPE 8", []string{"Bar speed over load"}},
			{"Jump squats 3x6", nil},
		},
		wed: {
			{"Step-ups 2x8/side", nil},
			{"Pull-ups 2xmax", nil},
		},
		fri: {
			{"Box jumps 3x4", nil},
		},
	},
	model.PhaseTaper: {
		mon: {
			{"Back squat 2x3 light", []string{"Keep it crisp, leave the gym fresh"}},
		},
		wed: {
			{"Activation circuit 15 min", []string{"Glute bridges, band walks, dead bugs"}},
		},
	},
}

func gymTasks(phase model.Phase, dow int) []entry {
	return gymTable[phase][dow]
}

// Long ride minutes per week; the weekend long ride grows through BASE/BUILD,
// holds in PEAK and drops in TAPER.
func longRideMinutes(phase model.Phase, week int) int {
	switch phase {
	case model.PhaseBase:
		return 120 + 15*(week-1)
	case model.PhaseBuild:
		return 165 + 15*(week-4)
	case model.PhasePeak:
		return 240
	case model.PhaseTaper:
		return 90
	default:
		panic(fmt.Sprintf("plan: unhandled phase %q", string(phase)))
	}
}

func bikeTasks(phase model.Phase, week, dow int) []entry {
	switch dow {
	case tue:
		switch phase {
		case model.PhaseBase:
			return []entry{{"Z2 ride 60 min + 3x8 min sweet spot", []string{"88-93% FTP", "Cadence 85-95"}}}
		case model.PhaseBuild:
			return []entry{{"VO2 intervals 5x4 min", []string{"106-120% FTP", "Equal recovery"}}}
		case model.PhasePeak:
			return []entry{{"Race-pace intervals 3x12 min", []string{"Practise race fueling"}}}
		default:
			return []entry{{"Openers 45 min with 4x1 min", nil}}
		}
	case wed:
		if phase == model.PhaseBase || phase == model.PhaseBuild {
			return []entry{{"Commute spin 30 min Z1-Z2", nil}}
		}
		return nil
	case thu:
		switch phase {
		case model.PhaseTaper:
			return []entry{{"Easy spin 40 min", nil}}
		default:
			mins := 20 + 5*(week-1)
			if mins > 50 {
				mins = 50
			}
			return []entry{{fmt.Sprintf("Tempo %d min in Z3", mins), []string{"Steady, conversational but focused"}}}
		}
	case sat:
		return []entry{{
			fmt.Sprintf("Long ride %d min Z2", longRideMinutes(phase, week)),
			[]string{"Eat every 20 min", "Finish with 10 min easy"},
		}}
	case sun:
		return []entry{{"Recovery spin 45 min Z1", []string{"Keep HR under Z2 ceiling"}}}
	default:
		return nil
	}
}

var mobilityTable = []entry{
	{"Hip & thoracic mobility 10 min", []string{"90/90 switches", "Open books", "Couch stretch"}},
}

func mobilityTasks() []entry { return mobilityTable }

var microTable = []entry{
	{"Micro-breaks: stand and move every 45 min", []string{"Log count in microDone"}},
}

func microTasks() []entry { return microTable }

var handTable = map[int][]entry{
	mon: {{"Grip trainer 3x20", nil}},
	tue: {{"Finger extensor bands 3x25", nil}},
	wed: {{"Wrist mobility 5 min", []string{"Flexion/extension circles"}}},
	thu: {{"Grip trainer 3x20", nil}},
	fri: {{"Finger extensor bands 3x25", nil}},
	sat: {{"Wrist mobility 5 min", nil}},
	sun: {{"Wrist mobility 5 min", nil}},
}

func handTasks(dow int) []entry {
	return handTable[dow]
}

func nutritionTasks(phase model.Phase, dow int, longRide bool) []entry {
	out := []entry{}
	if longRide {
		out = append(out,
			entry{"On-bike fueling 60-90 g carbs/h", []string{"Mix drink and solids", "Start eating in the first 30 min"}},
			entry{"Recovery meal within 60 min", []string{"Carbs plus 30 g protein"}},
		)
	} else {
		out = append(out, entry{"Protein 1.8 g/kg across 4 meals", nil})
	}
	if phase == model.PhasePeak || phase == model.PhaseTaper {
		if dow == fri {
			out = append(out, entry{"Carb-load dinner 8 g/kg", []string{"Low fibre, familiar foods"}})
		}
		if longRide {
			out = append(out, entry{"Practise race-day breakfast", nil})
		}
	}
	out = append(out, entry{"Hydration 35 ml/kg", nil})
	return out
}

var sleepTable = []entry{
	{"Lights out by 22:30", []string{"No screens 30 min before", "Room at 18 C"}},
}

func sleepTasks() []entry { return sleepTable }
