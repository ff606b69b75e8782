package plan

import (
	"fmt"
	"strings"
	"time"

	"dayplan-cli/internal/model"
)

const DateLayout = "2006-01-02"

// Fixed plan window. End is race day.
const (
	StartDate = "2025-09-18"
	EndDate   = "2025-11-23"
)

type Range struct {
	Start time.Time
	End   time.Time
}

func DefaultRange() Range {
	start, _ := ParseDate(StartDate)
	end, _ := ParseDate(EndDate)
	return Range{Start: start, End: end}
}

// NewRange parses two YYYY-MM-DD dates into a Range.
func NewRange(start, end string) (Range, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Range{}, err
	}
	if e.Before(s) {
		return Range{}, fmt.Errorf("invalid range: end %s is before start %s", end, start)
	}
	return Range{Start: s, End: e}, nil
}

// Days is the number of dates covered (inclusive).
func (r Range) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return DaysBetween(r.Start, r.End) + 1
}

func (r Range) Contains(d time.Time) bool {
	d = truncateDay(d)
	return !d.Before(r.Start) && !d.After(r.End)
}

// ParseDate parses YYYY-MM-DD as a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date: %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween counts whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(truncateDay(b).Sub(truncateDay(a)).Hours() / 24)
}

// WeekOf returns the 1-based plan week containing d.
func WeekOf(start, d time.Time) int {
	return DaysBetween(start, d)/7 + 1
}

// PhaseOf maps a week number onto its training phase: 1-3, 4-6, 7-8, 9+.
func PhaseOf(week int) model.Phase {
	switch {
	case week <= 3:
		return model.PhaseBase
	case week <= 6:
		return model.PhaseBuild
	case week <= 8:
		return model.PhasePeak
	default:
		return model.PhaseTaper
	}
}

// Weekday returns Monday=0 ... Sunday=6.
func Weekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// Generate builds one DayPlan per date in r, in date order.
func Generate(r Range) []model.DayPlan {
	n := r.Days()
	out := make([]model.DayPlan, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, GenerateDay(r, r.Start.AddDate(0, 0, i)))
	}
	return out
}

// GenerateDay builds the DayPlan for a single date of r.
func GenerateDay(r Range, d time.Time) model.DayPlan {
	d = truncateDay(d)
	date := FormatDate(d)
	week := WeekOf(r.Start, d)
	phase := PhaseOf(week)
	dow := Weekday(d)

	groups := map[model.Category][]entry{}
	bike := bikeTasks(phase, week, dow)
	for _, c := range model.Categories() {
		switch c {
		case model.CategoryGym:
			groups[c] = gymTasks(phase, dow)
		case model.CategoryBike:
			groups[c] = bike
		case model.CategoryMob:
			groups[c] = mobilityTasks()
		case model.CategoryMicro:
			groups[c] = microTasks()
		case model.CategoryHand:
			groups[c] = handTasks(dow)
		case model.CategoryNutr:
			groups[c] = nutritionTasks(phase, dow, isLongRide(bike))
		case model.CategorySleep:
			groups[c] = sleepTasks()
		default:
			panic(fmt.Sprintf("plan: unhandled category %q", string(c)))
		}
	}

	tasks := []model.Task{}
	seq := 0
	for _, c := range model.Categories() {
		for _, e := range groups[c] {
			tasks = append(tasks, model.Task{
				ID:       fmt.Sprintf("%s_%s_%d", date, c, seq),
				Label:    e.label,
				Category: c,
				Tips:     append([]string{}, e.tips...),
			})
			seq++
		}
	}

	if d.Equal(truncateDay(r.End)) {
		kept := tasks[:0]
		for _, t := range tasks {
			if t.Category != model.CategoryGym {
				kept = append(kept, t)
			}
		}
		tasks = kept
	}

	return model.DayPlan{
		Date:  date,
		Phase: phase,
		Week:  week,
		Tasks: tasks,
	}
}

func isLongRide(bike []entry) bool {
	for _, e := range bike {
		if strings.Contains(strings.ToLower(e.label), "long") {
			return true
		}
	}
	return false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
