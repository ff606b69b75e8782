package model

import (
	"fmt"
	"strconv"
	"strings"
)

type MetricField string

const (
	MetricSleepHours  MetricField = "sleepHours"
	MetricHRRest      MetricField = "hrRest"
	MetricBodyMass    MetricField = "bodyMass"
	MetricNapsNote    MetricField = "napsNote"
	MetricMicroDone   MetricField = "microDone"
	MetricMicroTarget MetricField = "microTarget"
)

func MetricFields() []MetricField {
	return []MetricField{
		MetricSleepHours,
		MetricHRRest,
		MetricBodyMass,
		MetricNapsNote,
		MetricMicroDone,
		MetricMicroTarget,
	}
}

func ParseMetricField(s string) (MetricField, error) {
	s = strings.TrimSpace(s)
	for _, f := range MetricFields() {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	names := make([]string, 0, len(MetricFields()))
	for _, f := range MetricFields() {
		names = append(names, string(f))
	}
	return "", fmt.Errorf("invalid metric field: %q (expected one of %s)", s, strings.Join(names, "|"))
}

// ApplyMetric parses raw for field and writes it into d. An empty raw value clears
// the field. On parse failure d is left untouched.
func ApplyMetric(d *DayPlan, field MetricField, raw string) error {
	raw = strings.TrimSpace(raw)
	switch field {
	case MetricSleepHours:
		v, err := parseOptFloat(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		d.SleepHours = v
	case MetricHRRest:
		v, err := parseOptInt(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		d.HRRest = v
	case MetricBodyMass:
		v, err := parseOptFloat(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		d.BodyMass = v
	case MetricNapsNote:
		d.NapsNote = raw
	case MetricMicroDone:
		v, err := parseOptInt(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		d.MicroDone = v
	case MetricMicroTarget:
		v, err := parseOptInt(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		d.MicroTarget = v
	default:
		return fmt.Errorf("invalid metric field: %q", string(field))
	}
	return nil
}

func parseOptFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return nil, fmt.Errorf("expected a number, got %q", raw)
	}
	return &v, nil
}

func parseOptInt(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("expected an integer, got %q", raw)
	}
	return &v, nil
}
