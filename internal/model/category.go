package model

import (
	"fmt"
	"strings"
)

// Category is a closed set. Code that branches on it must handle every value;
// the default branch of such switches is unreachable for valid data.
type Category string

const (
	CategoryGym   Category = "GYM"
	CategoryBike  Category = "BIKE"
	CategoryMob   Category = "MOB"
	CategoryMicro Category = "MICRO"
	CategoryHand  Category = "HAND"
	CategoryNutr  Category = "NUTR"
	CategorySleep Category = "SLEEP"
)

// Categories returns every category in canonical day order.
func Categories() []Category {
	return []Category{
		CategoryGym,
		CategoryBike,
		CategoryMob,
		CategoryMicro,
		CategoryHand,
		CategoryNutr,
		CategorySleep,
	}
}

func (c Category) Valid() bool {
	for _, x := range Categories() {
		if x == c {
			return true
		}
	}
	return false
}

// Title is the human label used by renderers.
func (c Category) Title() string {
	switch c {
	case CategoryGym:
		return "Gym"
	case CategoryBike:
		return "Bike"
	case CategoryMob:
		return "Mobility"
	case CategoryMicro:
		return "Micro-breaks"
	case CategoryHand:
		return "Hands"
	case CategoryNutr:
		return "Nutrition"
	case CategorySleep:
		return "Sleep"
	default:
		panic(fmt.Sprintf("model: unhandled category %q", string(c)))
	}
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("invalid category: %q (expected one of %s)", s, categoryNames())
	}
	return c, nil
}

func categoryNames() string {
	names := make([]string, 0, len(Categories()))
	for _, c := range Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, "|")
}
