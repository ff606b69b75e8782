package planstate

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"io"
	"strings"

	"dayplan-cli/internal/model"
)

var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// randomSuffix returns n bytes of randomness as lowercase base32.
func randomSuffix(r io.Reader, n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return strings.ToLower(idEncoding.EncodeToString(b)), nil
}

// mintTaskID returns {date}_{CATEGORY}_{suffix}, unique among the ids in taken.
// Short suffixes are tried first and grow on repeated collisions.
func (m *Manager) mintTaskID(date string, c model.Category, taken map[string]bool) string {
	for _, n := range []int{3, 5, 8} {
		for attempt := 0; attempt < 20; attempt++ {
			suffix, err := randomSuffix(m.rand, n)
			if err != nil {
				break
			}
			id := fmt.Sprintf("%s_%s_%s", date, c, suffix)
			if !taken[id] {
				taken[id] = true
				return id
			}
		}
	}
	// Randomness exhausted or failing: fall back to a counter scoped to the day.
	for i := len(taken); ; i++ {
		id := fmt.Sprintf("%s_%s_m%d", date, c, i)
		if !taken[id] {
			taken[id] = true
			return id
		}
	}
}

func defaultRand() io.Reader { return rand.Reader }
