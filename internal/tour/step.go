package tour

import (
	"fmt"
	"time"

	"github.com/v7h-lab/Nomen-origins/internal/model"
)

// Step indexes with special meaning.
const (
	// IntroStep is the introduction that precedes the first waypoint.
	IntroStep = -1
	// NoStep means no tour is running.
	NoStep = -2
)

// DefaultDwell is the minimum time a waypoint stays active. A longer dwell
// can be configured but not a shorter one.
const DefaultDwell = 8 * time.Second

type step struct {
	index int
	text  string
	dwell time.Duration
}

// stepFor builds the narration for index. The introduction has no dwell
// floor.
func stepFor(r *model.EtymologyResult, index int, dwell time.Duration) step {
	if index == IntroStep {
		return step{
			index: IntroStep,
			text:  IntroText(r),
		}
	}
	loc := r.Locations[index]
	return step{
		index: index,
		text:  fmt.Sprintf("%s. %s", loc.Name, loc.Significance),
		dwell: dwell,
	}
}

// IntroText is the narration spoken before the first waypoint.
func IntroText(r *model.EtymologyResult) string {
	return fmt.Sprintf("%s. %s. Here is its journey.", r.Name, r.Meaning)
}
