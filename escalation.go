package quotesheet

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownProfile is returned when parsing an unknown escalation profile name.
var ErrUnknownProfile = errors.New("unknown escalation profile")

// Profile selects how hard the fetchers try to get an intraday price.
type Profile int

const (
	// Normal walks 1m, 5m, 60m then 1d bars.
	Normal Profile = iota
	// Off only looks at hourly then daily bars.
	Off
	// Aggressive walks every intraday interval down to daily bars.
	Aggressive
)

// Bar intervals.
const (
	Interval1m  = "1m"
	Interval2m  = "2m"
	Interval5m  = "5m"
	Interval15m = "15m"
	Interval30m = "30m"
	Interval60m = "60m"
	Interval1d  = "1d"
)

// Step is a rung of an escalation ladder: a bar interval and the lookback
// range to request it for.
type Step struct {
	Interval string // bar granularity, also the label reported as a price source
	Range    string // lookback window
}

// IsDaily reports whether the step requests daily bars.
func (s Step) IsDaily() bool { return s.Interval == Interval1d }

func (s Step) String() string { return s.Interval + "/" + s.Range }

// ladders is the escalation policy table. Each ladder is ordered from the
// finest to the coarsest granularity.
var ladders = map[Profile][]Step{
	Off: {
		{Interval60m, "7d"},
		{Interval1d, "10d"},
	},
	Normal: {
		{Interval1m, "5d"},
		{Interval5m, "10d"},
		{Interval60m, "60d"},
		{Interval1d, "10d"},
	},
	Aggressive: {
		{Interval1m, "5d"},
		{Interval2m, "10d"},
		{Interval5m, "10d"},
		{Interval15m, "30d"},
		{Interval30m, "30d"},
		{Interval60m, "60d"},
		{Interval1d, "10d"},
	},
}

// Ladder returns a copy of the profile's escalation ladder.
// Unknown profiles get the Normal ladder.
func (p Profile) Ladder() []Step {
	l, ok := ladders[p]
	if !ok {
		l = ladders[Normal]
	}
	return append([]Step(nil), l...)
}

func (p Profile) String() string {
	switch p {
	case Off:
		return "off"
	case Normal:
		return "normal"
	case Aggressive:
		return "aggressive"
	default:
		return fmt.Sprintf("Profile(%d)", int(p))
	}
}

// ParseProfile parses "off", "normal" or "aggressive" (case-insensitive).
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off":
		return Off, nil
	case "normal", "":
		return Normal, nil
	case "aggressive":
		return Aggressive, nil
	default:
		return Normal, fmt.Errorf("%w %q: want off, normal or aggressive", ErrUnknownProfile, s)
	}
}

// Set implements flag.Value.
func (p *Profile) Set(s string) error {
	v, err := ParseProfile(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// openStates are the market states where intraday bars may hold a fresher
// price than the last known one. The empty state stands for unknown.
var openStates = map[string]bool{
	"REGULAR":  true,
	"PRE":      true,
	"POST":     true,
	"EXTENDED": true,
	"":         true,
}

// MarketMayBeOpen reports whether a market state reported by the market data
// provider means the instrument may still be trading.
func MarketMayBeOpen(state string) bool {
	return openStates[strings.ToUpper(strings.TrimSpace(state))]
}
