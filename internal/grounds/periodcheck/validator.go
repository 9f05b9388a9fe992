// Package periodcheck validates the temporal coverage of one owner+category
// timeline: gaps from the anchor date, maximal overlap regions, and freshness
// flags. Findings are data for the caller to act on, not errors; nothing here
// aborts a build.
package periodcheck

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"bidrag/internal/domain"
)

// TimelinePeriod is one period under validation together with the value active
// during it. GapExempt periods (e.g. income kinds that tolerate gaps by
// design) are skipped by gap detection but still participate in overlap
// detection.
type TimelinePeriod struct {
	Period    domain.Period
	Value     string
	GapExempt bool
}

// Gap is an uncovered interval. To == nil means the gap runs open-ended from
// From; interior gaps end the day coverage resumes (exclusive).
type Gap struct {
	From time.Time  `json:"fom"`
	To   *time.Time `json:"tom,omitempty"`
}

// Overlap is one maximal region during which the same set of periods is
// simultaneously active. A triple overlap yields one region, not three
// pairwise ones.
type Overlap struct {
	Period domain.Period `json:"periode"`
	Values []string      `json:"verdier"`
}

// Result is the structured validation outcome.
type Result struct {
	Gaps            []Gap     `json:"hullIPerioder,omitempty"`
	Overlaps        []Overlap `json:"overlappendePerioder,omitempty"`
	NoCurrentPeriod bool      `json:"ingenLøpendePeriode"`
	FutureStart     bool      `json:"fremtidigPeriode"`
	NoPeriods       bool      `json:"manglerPerioder"`
}

// HasError reports whether any finding requires case-worker attention.
func (r Result) HasError() bool {
	return len(r.Gaps) > 0 || len(r.Overlaps) > 0 || r.NoCurrentPeriod || r.FutureStart || r.NoPeriods
}

// Validate checks one timeline against the anchor ("must be covered from")
// date. today is the request-scoped clock reading.
func Validate(periods []TimelinePeriod, anchor, today time.Time) Result {
	anchor = domain.DateOf(anchor)
	today = domain.DateOf(today)

	res := Result{NoPeriods: len(periods) == 0}
	if res.NoPeriods {
		return res
	}

	res.NoCurrentPeriod = !anyOpen(periods)
	res.Overlaps = findOverlaps(periods)

	// Freshness is judged on the full set: an all-exempt timeline that only
	// starts in the future is still not in force yet.
	res.FutureStart = earliestStart(periods).After(today)

	covering := make([]TimelinePeriod, 0, len(periods))
	for _, p := range periods {
		if !p.GapExempt {
			covering = append(covering, p)
		}
	}
	if len(covering) == 0 {
		return res
	}

	sort.SliceStable(covering, func(i, j int) bool {
		return covering[i].Period.From.Before(covering[j].Period.From)
	})

	// When nothing is in force yet the walk reports the span from the anchor
	// as a synthetic gap.
	res.Gaps = findGaps(covering, anchor, today)
	return res
}

func earliestStart(periods []TimelinePeriod) time.Time {
	earliest := periods[0].Period.From
	for _, p := range periods[1:] {
		if p.Period.From.Before(earliest) {
			earliest = p.Period.From
		}
	}
	return earliest
}

func anyOpen(periods []TimelinePeriod) bool {
	for _, p := range periods {
		if p.Period.To == nil {
			return true
		}
	}
	return false
}

// findGaps walks the sorted timeline from the anchor. A period with an open
// end closes all gaps after its start but never retroactively before it.
// Interior gaps start the day after the last covered day; the trailing
// open-ended gap is reported from the last covered day itself.
func findGaps(sorted []TimelinePeriod, anchor, today time.Time) []Gap {
	var gaps []Gap

	// coveredTo is the last covered day so far; the day before the anchor
	// means nothing is covered yet.
	coveredTo := anchor.AddDate(0, 0, -1)
	openEnded := false

	for _, p := range sorted {
		from := p.Period.From
		if from.After(coveredTo.AddDate(0, 0, 1)) {
			gapFrom := coveredTo.AddDate(0, 0, 1)
			gapTo := from
			gaps = append(gaps, Gap{From: gapFrom, To: &gapTo})
		}
		if p.Period.To == nil {
			openEnded = true
			break
		}
		if p.Period.To.After(coveredTo) {
			coveredTo = *p.Period.To
		}
	}

	if !openEnded && coveredTo.Before(today) {
		// Timeline stops before the present: open gap from the last covered
		// day.
		gaps = append(gaps, Gap{From: coveredTo})
	}
	return gaps
}

// interval is one elementary slice of the sweep: the span between two
// adjacent period boundaries and the periods active throughout it.
type interval struct {
	from   time.Time
	to     *time.Time // exclusive; nil = unbounded
	active []int
}

// findOverlaps sweeps elementary intervals between period boundaries. Every
// distinct set of simultaneously active periods yields one region, expanded
// to the maximal contiguous span throughout which that whole set stays
// active.
func findOverlaps(periods []TimelinePeriod) []Overlap {
	intervals := elementaryIntervals(periods)

	var overlaps []Overlap
	seen := make(map[string]bool)
	for i, iv := range intervals {
		if len(iv.active) < 2 {
			continue
		}
		sig := iv.active

		// Expand to the maximal contiguous span where sig stays active.
		start, end := i, i
		for start > 0 && containsAll(intervals[start-1].active, sig) {
			start--
		}
		for end+1 < len(intervals) && containsAll(intervals[end+1].active, sig) {
			end++
		}

		region := domain.Period{From: intervals[start].from}
		if exclEnd := intervals[end].to; exclEnd != nil {
			incl := exclEnd.AddDate(0, 0, -1)
			region.To = &incl
		}

		key := sigKey(sig) + "@" + region.From.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true

		overlaps = append(overlaps, Overlap{
			Period: region,
			Values: distinctValues(periods, sig),
		})
	}
	return overlaps
}

// elementaryIntervals partitions the covered range at every period start and
// every day-after-period-end. Intervals with no active period are kept: they
// stop span expansion across breaks in activity.
func elementaryIntervals(periods []TimelinePeriod) []interval {
	boundarySet := make(map[time.Time]struct{})
	unbounded := false
	for _, p := range periods {
		boundarySet[p.Period.From] = struct{}{}
		if end, ok := p.Period.End(); ok {
			boundarySet[end] = struct{}{}
		} else {
			unbounded = true
		}
	}
	boundaries := make([]time.Time, 0, len(boundarySet))
	for b := range boundarySet {
		boundaries = append(boundaries, b)
	}
	sort.Slice(boundaries, func(i, j int) bool { return boundaries[i].Before(boundaries[j]) })

	var intervals []interval
	for i := range boundaries {
		from := boundaries[i]
		var to *time.Time
		if i+1 < len(boundaries) {
			to = &boundaries[i+1]
		} else if !unbounded {
			break
		}
		iv := interval{from: from, to: to}
		for idx, p := range periods {
			if p.Period.ContainsDay(from) {
				iv.active = append(iv.active, idx)
			}
		}
		intervals = append(intervals, iv)
	}
	return intervals
}

func containsAll(active, sig []int) bool {
	set := make(map[int]bool, len(active))
	for _, a := range active {
		set[a] = true
	}
	for _, s := range sig {
		if !set[s] {
			return false
		}
	}
	return true
}

func sigKey(sig []int) string {
	parts := make([]string, len(sig))
	for i, s := range sig {
		parts[i] = fmt.Sprint(s)
	}
	return strings.Join(parts, ",")
}

func distinctValues(periods []TimelinePeriod, sig []int) []string {
	var values []string
	seen := make(map[string]bool)
	for _, idx := range sig {
		v := periods[idx].Value
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}
