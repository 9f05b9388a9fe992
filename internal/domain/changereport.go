package domain

// PeriodValue is the value-comparable projection of a period-bearing fact used
// by reconciliation: period bounds plus the canonical rendering of the payload
// value. References and provenance edges are deliberately excluded so two
// generations compare by content.
type PeriodValue struct {
	Period Period `json:"periode"`
	Value  string `json:"verdi"`
}

// EqualPeriodValues compares two period lists element-wise by value.
func EqualPeriodValues(a, b []PeriodValue) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Period.Equal(b[i].Period) || a[i].Value != b[i].Value {
			return false
		}
	}
	return true
}

// ChangeEntry reports one (owner, category) group whose freshly fetched
// periods differ from the currently active ones. An entry with an empty
// NewPeriods list means the fact disappeared from the source register.
type ChangeEntry struct {
	Category       Category      `json:"type"`
	OwnerReference string        `json:"gjelderReferanse"`
	HasChange      bool          `json:"harEndring"`
	NewPeriods     []PeriodValue `json:"nyePerioder"`
	ActivePeriods  []PeriodValue `json:"aktivePerioder"`
}

// ChangeReport is the reconciliation output: the groups a case worker must
// review before activating the fresh generation. Groups with no change are not
// listed, so an empty report means the generations agree.
type ChangeReport struct {
	Entries []ChangeEntry `json:"endringer"`
}

// IsEmpty reports whether the two generations agree completely.
func (r ChangeReport) IsEmpty() bool { return len(r.Entries) == 0 }
