// Package diff reconciles a freshly fetched grounds generation against the
// currently active one. It reads both sets and mutates neither; activation of
// the fresh generation is a separate, reviewed step.
package diff

import (
	"sort"

	"bidrag/internal/domain"
)

type groupKey struct {
	owner    string
	category domain.Category
}

// Reconcile compares the officially sourced, period-bearing raw categories of
// the two generations, grouped by (ownerReference, category). A group whose
// period lists differ by bounds or value yields one report entry; a group
// present only in the active set is reported with an empty NewPeriods list.
// An empty report means the register data is unchanged since activation.
func Reconcile(active, fresh domain.GroundsSet) (domain.ChangeReport, error) {
	activeGroups, activeOrder, err := groupPeriods(active)
	if err != nil {
		return domain.ChangeReport{}, err
	}
	freshGroups, freshOrder, err := groupPeriods(fresh)
	if err != nil {
		return domain.ChangeReport{}, err
	}

	var report domain.ChangeReport

	for _, key := range freshOrder {
		newPeriods := freshGroups[key]
		activePeriods := activeGroups[key]
		if domain.EqualPeriodValues(activePeriods, newPeriods) {
			continue
		}
		report.Entries = append(report.Entries, domain.ChangeEntry{
			Category:       key.category,
			OwnerReference: key.owner,
			HasChange:      true,
			NewPeriods:     newPeriods,
			ActivePeriods:  activePeriods,
		})
	}

	// Groups the register no longer reports at all.
	for _, key := range activeOrder {
		if _, stillThere := freshGroups[key]; stillThere {
			continue
		}
		report.Entries = append(report.Entries, domain.ChangeEntry{
			Category:       key.category,
			OwnerReference: key.owner,
			HasChange:      true,
			ActivePeriods:  activeGroups[key],
		})
	}

	return report, nil
}

// groupPeriods projects the reconcilable nodes of one generation into
// per-group period lists, sorted canonically so two generations fetched in
// different record order still compare equal.
func groupPeriods(set domain.GroundsSet) (map[groupKey][]domain.PeriodValue, []groupKey, error) {
	groups := make(map[groupKey][]domain.PeriodValue)
	var order []groupKey

	for _, n := range set {
		if !n.Category.IsReconcilable() || n.Source != domain.SourceOfficial {
			continue
		}
		pv, ok, err := domain.PeriodValueOf(n)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		key := groupKey{owner: n.OwnerReference, category: n.Category}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], pv)
	}

	for key := range groups {
		sortPeriodValues(groups[key])
	}
	return groups, order, nil
}

func sortPeriodValues(values []domain.PeriodValue) {
	sort.SliceStable(values, func(i, j int) bool {
		if !values[i].Period.From.Equal(values[j].Period.From) {
			return values[i].Period.From.Before(values[j].Period.From)
		}
		return values[i].Value < values[j].Value
	})
}
