package inventory

import (
	"context"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// Report describes where the equipment registry and the employee directory
// disagree. It is informational; nothing is repaired.
type Report struct {
	// Orphaned lists equipment whose label resolves to no live employee.
	Orphaned []model.Equipment `json:"orphaned" yaml:"orphaned"`
	// Ambiguous maps labels shared by several employees to their ids.
	Ambiguous map[string][]int64 `json:"ambiguous" yaml:"ambiguous"`
}

// OK reports whether no inconsistencies were found.
func (r *Report) OK() bool {
	return len(r.Orphaned) == 0 && len(r.Ambiguous) == 0
}

// CheckConsistency compares assignee labels against the live directory.
func (s *Service) CheckConsistency(ctx context.Context) (*Report, error) {
	employees, err := store.ListEmployees(ctx, s.Employees)
	if err != nil {
		return nil, err
	}

	byLabel := make(map[string][]int64, len(employees))
	for _, e := range employees {
		byLabel[e.Label()] = append(byLabel[e.Label()], e.ID)
	}

	report := &Report{
		Orphaned:  []model.Equipment{},
		Ambiguous: map[string][]int64{},
	}
	for label, ids := range byLabel {
		if len(ids) > 1 {
			report.Ambiguous[label] = ids
		}
	}

	labels, err := store.ListAssignedLabels(ctx, s.Equipment)
	if err != nil {
		return nil, err
	}
	for _, l := range labels {
		if _, ok := byLabel[l.Label]; ok {
			continue
		}
		items, err := store.ListEquipmentAssignedTo(ctx, s.Equipment, l.Label)
		if err != nil {
			return nil, err
		}
		report.Orphaned = append(report.Orphaned, items...)
	}

	return report, nil
}
