package repository

import (
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/certisched-api/internal/models"
)

// applyChangeset folds a changeset into a snapshot in place. Existing records keep
// their position so storage order stays stable; new ones are appended.
func applyChangeset(snap *models.GroupSnapshot, cs models.GroupChangeset) {
	snap.Technicians = upsertByID(snap.Technicians, cs.Technicians, func(t models.Technician) string { return t.ID })
	snap.Schedules = upsertByID(snap.Schedules, cs.Schedules, func(s models.CertificationSchedule) string { return s.ID })
	snap.Events = removeByID(snap.Events, cs.EventsRemoved, func(e models.AnalystEvent) string { return e.ID })
	snap.Events = upsertByID(snap.Events, cs.EventsUpserted, func(e models.AnalystEvent) string { return e.ID })
	snap.Cities = upsertByID(snap.Cities, cs.Cities, func(c models.CityGroup) string { return c.ID })
	snap.Adjustments = removeByID(snap.Adjustments, cs.AdjustmentsRemoved, func(a models.VirtualScoreAdjustment) string { return a.ID })
	snap.Adjustments = upsertByID(snap.Adjustments, cs.Adjustments, func(a models.VirtualScoreAdjustment) string { return a.ID })
	snap.SavedAt = time.Now().UTC()
}

func upsertByID[T any](current, incoming []T, id func(T) string) []T {
	if len(incoming) == 0 {
		return current
	}
	index := make(map[string]int, len(current))
	for i, item := range current {
		index[id(item)] = i
	}
	for _, item := range incoming {
		if pos, ok := index[id(item)]; ok {
			current[pos] = item
			continue
		}
		index[id(item)] = len(current)
		current = append(current, item)
	}
	return current
}

func removeByID[T any](current []T, ids []string, id func(T) string) []T {
	if len(ids) == 0 {
		return current
	}
	drop := make(map[string]struct{}, len(ids))
	for _, v := range ids {
		drop[v] = struct{}{}
	}
	kept := current[:0]
	for _, item := range current {
		if _, ok := drop[id(item)]; ok {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// cloneSnapshot deep-copies slices so callers can mutate their copy freely.
func cloneSnapshot(src *models.GroupSnapshot) *models.GroupSnapshot {
	dst := &models.GroupSnapshot{GroupID: src.GroupID, SavedAt: src.SavedAt}

	dst.Technicians = make([]models.Technician, len(src.Technicians))
	for i, t := range src.Technicians {
		if t.ScheduledCertificationID != nil {
			id := *t.ScheduledCertificationID
			t.ScheduledCertificationID = &id
		}
		if t.AutoApprovedAt != nil {
			at := *t.AutoApprovedAt
			t.AutoApprovedAt = &at
		}
		if t.StatusUpdatedAt != nil {
			at := *t.StatusUpdatedAt
			t.StatusUpdatedAt = &at
		}
		dst.Technicians[i] = t
	}

	dst.Schedules = make([]models.CertificationSchedule, len(src.Schedules))
	for i, s := range src.Schedules {
		s.BrokenRules = cloneStrings(s.BrokenRules)
		dst.Schedules[i] = s
	}

	dst.Events = make([]models.AnalystEvent, len(src.Events))
	for i, e := range src.Events {
		e.InvolvedUserIDs = cloneStrings(e.InvolvedUserIDs)
		dst.Events[i] = e
	}

	dst.Cities = make([]models.CityGroup, len(src.Cities))
	for i, c := range src.Cities {
		c.ResponsibleAnalystIDs = cloneStrings(c.ResponsibleAnalystIDs)
		dst.Cities[i] = c
	}

	dst.Users = append([]models.User(nil), src.Users...)
	dst.Adjustments = append([]models.VirtualScoreAdjustment(nil), src.Adjustments...)
	return dst
}

func cloneStrings(src pq.StringArray) pq.StringArray {
	if src == nil {
		return nil
	}
	out := make(pq.StringArray, len(src))
	copy(out, src)
	return out
}
