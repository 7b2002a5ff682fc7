package service

import (
	"time"

	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/pkg/normalize"
)

// touched keeps ids in first-touch order without duplicates.
type touched struct {
	order []string
	seen  map[string]struct{}
}

func (t *touched) add(id string) {
	if t.seen == nil {
		t.seen = make(map[string]struct{})
	}
	if _, ok := t.seen[id]; ok {
		return
	}
	t.seen[id] = struct{}{}
	t.order = append(t.order, id)
}

func (t *touched) drop(id string) {
	if _, ok := t.seen[id]; !ok {
		return
	}
	delete(t.seen, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

// schedulingState is the in-operation view of one group. Lookups the engine performs
// per slot are served from maps keyed by analyst|date and by id. Every mutation goes
// through a method that records the touched record for the final changeset.
type schedulingState struct {
	groupID string
	today   time.Time

	technicians  []*models.Technician
	techByID     map[string]*models.Technician
	schedules    []*models.CertificationSchedule
	scheduleByID map[string]*models.CertificationSchedule
	daySchedules map[string][]*models.CertificationSchedule
	events       []*models.AnalystEvent
	eventByID    map[string]*models.AnalystEvent
	dayEvents    map[string][]*models.AnalystEvent
	users        []models.User
	userByID     map[string]models.User
	cities       []*models.CityGroup
	adjustments  []*models.VirtualScoreAdjustment
	territory    *TerritoryRegistry

	techTouched     touched
	scheduleTouched touched
	eventTouched    touched
	eventRemoved    touched
	cityTouched     touched
	adjTouched      touched
	adjRemoved      touched
}

func slotKey(id string, day time.Time) string {
	return id + "|" + models.DateKey(day)
}

func newSchedulingState(snap *models.GroupSnapshot, today time.Time) *schedulingState {
	s := &schedulingState{
		groupID:      snap.GroupID,
		today:        models.DateOnly(today),
		techByID:     make(map[string]*models.Technician, len(snap.Technicians)),
		scheduleByID: make(map[string]*models.CertificationSchedule, len(snap.Schedules)),
		daySchedules: make(map[string][]*models.CertificationSchedule),
		eventByID:    make(map[string]*models.AnalystEvent, len(snap.Events)),
		userByID:     make(map[string]models.User, len(snap.Users)),
	}
	for i := range snap.Technicians {
		t := snap.Technicians[i]
		s.technicians = append(s.technicians, &t)
		s.techByID[t.ID] = &t
	}
	for i := range snap.Schedules {
		sch := snap.Schedules[i]
		s.indexSchedule(&sch)
	}
	for i := range snap.Events {
		e := snap.Events[i]
		s.events = append(s.events, &e)
		s.eventByID[e.ID] = &e
	}
	s.reindexEvents()
	for _, u := range snap.Users {
		s.users = append(s.users, u)
		s.userByID[u.ID] = u
	}
	for i := range snap.Cities {
		c := snap.Cities[i]
		s.cities = append(s.cities, &c)
	}
	s.rebuildTerritory()
	for i := range snap.Adjustments {
		a := snap.Adjustments[i]
		s.adjustments = append(s.adjustments, &a)
	}
	return s
}

func (s *schedulingState) indexSchedule(sch *models.CertificationSchedule) {
	s.schedules = append(s.schedules, sch)
	s.scheduleByID[sch.ID] = sch
	key := sch.AnalystID + "|" + sch.DateKey()
	s.daySchedules[key] = append(s.daySchedules[key], sch)
}

func (s *schedulingState) reindexEvents() {
	s.dayEvents = make(map[string][]*models.AnalystEvent, len(s.events))
	for _, e := range s.events {
		for _, uid := range e.InvolvedUserIDs {
			key := uid + "|" + e.DateKey()
			s.dayEvents[key] = append(s.dayEvents[key], e)
		}
	}
}

func (s *schedulingState) rebuildTerritory() {
	cities := make([]models.CityGroup, 0, len(s.cities))
	for _, c := range s.cities {
		cities = append(cities, *c)
	}
	s.territory = NewTerritoryRegistry(cities)
}

func (s *schedulingState) technician(id string) (*models.Technician, bool) {
	t, ok := s.techByID[id]
	return t, ok
}

func (s *schedulingState) schedule(id string) (*models.CertificationSchedule, bool) {
	sch, ok := s.scheduleByID[id]
	return sch, ok
}

func (s *schedulingState) user(id string) (models.User, bool) {
	u, ok := s.userByID[id]
	return u, ok
}

// activeAnalysts returns active ANALYST users in storage order.
func (s *schedulingState) activeAnalysts() []models.User {
	var out []models.User
	for _, u := range s.users {
		if u.IsActiveAnalyst() {
			out = append(out, u)
		}
	}
	return out
}

func (s *schedulingState) schedulesOn(analystID string, day time.Time) []*models.CertificationSchedule {
	return s.daySchedules[slotKey(analystID, day)]
}

func (s *schedulingState) eventsOn(userID string, day time.Time) []*models.AnalystEvent {
	return s.dayEvents[slotKey(userID, day)]
}

// activeSchedule returns the technician's linked booking when it is not cancelled.
func (s *schedulingState) activeSchedule(t *models.Technician) (*models.CertificationSchedule, bool) {
	sch, ok := s.scheduleByID[t.ScheduleID()]
	if !ok || sch.Cancelled() {
		return nil, false
	}
	return sch, true
}

func (s *schedulingState) addTechnician(t *models.Technician) {
	s.technicians = append(s.technicians, t)
	s.techByID[t.ID] = t
	s.techTouched.add(t.ID)
}

func (s *schedulingState) touchTechnician(t *models.Technician) {
	s.techTouched.add(t.ID)
}

func (s *schedulingState) addSchedule(sch *models.CertificationSchedule) {
	s.indexSchedule(sch)
	s.scheduleTouched.add(sch.ID)
}

func (s *schedulingState) touchSchedule(sch *models.CertificationSchedule) {
	s.scheduleTouched.add(sch.ID)
}

func (s *schedulingState) addEvent(e *models.AnalystEvent) {
	s.events = append(s.events, e)
	s.eventByID[e.ID] = e
	s.eventTouched.add(e.ID)
	s.reindexEvents()
}

// updateEvent records a change to an event's involved users.
func (s *schedulingState) updateEvent(e *models.AnalystEvent) {
	s.eventTouched.add(e.ID)
	s.reindexEvents()
}

func (s *schedulingState) removeEvent(id string) {
	if _, ok := s.eventByID[id]; !ok {
		return
	}
	delete(s.eventByID, id)
	kept := s.events[:0]
	for _, e := range s.events {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.events = kept
	s.eventTouched.drop(id)
	s.eventRemoved.add(id)
	s.reindexEvents()
}

// cityByName finds a configured city regardless of its active flag.
func (s *schedulingState) cityByName(name string) (*models.CityGroup, bool) {
	key := normalize.Key(name)
	for _, c := range s.cities {
		if normalize.Key(c.Name) == key {
			return c, true
		}
	}
	return nil, false
}

func (s *schedulingState) upsertCity(c *models.CityGroup) {
	found := false
	for _, existing := range s.cities {
		if existing == c || existing.ID == c.ID {
			found = true
			break
		}
	}
	if !found {
		s.cities = append(s.cities, c)
	}
	s.cityTouched.add(c.ID)
	s.rebuildTerritory()
}

func (s *schedulingState) adjustment(id string) (*models.VirtualScoreAdjustment, bool) {
	for _, a := range s.adjustments {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

func (s *schedulingState) adjustmentsFor(analystID string) []*models.VirtualScoreAdjustment {
	var out []*models.VirtualScoreAdjustment
	for _, a := range s.adjustments {
		if a.AnalystID == analystID {
			out = append(out, a)
		}
	}
	return out
}

func (s *schedulingState) addAdjustment(a *models.VirtualScoreAdjustment) {
	s.adjustments = append(s.adjustments, a)
	s.adjTouched.add(a.ID)
}

func (s *schedulingState) touchAdjustment(a *models.VirtualScoreAdjustment) {
	s.adjTouched.add(a.ID)
}

func (s *schedulingState) removeAdjustment(id string) {
	kept := s.adjustments[:0]
	for _, a := range s.adjustments {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	s.adjustments = kept
	s.adjTouched.drop(id)
	s.adjRemoved.add(id)
}

// activePenalty sums every active adjustment of the analyst covering day.
func (s *schedulingState) activePenalty(analystID string, day time.Time) int {
	total := 0
	for _, a := range s.adjustments {
		if a.AnalystID == analystID && a.Covers(day) {
			total += a.Penalty
		}
	}
	return total
}

// changeset collects every record touched during the operation.
func (s *schedulingState) changeset() models.GroupChangeset {
	var cs models.GroupChangeset
	for _, id := range s.techTouched.order {
		if t, ok := s.techByID[id]; ok {
			cs.Technicians = append(cs.Technicians, *t)
		}
	}
	for _, id := range s.scheduleTouched.order {
		if sch, ok := s.scheduleByID[id]; ok {
			cs.Schedules = append(cs.Schedules, *sch)
		}
	}
	for _, id := range s.eventTouched.order {
		if e, ok := s.eventByID[id]; ok {
			cs.EventsUpserted = append(cs.EventsUpserted, *e)
		}
	}
	cs.EventsRemoved = append(cs.EventsRemoved, s.eventRemoved.order...)
	for _, id := range s.cityTouched.order {
		for _, c := range s.cities {
			if c.ID == id {
				cs.Cities = append(cs.Cities, *c)
				break
			}
		}
	}
	for _, id := range s.adjTouched.order {
		if a, ok := s.adjustment(id); ok {
			cs.Adjustments = append(cs.Adjustments, *a)
		}
	}
	cs.AdjustmentsRemoved = append(cs.AdjustmentsRemoved, s.adjRemoved.order...)
	return cs
}
