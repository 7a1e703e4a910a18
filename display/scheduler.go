package meticd

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	Ms "github.com/meticai/meticd/server"
	Mt "github.com/meticai/meticd/types"
)

/*

	Shot scheduling.

	Each scheduled shot is its own timer goroutine: at the requested
	wall-clock time it loads the profile into the machine and starts
	the brew. Entries live in memory only; a restart clears the
	schedule, which is the right call for a machine that needs a
	human nearby when it runs hot water at 9 bar.

*/

type ShotScheduler struct {
	MU      sync.Mutex
	View    *View
	Pending map[string]*scheduledEntry
}

type scheduledEntry struct {
	Shot  Mt.ScheduledShot
	Timer *time.Timer
}

// NewShotScheduler wires the scheduler to the View
func (v *View) NewShotScheduler() *ShotScheduler {
	s := &ShotScheduler{
		View:    v,
		Pending: make(map[string]*scheduledEntry),
	}
	v.Sched = s
	return s
}

// Schedule queues a profile to brew at /at/
func (s *ShotScheduler) Schedule(profileID string, at time.Time) (Mt.ScheduledShot, error) {
	delay := time.Until(at)
	if delay <= 0 {
		return Mt.ScheduledShot{}, errors.New("scheduled time is in the past")
	}

	entry := &scheduledEntry{
		Shot: Mt.ScheduledShot{
			ID:        uuid.NewString(),
			ProfileID: profileID,
			At:        at,
		},
	}

	s.MU.Lock()
	entry.Timer = time.AfterFunc(delay, func() {
		s.fire(entry.Shot)
	})
	s.Pending[entry.Shot.ID] = entry
	s.MU.Unlock()

	slog.Info("Shot scheduled",
		slog.String("ID", entry.Shot.ID),
		slog.String("Profile", profileID),
		slog.Time("At", at))

	return entry.Shot, nil
}

// Cancel stops a pending shot, reporting whether it existed
func (s *ShotScheduler) Cancel(id string) bool {
	s.MU.Lock()
	defer s.MU.Unlock()

	entry, ok := s.Pending[id]
	if !ok {
		return false
	}
	entry.Timer.Stop()
	delete(s.Pending, id)

	slog.Info("Scheduled shot cancelled", slog.String("ID", id))
	return true
}

// List returns pending shots soonest-first
func (s *ShotScheduler) List() []Mt.ScheduledShot {
	s.MU.Lock()
	defer s.MU.Unlock()

	out := make([]Mt.ScheduledShot, 0, len(s.Pending))
	for _, e := range s.Pending {
		out = append(out, e.Shot)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].At.Before(out[j].At)
	})
	return out
}

// Stop cancels every pending timer, used at shutdown
func (s *ShotScheduler) Stop() {
	s.MU.Lock()
	defer s.MU.Unlock()

	for id, e := range s.Pending {
		e.Timer.Stop()
		delete(s.Pending, id)
	}
}

// fire runs one scheduled shot: load the profile, start the brew
func (s *ShotScheduler) fire(shot Mt.ScheduledShot) {
	s.MU.Lock()
	delete(s.Pending, shot.ID)
	s.MU.Unlock()

	p, err := s.View.Store.GetProfile(shot.ProfileID)
	if err != nil {
		slog.Error("Scheduled shot lost its profile",
			slog.String("Profile", shot.ProfileID),
			slog.Any("Error", err))
		return
	}

	s.View.Net.MU.RLock()
	if len(s.View.Net.Network) == 0 {
		s.View.Net.MU.RUnlock()
		slog.Error("Scheduled shot has no machine to run on")
		return
	}
	m := s.View.Net.Network[0]
	s.View.Net.MU.RUnlock()

	if err := Ms.LoadProfile(m, p); err != nil {
		slog.Error("Scheduled shot could not load profile", slog.Any("Error", err))
		return
	}
	if err := Ms.StartBrew(m); err != nil {
		slog.Error("Scheduled shot could not start brew", slog.Any("Error", err))
		return
	}

	slog.Info("Scheduled shot started",
		slog.String("Profile", p.Name),
		slog.String("Machine", m.ID))
}
