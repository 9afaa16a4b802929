package remind

import (
	"fmt"
	"time"

	"pillbot/internal/course"
	"pillbot/internal/notify"
	kit "pillbot/internal/transport"
	logx "pillbot/pkg/logx"
)

func (s *Service) tick() {
	if !s.tickMu.TryLock() {
		s.log.Warn("previous tick still running; skipping")
		return
	}
	defer s.tickMu.Unlock()

	start := s.now()
	sent, skipped := s.sweep(start)
	s.log.Debug("tick done",
		logx.Int("sent", sent),
		logx.Int("skipped", skipped),
		logx.Duration("took", time.Since(start)))
}

// sweep walks a point-in-time snapshot of all active courses. Dispatch goes
// through the async notifier, so a slow or failing chat never stalls the
// rest of the sweep.
func (s *Service) sweep(now time.Time) (sent, skipped int) {
	for _, ur := range s.store.AllActive() {
		day := ur.Record.DayNumber(now)
		reg, ok := course.RegimenFor(day)
		if !ok {
			// Course complete; the record stays around but gets no reminders.
			skipped++
			continue
		}
		taken := ur.Record.TakenOn(now)
		if taken >= reg.DosesPerDay {
			skipped++
			continue
		}

		n := notify.Notification{
			Target:  kit.ChatTarget{ChatID: ur.UserID},
			Text:    reminderText(taken+1, reg.DosesPerDay),
			Options: s.sendOpts,
		}
		if err := s.dispatch.Enqueue(n); err != nil {
			s.log.Warn("reminder enqueue failed",
				logx.Int64("user_id", ur.UserID), logx.Err(err))
			continue
		}
		sent++
	}
	return sent, skipped
}

func reminderText(next, total int) string {
	return fmt.Sprintf("💊 Пора принять таблетку! (%d/%d)", next, total)
}
