package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tatianab/cyber-clicker/internal/clock"
	"github.com/tatianab/cyber-clicker/internal/events"
)

// Subscribe returns a buffered event stream. Sends never block the game; a
// subscriber that falls behind misses events. The channel is closed by
// cancel or by Close.
func (s *Session) Subscribe() (<-chan events.Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan events.Event, s.eventBuffer)
	if s.phase == PhaseClosed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Session) emitLocked(t events.EventType, data any) {
	s.nextEventID++
	ev := events.New(s.nextEventID, s.clk.Now(), s.id, t, data)
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.logger.Debug("Dropped event for slow subscriber",
				zap.Int("subscriber", id),
				zap.String("type", string(t)))
		}
	}
}

// markDirtyLocked either saves now or makes sure a flush is pending within
// one save interval.
func (s *Session) markDirtyLocked(ctx context.Context) {
	s.dirty = true
	if s.saveInterval <= 0 {
		s.saveLocked(ctx)
		return
	}
	if s.flushTimer == nil {
		s.flushTimer = s.clk.AfterFunc(s.saveInterval, s.flushFromTimer)
	}
}

func (s *Session) flushFromTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushTimer = nil
	if s.dirty && s.phase == PhaseReady {
		s.saveLocked(context.Background())
	}
}

func (s *Session) saveLocked(ctx context.Context) {
	s.lastSaveOK = s.gw.Save(ctx, s.st)
	s.dirty = false
}

func (s *Session) stopFlushTimerLocked() {
	if s.flushTimer != nil {
		s.flushTimer.Stop()
		s.flushTimer = nil
	}
}

// Flush saves immediately if anything changed since the last save.
func (s *Session) Flush(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty || s.phase != PhaseReady {
		return
	}
	s.stopFlushTimerLocked()
	s.saveLocked(ctx)
}

// ensureTickerLocked starts the passive income ticker the first time the
// state has a positive auto rate. There is at most one per session.
func (s *Session) ensureTickerLocked() {
	if s.phase != PhaseReady || s.tickStop != nil || s.st.AutoRate <= 0 {
		return
	}
	stop := make(chan struct{})
	s.tickStop = stop
	t := s.clk.NewTicker(s.tickInterval)
	s.tickWG.Add(1)
	go s.runTicker(stop, t, s.tickInterval)
	s.logger.Debug("Auto tick started", zap.Duration("interval", s.tickInterval))
}

func (s *Session) runTicker(stop <-chan struct{}, t clock.Ticker, interval time.Duration) {
	defer s.tickWG.Done()
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			if err := s.OnTick(context.Background(), interval); err != nil {
				return
			}
		}
	}
}

func (s *Session) ticking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickStop != nil
}

// Close stops the ticker and any pending flush, writes the final state and
// closes every subscription. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.phase == PhaseClosed {
		s.mu.Unlock()
		return nil
	}
	wasReady := s.phase == PhaseReady
	s.phase = PhaseClosed
	s.stopFlushTimerLocked()
	if wasReady && s.dirty {
		s.saveLocked(ctx)
	}
	stop := s.tickStop
	s.tickStop = nil
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		s.tickWG.Wait()
	}
	s.logger.Info("Game closed")
	return nil
}
