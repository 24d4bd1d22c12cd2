package sweeper

import (
	"fmt"
	"log"
	"time"

	"affiliate-service/internal/service"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically deactivates lapsed attributions. Expiry is otherwise
// only applied lazily on read, so rows that are never read again would stay
// active in storage forever.
type Sweeper struct {
	cron           *cron.Cron
	attributionSvc *service.AttributionService
}

func New(attributionSvc *service.AttributionService) *Sweeper {
	return &Sweeper{
		cron:           cron.New(),
		attributionSvc: attributionSvc,
	}
}

// Start schedules the sweep at the given interval and runs one sweep
// immediately to catch up after downtime.
func (s *Sweeper) Start(interval time.Duration) error {
	s.sweep()
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.sweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweep() {
	n, err := s.attributionSvc.SweepExpired()
	if err != nil {
		log.Printf("[sweeper] attribution expiry: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[sweeper] deactivated %d expired attributions", n)
	}
}
