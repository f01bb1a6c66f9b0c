package invites

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// StartSweeper schedules SweepExpired at the given interval and returns the
// running scheduler; callers stop it during shutdown.
func (s *Service) StartSweeper(interval time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if err := s.SweepExpired(context.Background()); err != nil {
			s.logger.WithError(err).Warn("invitation sweep failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling invitation sweep: %w", err)
	}
	c.Start()
	return c, nil
}
