package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 2 * time.Minute

// NewScheduler registers the periodic jobs on a UTC cron. The caller starts it.
func NewScheduler(purger SetupTokenPurger, digest *RevenueDigest) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	if _, err := c.AddFunc("*/30 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		PurgeExpiredSetupTokens(ctx, purger)
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc("5 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := digest.Run(ctx); err != nil {
			log.WithError(err).Error("Revenue digest failed")
		}
	}); err != nil {
		return nil, err
	}

	return c, nil
}
