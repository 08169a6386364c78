package jobs

import (
	"context"

	config "github.com/TimmyIsANerd/chamswap/configs"
)

var log = config.InitLogger()

type SetupTokenPurger interface {
	PurgeExpiredSetupTokens(ctx context.Context) (int64, error)
}

// PurgeExpiredSetupTokens clears admin invitations nobody accepted in time.
func PurgeExpiredSetupTokens(ctx context.Context, purger SetupTokenPurger) {
	purged, err := purger.PurgeExpiredSetupTokens(ctx)
	if err != nil {
		log.WithError(err).Error("Error purging expired setup tokens")
		return
	}
	if purged > 0 {
		log.WithField("count", purged).Info("Purged expired password setup tokens")
	}
}
