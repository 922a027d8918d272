package task

import (
	"context"
	"log/slog"
	"time"
)

func NewRefreshTask(logger *slog.Logger, refresher *Refresher) func() {
	return func() {
		logger.Debug("running refresh task...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := refresher.Run(ctx); err != nil {
			logger.Error("refresh task error", slog.Any("error", err))
			return
		}

		logger.Info("refresh task done")
	}
}
