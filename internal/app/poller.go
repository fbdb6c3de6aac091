package app

import (
	"context"
	"log/slog"
	"time"
)

// runPoller periodically fetches posts newer than the store's newest
// confirmed timestamp. The websocket normally delivers everything first, so
// the merges it produces are almost always duplicates; the poll exists to
// backfill anything a dropped connection missed.
func (a *App) runPoller(ctx context.Context) {
	interval := time.Duration(a.Config.PollIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.pollOnce(ctx)
		}
	}
}

// pollOnce polls every channel that has history loaded. Channels never
// opened have no since-timestamp to poll from and are skipped; their
// unreads arrive over the websocket.
func (a *App) pollOnce(ctx context.Context) {
	client := a.currentClient()
	if client == nil {
		return
	}

	for _, ch := range a.store.Channels() {
		since := a.store.NewestCreateAt(ch.ID)
		if since == 0 {
			continue
		}

		pl, err := client.GetPostsSince(ctx, ch.ID, since)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("poll failed", "channel", ch.ID, "error", err)
			continue
		}

		authors := make([]string, 0, len(pl.Posts))
		for _, p := range pl.Ascending() {
			a.store.MergeIncoming(ch.ID, p)
			authors = append(authors, p.UserID)
		}
		a.resolveUsers(authors)
	}
}
