package notifier

import (
	"log/slog"

	"github.com/amishk599/pitchdesk/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes newly ingested postings to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each posting via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each posting. Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(postings []model.Posting) error {
	for _, p := range postings {
		n.logger.Info("new posting",
			"id", p.ID,
			"title", p.Title,
			"client", p.Client,
			"budget", p.Budget,
			"hourly_rate", p.HourlyRate,
			"url", p.URL,
			"posted_at", p.PostedAt,
		)
	}
	return nil
}
