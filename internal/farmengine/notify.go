package farmengine

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/models"
)

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, note models.Notification) {
	entry := n.logger.WithFields(logrus.Fields{
		"farm":        note.FarmID,
		"action":      note.Action,
		"description": note.Description,
	})
	switch note.Severity {
	case models.SeverityError:
		entry.Error(note.Message)
	default:
		entry.Info(note.Message)
	}
}

// MultiNotifier fans a notification out to every sink.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, note models.Notification) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, note)
		}
	}
}
