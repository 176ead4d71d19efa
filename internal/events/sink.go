// Package events exports replay results as one event per client.
package events

import (
	"context"
	"fmt"
	"time"

	interfaces "github.com/sheikh-saqib/ledger-replay/internal/interfaces"
	"github.com/sheikh-saqib/ledger-replay/internal/models"
	modelevents "github.com/sheikh-saqib/ledger-replay/internal/models/events"
)

// Sink publishes an AccountSettled event for every account of a run.
type Sink struct {
	publisher interfaces.EventPublisher
	topic     string
	now       func() time.Time
}

func NewSink(publisher interfaces.EventPublisher, topic string) *Sink {
	return &Sink{publisher: publisher, topic: topic, now: time.Now}
}

// WithClock overrides the settlement timestamp source.
func (s *Sink) WithClock(now func() time.Time) *Sink {
	s.now = now
	return s
}

func (s *Sink) Export(ctx context.Context, runID string, accounts []models.ClientAccount) error {
	settledAt := s.now().UTC()
	for _, acct := range accounts {
		event := modelevents.AccountSettled{
			RunID:     runID,
			ClientID:  acct.Client,
			Available: acct.Available,
			Held:      acct.Held,
			Total:     acct.Total,
			Locked:    acct.Locked,
			SettledAt: settledAt,
		}
		if err := s.publisher.Publish(ctx, s.topic, event); err != nil {
			return fmt.Errorf("publish client %d: %w", acct.Client, err)
		}
	}
	return nil
}

var _ interfaces.SnapshotSink = (*Sink)(nil)
