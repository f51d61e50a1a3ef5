package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jmehdipour/crm-tools/internal/kafka"
	"github.com/jmehdipour/crm-tools/internal/metrics"
	"github.com/jmehdipour/crm-tools/internal/model"
	"go.uber.org/zap"
)

// Store is what the ingest worker writes through.
type Store interface {
	EnsureCustomer(ctx context.Context, email, name string) (*model.Customer, bool, error)
	LogMessage(ctx context.Context, customerID int64, direction, content string) (int64, error)
}

// Ingest:
// - fetches inbound envelopes from Kafka,
// - finds or creates the customer by email,
// - logs the message, then commits the offset.
//
// Envelopes are handled one at a time; the store has a single connection.
type Ingest struct {
	Source       kafka.Source
	Store        Store
	Log          *zap.Logger
	FetchBackoff time.Duration
}

func NewIngest(src kafka.Source, store Store, log *zap.Logger) *Ingest {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingest{
		Source:       src,
		Store:        store,
		Log:          log,
		FetchBackoff: 200 * time.Millisecond,
	}
}

type outcome string

const (
	outcomeLogged outcome = "logged"
	outcomePoison outcome = "poison"
	outcomeFailed outcome = "failed"
)

// Run blocks until ctx is cancelled.
func (w *Ingest) Run(ctx context.Context) error {
	for {
		m, err := w.Source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.Log.Warn("kafka fetch failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.FetchBackoff):
			}
			continue
		}

		res := w.handle(ctx, m)
		if ctx.Err() != nil && res == outcomeFailed {
			// interrupted mid-write: leave the offset for redelivery
			return nil
		}
		metrics.IngestTotal.WithLabelValues(string(res)).Inc()

		// poison and failed messages are committed too; they would fail again
		if err := w.Source.Commit(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.Log.Error("kafka commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

func (w *Ingest) handle(ctx context.Context, m kafka.Message) outcome {
	env, err := decodeEnvelope(m.Value)
	if err != nil {
		w.Log.Warn("poison envelope skipped",
			zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset), zap.Error(err))
		return outcomePoison
	}

	cust, created, err := w.Store.EnsureCustomer(ctx, env.Email, env.Name)
	if err != nil {
		w.Log.Error("ensure customer failed", zap.String("email", env.Email), zap.Error(err))
		return outcomeFailed
	}
	if created {
		w.Log.Info("customer created from inbound message", zap.Int64("customer_id", cust.ID), zap.String("email", cust.Email))
	}

	id, err := w.Store.LogMessage(ctx, cust.ID, env.Direction, env.Content)
	if err != nil {
		w.Log.Error("log message failed", zap.Int64("customer_id", cust.ID), zap.Error(err))
		return outcomeFailed
	}
	w.Log.Debug("inbound message logged", zap.Int64("message_id", id), zap.Int64("customer_id", cust.ID))
	return outcomeLogged
}

var (
	errMissingEmail   = errors.New("envelope missing email")
	errMissingContent = errors.New("envelope missing content")
)

func decodeEnvelope(b []byte) (model.InboundEnvelope, error) {
	var env model.InboundEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, err
	}
	env.Email = strings.TrimSpace(env.Email)
	if env.Email == "" {
		return env, errMissingEmail
	}
	if strings.TrimSpace(env.Content) == "" {
		return env, errMissingContent
	}
	if strings.TrimSpace(env.Direction) == "" {
		env.Direction = model.DirectionInbound.String()
	}
	return env, nil
}
