package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/skycollect/skycollect/internal/strategy"
)

// PubSubHandler consumes operator-issued collection triggers, letting an
// operator force a re-collection or an ad-hoc sweep without waiting for
// the next timer.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	scheduler        *Scheduler
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Scheduler        *Scheduler
	Logger           zerolog.Logger
}

// CollectMessage is an operator trigger. Mode selects the collection
// path; with a strategy ID the trigger targets one strategy, without it
// the matching sweep runs in full.
type CollectMessage struct {
	JobType    string `json:"job_type"`
	StrategyID string `json:"strategy_id,omitempty"`
	Mode       string `json:"mode,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Collections are slow under a degraded provider, keep redelivery off
	// our backs while one is running.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 4
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		scheduler:        cfg.Scheduler,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	var collectMsg CollectMessage
	if err := json.Unmarshal(msg.Data, &collectMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	if collectMsg.JobType != "collect" {
		logger.Warn().Str("job_type", collectMsg.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err := h.handleCollect(ctx, collectMsg); err != nil {
		logger.Error().Err(err).Msg("collect trigger failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("mode", collectMsg.Mode).
		Str("strategy_id", collectMsg.StrategyID).
		Dur("duration", time.Since(startTime)).
		Msg("collect trigger completed")

	msg.Ack()
}

func (h *PubSubHandler) handleCollect(ctx context.Context, msg CollectMessage) error {
	if msg.StrategyID == "" {
		return h.runSweep(ctx, msg.Mode)
	}

	strat, err := h.scheduler.strategies.Get(ctx, msg.StrategyID)
	if err != nil {
		return fmt.Errorf("loading strategy %s: %w", msg.StrategyID, err)
	}

	switch msg.Mode {
	case "realtime":
		_, err = h.scheduler.collector.CollectRealtime(ctx, strat)
	case "forecast", "":
		_, err = h.scheduler.collector.CollectForecast(ctx, strat)
	default:
		return fmt.Errorf("unknown collect mode %q", msg.Mode)
	}
	return err
}

func (h *PubSubHandler) runSweep(ctx context.Context, mode string) error {
	switch mode {
	case "realtime":
		h.scheduler.RunRealtimeSweep(ctx)
	case "forecast_urgent":
		h.scheduler.RunForecastSweep(ctx, strategy.PriorityUrgent)
	case "forecast_normal", "forecast", "":
		h.scheduler.RunForecastSweep(ctx, strategy.PriorityNormal)
	default:
		return fmt.Errorf("unknown sweep mode %q", mode)
	}
	return nil
}
