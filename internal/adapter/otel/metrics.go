package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agentput"

// Metrics holds all AgentPut metric instruments.
type Metrics struct {
	ConversationsStarted   metric.Int64Counter
	ConversationsCompleted metric.Int64Counter
	ConversationsFailed    metric.Int64Counter
	EventsAppended         metric.Int64Counter
	AppendDuration         metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ConversationsStarted, err = meter.Int64Counter("agentput.conversations.started",
		metric.WithDescription("Number of conversations entering the running state"))
	if err != nil {
		return nil, err
	}

	m.ConversationsCompleted, err = meter.Int64Counter("agentput.conversations.completed",
		metric.WithDescription("Number of conversations completed"))
	if err != nil {
		return nil, err
	}

	m.ConversationsFailed, err = meter.Int64Counter("agentput.conversations.failed",
		metric.WithDescription("Number of conversations failed"))
	if err != nil {
		return nil, err
	}

	m.EventsAppended, err = meter.Int64Counter("agentput.events.appended",
		metric.WithDescription("Number of events appended to conversation traces"))
	if err != nil {
		return nil, err
	}

	m.AppendDuration, err = meter.Float64Histogram("agentput.events.append_duration_seconds",
		metric.WithDescription("Event append latency in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
