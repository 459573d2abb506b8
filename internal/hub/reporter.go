package hub

import "github.com/rs/zerolog"

// Reporter is the single seam every swallowed error goes through. The
// hub never surfaces failures to clients; this keeps them observable
// in logs and metrics instead.
type Reporter struct {
	log *zerolog.Logger
}

// NewReporter builds a reporter writing to the given logger.
func NewReporter(logger *zerolog.Logger) *Reporter {
	return &Reporter{log: logger}
}

// DroppedValidation records a malformed or empty client event.
func (r *Reporter) DroppedValidation(event, reason string) {
	droppedEventsTotal.WithLabelValues(event, dropValidation).Inc()
	r.log.Debug().Str("event", event).Str("reason", reason).Msg("event dropped")
}

// DroppedUnauthorized records an event rejected by an authorization rule.
func (r *Reporter) DroppedUnauthorized(event string, s *Session) {
	droppedEventsTotal.WithLabelValues(event, dropUnauthorized).Inc()
	entry := r.log.Warn().Str("event", event).Str("conn_id", s.ConnID).Str("role", string(s.Role))
	if s.UserID != nil {
		entry = entry.Int64("user_id", *s.UserID)
	}
	entry.Msg("unauthorized event dropped")
}

// PersistenceFailure records an aborted operation.
func (r *Reporter) PersistenceFailure(event string, err error) {
	droppedEventsTotal.WithLabelValues(event, dropPersistence).Inc()
	r.log.Error().Err(err).Str("event", event).Msg("persistence failure, operation aborted")
}

// FanoutFailure records one failed recipient in a notification loop.
// Sibling recipients are unaffected.
func (r *Reporter) FanoutFailure(notificationType string, recipientID int64, err error) {
	droppedEventsTotal.WithLabelValues(InboundLabelNotify, dropFanout).Inc()
	r.log.Error().Err(err).
		Str("notification_type", notificationType).
		Int64("recipient_id", recipientID).
		Msg("notification fan-out failure, continuing")
}

// SlowConsumer records an outbound event dropped on a full buffer.
func (r *Reporter) SlowConsumer(connID, event string) {
	slowConsumerDropsTotal.Inc()
	r.log.Debug().Str("conn_id", connID).Str("event", event).Msg("slow consumer, event dropped")
}

// EventDispatched counts one inbound event reaching its handler.
func (r *Reporter) EventDispatched(event string) {
	eventsTotal.WithLabelValues(event).Inc()
}

// InboundLabelNotify groups the three notification fan-out inbound
// types under one metric label.
const InboundLabelNotify = "create_notification"
