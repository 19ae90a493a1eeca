package worker

import (
	"github.com/spec-kit/feedback-service/internal/events"
)

// StartChangeFeedWorker registers the Redis change-feed broadcaster on
// the dispatcher so every ticket and taxonomy event pushes an
// invalidation notice to watching dashboards.
func StartChangeFeedWorker(dispatcher events.Dispatcher, broadcaster *events.Broadcaster) {
	if dispatcher == nil || broadcaster == nil {
		return
	}
	handler := broadcaster.Handler()
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketFieldChanged,
		events.EventTicketRedirected,
		events.EventTicketDeleted,
		events.EventTaxonomyChanged,
	} {
		dispatcher.Subscribe(eventType, handler)
	}
}
