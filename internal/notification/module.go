// Package notification reacts to service request events and tells the
// people who care: staff dashboards over SSE, customers through their
// notification feed and a mobile push.
// Domain modules publish events and never call into this package.
package notification

import (
	"context"
	"fmt"
	"strconv"

	"promise_backend/internal/events"
	apphttp "promise_backend/internal/http"
	notifhandler "promise_backend/internal/notification/handler"
	"promise_backend/internal/notification/inapp"
	"promise_backend/internal/notification/push"
	"promise_backend/internal/notification/sse"
	"promise_backend/internal/servicerequests/domain"
	"promise_backend/platform/logger"
	"promise_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PushQueue hands a push notification to whatever delivers it.
type PushQueue interface {
	EnqueuePush(ctx context.Context, n push.Notification) error
}

// feedSender is the slice of the in-app service the event handlers use.
type feedSender interface {
	Send(ctx context.Context, p inapp.SendParams) (inapp.Notification, error)
}

// Module wires notification channels to domain events.
type Module struct {
	hub         *sse.Service
	live        inapp.Broadcaster
	feed        feedSender
	feedService *inapp.Service
	feedHandler *notifhandler.HTTPHandler
	pushHandler *push.Handler
	tokens      *push.Repository
	queue       PushQueue
	log         *logger.Logger
}

// New creates the notification module. Live delivery goes through the local
// hub until SetBroadcaster installs a relay.
func New(pool *pgxpool.Pool, hub *sse.Service, val *validator.Validator, log *logger.Logger) *Module {
	feedService := inapp.NewService(inapp.NewRepository(pool), log)
	feedService.SetBroadcaster(hub)
	tokens := push.NewRepository(pool)

	return &Module{
		hub:         hub,
		live:        hub,
		feed:        feedService,
		feedService: feedService,
		feedHandler: notifhandler.NewHTTPHandler(feedService, val),
		pushHandler: push.NewHandler(tokens, val),
		tokens:      tokens,
		log:         log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// Tokens exposes the device token store for the push dispatcher.
func (m *Module) Tokens() *push.Repository { return m.tokens }

// SetBroadcaster routes live delivery through b, typically the Redis relay.
func (m *Module) SetBroadcaster(b inapp.Broadcaster) {
	m.live = b
	m.feedService.SetBroadcaster(b)
}

// SetPushQueue enables mobile push for customer-facing updates.
func (m *Module) SetPushQueue(q PushQueue) {
	m.queue = q
}

// RegisterRoutes registers notification API routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/events", m.hub.Handler())
	ctx.Admin.GET("/events/stats", m.hub.StatsHandler)

	m.feedHandler.RegisterRoutes(ctx.Protected.Group("/customer/notifications"))
	m.pushHandler.RegisterRoutes(ctx.Protected.Group("/customer/device-tokens"))
}

// RegisterHandlers subscribes to the service request events on the bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ServiceRequestCreated{}.EventName(), m)
	bus.Subscribe(events.ServiceRequestStageChanged{}.EventName(), m)
	bus.Subscribe(events.ServiceRequestUpdated{}.EventName(), m)
	bus.Subscribe(events.JobTicketCreated{}.EventName(), m)
	bus.Subscribe(events.QuoteSent{}.EventName(), m)
	bus.Subscribe(events.QuoteAnswered{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ServiceRequestCreated:
		return m.handleCreated(ctx, e)
	case events.ServiceRequestStageChanged:
		return m.handleStageChanged(ctx, e)
	case events.ServiceRequestUpdated:
		return m.handleUpdated(ctx, e)
	case events.JobTicketCreated:
		return m.handleJobTicketCreated(ctx, e)
	case events.QuoteSent:
		return m.handleQuoteSent(ctx, e)
	case events.QuoteAnswered:
		return m.handleQuoteAnswered(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleCreated(ctx context.Context, e events.ServiceRequestCreated) error {
	return m.broadcast(ctx, audienceFor(e.CustomerID), sse.Event{
		Type:             sse.EventServiceRequestCreated,
		ServiceRequestID: e.ServiceRequestID,
		TicketNumber:     e.TicketNumber,
		Message:          fmt.Sprintf("New %s request from %s", e.Brand, e.CustomerName),
		Data:             e,
	})
}

func (m *Module) handleStageChanged(ctx context.Context, e events.ServiceRequestStageChanged) error {
	err := m.broadcast(ctx, audienceFor(e.CustomerID), sse.Event{
		Type:             sse.EventStageChanged,
		ServiceRequestID: e.ServiceRequestID,
		TicketNumber:     e.TicketNumber,
		Message:          e.Message,
		Data:             e,
	})

	if e.CustomerID != nil {
		m.notifyCustomer(ctx, *e.CustomerID, customerUpdate{
			requestID: e.ServiceRequestID,
			ticket:    e.TicketNumber,
			title:     e.TrackingStatus,
			body:      e.Message,
			category:  stageCategory(domain.Stage(e.ToStage)),
			data:      map[string]string{"stage": e.ToStage},
		})
	}
	return err
}

func (m *Module) handleUpdated(ctx context.Context, e events.ServiceRequestUpdated) error {
	// The admin status is internal.
	if e.Status != "" {
		return m.broadcast(ctx, sse.Audience{Admins: true}, sse.Event{
			Type:             sse.EventStatusUpdated,
			ServiceRequestID: e.ServiceRequestID,
			TicketNumber:     e.TicketNumber,
			Message:          fmt.Sprintf("%s marked %s", e.TicketNumber, e.Status),
			Data:             e,
		})
	}

	err := m.broadcast(ctx, audienceFor(e.CustomerID), sse.Event{
		Type:             sse.EventTrackingUpdated,
		ServiceRequestID: e.ServiceRequestID,
		TicketNumber:     e.TicketNumber,
		Message:          e.Message,
		Data:             e,
	})

	// Schedule edits carry no message and are not worth a push.
	if e.CustomerID != nil && e.Message != "" {
		m.notifyCustomer(ctx, *e.CustomerID, customerUpdate{
			requestID: e.ServiceRequestID,
			ticket:    e.TicketNumber,
			title:     e.TrackingStatus,
			body:      e.Message,
			category:  inapp.CategoryInfo,
			data:      map[string]string{"trackingStatus": e.TrackingStatus},
		})
	}
	return err
}

func (m *Module) handleJobTicketCreated(ctx context.Context, e events.JobTicketCreated) error {
	return m.broadcast(ctx, sse.Audience{Admins: true}, sse.Event{
		Type:             sse.EventJobTicketCreated,
		ServiceRequestID: e.ServiceRequestID,
		TicketNumber:     e.TicketNumber,
		Message:          fmt.Sprintf("Job %s opened for %s", e.JobTicketID, e.Device),
		Data:             e,
	})
}

func (m *Module) handleQuoteSent(ctx context.Context, e events.QuoteSent) error {
	message := fmt.Sprintf("Your quote is ready: %s. Valid until %s.", formatAmount(e.Amount), e.ExpiresAt.Format("January 2, 2006"))
	err := m.broadcast(ctx, audienceFor(e.CustomerID), sse.Event{
		Type:             sse.EventQuoteSent,
		ServiceRequestID: e.ServiceRequestID,
		TicketNumber:     e.TicketNumber,
		Message:          message,
		Data:             e,
	})

	if e.CustomerID != nil {
		m.notifyCustomer(ctx, *e.CustomerID, customerUpdate{
			requestID: e.ServiceRequestID,
			ticket:    e.TicketNumber,
			title:     "Quote Ready",
			body:      message,
			category:  inapp.CategoryWarning,
			data:      map[string]string{"quoteAmount": strconv.FormatFloat(e.Amount, 'f', 2, 64)},
		})
	}
	return err
}

// handleQuoteAnswered tells staff. The customer gave the answer and sees
// it in their own response.
func (m *Module) handleQuoteAnswered(ctx context.Context, e events.QuoteAnswered) error {
	event := sse.Event{
		Type:             sse.EventQuoteDeclined,
		ServiceRequestID: e.ServiceRequestID,
		TicketNumber:     e.TicketNumber,
		Message:          fmt.Sprintf("%s declined the quote for %s", e.CustomerName, e.TicketNumber),
		Data:             e,
	}
	if e.Accepted {
		event.Type = sse.EventQuoteAccepted
		event.Message = fmt.Sprintf("%s accepted the quote for %s (%s, total %s)",
			e.CustomerName, e.TicketNumber, e.ServicePreference, formatAmount(e.TotalAmount))
	}
	return m.broadcast(ctx, sse.Audience{Admins: true}, event)
}

type customerUpdate struct {
	requestID uuid.UUID
	ticket    string
	title     string
	body      string
	category  string
	data      map[string]string
}

// notifyCustomer writes the feed entry and queues a push. Failures are
// logged only; the stage change itself has already committed.
func (m *Module) notifyCustomer(ctx context.Context, customerID uuid.UUID, u customerUpdate) {
	if _, err := m.feed.Send(ctx, inapp.SendParams{
		UserID:           customerID,
		ServiceRequestID: u.requestID,
		TicketNumber:     u.ticket,
		Title:            u.title,
		Content:          u.body,
		Category:         u.category,
	}); err != nil {
		m.log.Error("failed to write customer notification", "error", err, "ticket", u.ticket)
	}

	if m.queue == nil {
		return
	}

	data := map[string]string{
		"serviceRequestId": u.requestID.String(),
		"ticketNumber":     u.ticket,
	}
	for k, v := range u.data {
		data[k] = v
	}
	if err := m.queue.EnqueuePush(ctx, push.Notification{
		UserID: customerID,
		Title:  fmt.Sprintf("%s: %s", u.ticket, u.title),
		Body:   u.body,
		Data:   data,
	}); err != nil {
		m.log.Error("failed to enqueue push notification", "error", err, "ticket", u.ticket)
	}
}

func (m *Module) broadcast(ctx context.Context, audience sse.Audience, event sse.Event) error {
	if err := m.live.Broadcast(ctx, sse.Envelope{Audience: audience, Event: event}); err != nil {
		m.log.Error("failed to broadcast sse event", "error", err, "type", event.Type)
		return err
	}
	return nil
}

func audienceFor(customerID *uuid.UUID) sse.Audience {
	audience := sse.Audience{Admins: true}
	if customerID != nil {
		audience.UserID = *customerID
	}
	return audience
}

func formatAmount(amount float64) string {
	return "BDT " + strconv.FormatFloat(amount, 'f', -1, 64)
}

func stageCategory(stage domain.Stage) string {
	switch stage {
	case domain.StageReady, domain.StageCompleted:
		return inapp.CategorySuccess
	case domain.StageAwaitingCustomer:
		return inapp.CategoryWarning
	default:
		return inapp.CategoryInfo
	}
}

// InlinePushQueue delivers pushes immediately when no background queue is
// configured. Bus handlers already run off the request path.
type InlinePushQueue struct {
	Dispatcher *push.Dispatcher
}

// EnqueuePush delivers n right away.
func (q InlinePushQueue) EnqueuePush(ctx context.Context, n push.Notification) error {
	_, err := q.Dispatcher.Deliver(ctx, n)
	return err
}

var (
	_ apphttp.Module = (*Module)(nil)
	_ events.Handler = (*Module)(nil)
	_ PushQueue      = InlinePushQueue{}
)
