// Package sse provides Server-Sent Events support for live service request
// updates. Staff dashboards receive every event; customers receive events
// for their own requests.
package sse

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"promise_backend/platform/httpkit"
	"promise_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventServiceRequestCreated EventType = "service_request_created"
	EventStageChanged          EventType = "stage_changed"
	EventTrackingUpdated       EventType = "tracking_updated"
	EventJobTicketCreated      EventType = "job_ticket_created"
	EventStatusUpdated         EventType = "status_updated"
	EventQuoteSent             EventType = "quote_sent"
	EventQuoteAccepted         EventType = "quote_accepted"
	EventQuoteDeclined         EventType = "quote_declined"
	EventNotification          EventType = "notification"
)

const clientBuffer = 32

// Event represents an SSE event payload
type Event struct {
	Type             EventType `json:"type"`
	ServiceRequestID uuid.UUID `json:"serviceRequestId,omitempty"`
	TicketNumber     string    `json:"ticketNumber,omitempty"`
	Message          string    `json:"message,omitempty"`
	Data             any       `json:"data,omitempty"`
}

// Audience selects who receives an event. A zero UserID with Admins set is
// a staff-only broadcast.
type Audience struct {
	Admins bool      `json:"admins"`
	UserID uuid.UUID `json:"userId,omitempty"`
}

// Envelope is an addressed event. It is also the relay wire format.
type Envelope struct {
	Audience Audience `json:"audience"`
	Event    Event    `json:"event"`
}

// client represents a connected SSE client
type client struct {
	userID uuid.UUID
	admin  bool
	events chan Event
}

// Service manages SSE connections and event delivery
type Service struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*client
	closed  bool
	log     *logger.Logger
}

// New creates a new SSE service
func New(log *logger.Logger) *Service {
	return &Service{
		clients: make(map[uuid.UUID][]*client),
		log:     log,
	}
}

// addClient registers c unless the hub has been closed.
func (s *Service) addClient(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c.userID] = append(s.clients[c.userID], c)
	return true
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.clients[c.userID]
	for i, cl := range clients {
		if cl == c {
			s.clients[c.userID] = append(clients[:i], clients[i+1:]...)
			close(c.events)
			break
		}
	}
	if len(s.clients[c.userID]) == 0 {
		delete(s.clients, c.userID)
	}
}

// Broadcast delivers the envelope to clients on this instance. It satisfies
// the same contract as the Redis relay so callers do not care which is used.
func (s *Service) Broadcast(_ context.Context, env Envelope) error {
	s.Dispatch(env)
	return nil
}

// Dispatch delivers an envelope to every matching local client. Slow clients
// drop events rather than block the publisher.
func (s *Service) Dispatch(env Envelope) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	delivered := 0
	for userID, clients := range s.clients {
		for _, c := range clients {
			if !(env.Audience.Admins && c.admin) && (env.Audience.UserID == uuid.Nil || userID != env.Audience.UserID) {
				continue
			}
			select {
			case c.events <- env.Event:
				delivered++
			default:
				s.log.Warn("sse buffer full, dropping event", "userId", userID, "type", env.Event.Type)
			}
		}
	}

	s.log.Debug("sse event dispatched", "type", env.Event.Type, "clients", delivered)
	return delivered
}

// Publish sends an event to a specific user
func (s *Service) Publish(userID uuid.UUID, event Event) {
	s.Dispatch(Envelope{Audience: Audience{UserID: userID}, Event: event})
}

// PublishToAdmins broadcasts an event to every connected staff client
func (s *Service) PublishToAdmins(event Event) {
	s.Dispatch(Envelope{Audience: Audience{Admins: true}, Event: event})
}

// ClientCount returns the number of open connections.
func (s *Service) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, clients := range s.clients {
		n += len(clients)
	}
	return n
}

// Handler returns a Gin handler for SSE connections
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := httpkit.MustGetIdentity(c)
		if identity == nil {
			return
		}

		cl := &client{
			userID: identity.UserID(),
			admin:  identity.HasRole(httpkit.RoleAdmin),
			events: make(chan Event, clientBuffer),
		}
		if !s.addClient(cl) {
			httpkit.Error(c, http.StatusServiceUnavailable, "server shutting down", nil)
			return
		}
		defer s.removeClient(cl)

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		c.SSEvent("connected", gin.H{"userId": cl.userID, "admin": cl.admin})
		c.Writer.Flush()

		s.log.Info("sse client connected", "userId", cl.userID, "admin", cl.admin)

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				s.log.Info("sse client disconnected", "userId", cl.userID)
				return
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					continue
				}
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// StatsHandler reports the connection count for operators.
func (s *Service) StatsHandler(c *gin.Context) {
	httpkit.OK(c, gin.H{"clients": s.ClientCount()})
}

// Close disconnects every client and refuses new ones.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for _, clients := range s.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	s.clients = make(map[uuid.UUID][]*client)
}
