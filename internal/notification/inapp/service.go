// Package inapp keeps the customer notification feed shown in the
// customer app.
package inapp

import (
	"context"

	"promise_backend/internal/notification/sse"
	"promise_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	CategoryInfo    = "info"
	CategorySuccess = "success"
	CategoryWarning = "warning"
)

// Store is the persistence the service needs
type Store interface {
	Create(ctx context.Context, p CreateParams) (Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// Broadcaster delivers live events to connected clients
type Broadcaster interface {
	Broadcast(ctx context.Context, env sse.Envelope) error
}

type Service struct {
	repo Store
	live Broadcaster
	log  *logger.Logger
}

func NewService(repo Store, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// SetBroadcaster injects live delivery once the SSE hub or relay exists.
func (s *Service) SetBroadcaster(live Broadcaster) {
	s.live = live
}

type SendParams struct {
	UserID           uuid.UUID
	ServiceRequestID uuid.UUID
	TicketNumber     string
	Title            string
	Content          string
	Category         string
}

// Send persists the notification and pushes it over SSE if the user is online.
func (s *Service) Send(ctx context.Context, p SendParams) (Notification, error) {
	if p.Category == "" {
		p.Category = CategoryInfo
	}

	params := CreateParams{
		UserID:   p.UserID,
		Title:    p.Title,
		Content:  p.Content,
		Category: p.Category,
	}
	if p.ServiceRequestID != uuid.Nil {
		params.ServiceRequestID = &p.ServiceRequestID
	}
	if p.TicketNumber != "" {
		params.TicketNumber = &p.TicketNumber
	}

	notif, err := s.repo.Create(ctx, params)
	if err != nil {
		s.log.Error("failed to persist customer notification", "error", err, "userId", p.UserID)
		return Notification{}, err
	}

	if s.live != nil {
		env := sse.Envelope{
			Audience: sse.Audience{UserID: p.UserID},
			Event: sse.Event{
				Type:             sse.EventNotification,
				ServiceRequestID: p.ServiceRequestID,
				TicketNumber:     p.TicketNumber,
				Message:          p.Title,
				Data:             notif,
			},
		}
		if err := s.live.Broadcast(ctx, env); err != nil {
			s.log.Warn("failed to broadcast customer notification", "error", err, "userId", p.UserID)
		}
	}

	return notif, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	offset := (page - 1) * pageSize
	return s.repo.List(ctx, userID, pageSize, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}
