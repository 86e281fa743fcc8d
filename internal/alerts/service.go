package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
	pkgerrors "github.com/calderalogistics/loadpilot-backend/pkg/errors"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
)

type notificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ExistsRecent(ctx context.Context, title string, since time.Time) (bool, error)
}

// NotifyInput describes one in-app alert. A non-zero DedupWindow
// suppresses the alert when an identically titled one landed inside the
// window.
type NotifyInput struct {
	UserID      uuid.UUID
	LoadID      *uuid.UUID
	Type        enums.NotificationType
	Priority    enums.NotificationPriority
	Title       string
	Message     string
	Link        *string
	DedupWindow time.Duration
}

// Service raises in-app alerts and relays outbound messages. Text and
// email sends are fire-and-forget: failures are logged, never returned.
type Service interface {
	Notify(ctx context.Context, input NotifyInput) (bool, error)
	SendText(ctx context.Context, phoneNumber, message string)
	SendEmail(ctx context.Context, address, subject, html string)
}

type service struct {
	repo      notificationRepository
	messenger Messenger
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires alerting dependencies. A nil messenger disables
// outbound sends; in-app alerting still works.
func NewService(repo notificationRepository, messenger Messenger, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		messenger: messenger,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// Notify persists an in-app alert. It returns false when the alert was
// suppressed by the dedup window.
func (s *service) Notify(ctx context.Context, input NotifyInput) (bool, error) {
	if input.UserID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Title == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if !input.Type.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}
	if input.Priority == "" {
		input.Priority = enums.NotificationPriorityNormal
	}

	if input.DedupWindow > 0 {
		since := s.now().UTC().Add(-input.DedupWindow)
		exists, err := s.repo.ExistsRecent(ctx, input.Title, since)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check recent notifications")
		}
		if exists {
			return false, nil
		}
	}

	notification := &models.Notification{
		UserID:   input.UserID,
		LoadID:   input.LoadID,
		Type:     input.Type,
		Priority: input.Priority,
		Title:    input.Title,
		Message:  input.Message,
		Link:     input.Link,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return true, nil
}

func (s *service) SendText(ctx context.Context, phoneNumber, message string) {
	if s.messenger == nil || phoneNumber == "" {
		return
	}
	if err := s.messenger.SendText(ctx, phoneNumber, message); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "channel", "sms"), "outbound send failed", err)
	}
}

func (s *service) SendEmail(ctx context.Context, address, subject, html string) {
	if s.messenger == nil || address == "" {
		return
	}
	if err := s.messenger.SendEmail(ctx, address, subject, html); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "channel", "email"), "outbound send failed", err)
	}
}
