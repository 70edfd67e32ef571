package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/models"
	"bus_backoffice/internal/notify"
)

// ContactService stores support requests from the public site.
type ContactService struct {
	db           *gorm.DB
	notifier     notify.Notifier
	supportEmail string
}

func NewContactService(db *gorm.DB, notifier notify.Notifier, supportEmail string) *ContactService {
	return &ContactService{db: db, notifier: notifier, supportEmail: supportEmail}
}

// ContactInput is a support request.
type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Submit stores the request and forwards it to the support mailbox.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*models.ContactMessage, error) {
	msg := models.ContactMessage{
		Name:    strings.TrimSpace(in.Name),
		Email:   normalizeEmail(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return nil, apperr.Validation("name, email and message are required")
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, apperr.FromDB(err, "contact message")
	}

	s.notifier.Notify(ctx, notify.Message{
		Template: notify.ContactReceived,
		To:       s.supportEmail,
		Data: map[string]interface{}{
			"name":    msg.Name,
			"email":   msg.Email,
			"subject": msg.Subject,
			"message": msg.Message,
		},
	})
	return &msg, nil
}

// List returns support requests, newest first. unresolvedOnly hides
// resolved ones.
func (s *ContactService) List(ctx context.Context, unresolvedOnly bool, page Page) ([]models.ContactMessage, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ContactMessage{})
	if unresolvedOnly {
		query = query.Where("resolved = ?", false)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "count contact messages")
	}
	var msgs []models.ContactMessage
	if err := query.Scopes(paginate(page)).Order("id DESC").Find(&msgs).Error; err != nil {
		return nil, 0, apperr.Internal(err, "list contact messages")
	}
	return msgs, total, nil
}

func (s *ContactService) Resolve(ctx context.Context, id uint) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	if err := s.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, apperr.FromDB(err, fmt.Sprintf("contact message %d", id))
	}
	if err := s.db.WithContext(ctx).Model(&msg).Update("resolved", true).Error; err != nil {
		return nil, apperr.Internal(err, "resolve contact message")
	}
	return &msg, nil
}
