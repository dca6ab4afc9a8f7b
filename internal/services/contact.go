package services

import (
	"context"
	"strings"
	"time"

	"github.com/lebbnb/apiserver/internal/notify"
	"github.com/lebbnb/apiserver/types"
	"github.com/sirupsen/logrus"
)

const (
	maxContactNameLength = 100
	maxPhoneLength       = 20
	maxSubjectLength     = 200
	maxMessageLength     = 2000
	maxReplyLength       = 2000
)

// ContactRepository defines persistence operations for submissions.
type ContactRepository interface {
	List(ctx context.Context, status string, offset, limit int) ([]types.Contact, int, error)
	Get(ctx context.Context, id int) (types.Contact, error)
	Create(ctx context.Context, contact types.Contact) (types.Contact, error)
	UpdateStatus(ctx context.Context, id int, status string) error
	SetReply(ctx context.Context, id int, reply string, at time.Time) error
	Delete(ctx context.Context, id int) error
}

// ContactService encapsulates contact-form use-cases and the notification
// dispatch that accompanies them.
type ContactService struct {
	repo      ContactRepository
	publisher *notify.Publisher
	log       *logrus.Logger
	now       func() time.Time
}

func NewContactService(repo ContactRepository, publisher *notify.Publisher, log *logrus.Logger) *ContactService {
	return &ContactService{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Create persists a submission and publishes an owner notification. The
// submission is the source of truth: a broker failure is logged and the
// create still succeeds.
func (s *ContactService) Create(ctx context.Context, contact types.Contact) (types.Contact, error) {
	contact.Name = strings.TrimSpace(contact.Name)
	contact.Email = strings.ToLower(strings.TrimSpace(contact.Email))
	contact.Phone = strings.TrimSpace(contact.Phone)
	contact.Subject = strings.TrimSpace(contact.Subject)
	contact.Message = strings.TrimSpace(contact.Message)
	if err := validateContact(contact); err != nil {
		return types.Contact{}, err
	}

	created, err := s.repo.Create(ctx, contact)
	if err != nil {
		return types.Contact{}, err
	}

	if s.publisher != nil {
		if err := s.publisher.ContactReceived(ctx, created); err != nil {
			s.log.WithError(err).WithField("contact_id", created.ID).Warn("contact notification publish failed")
		}
	}
	return created, nil
}

func (s *ContactService) List(ctx context.Context, status string, offset, limit int) ([]types.Contact, int, error) {
	if status != "" && !validContactStatus(status) {
		return nil, 0, validationError("invalid status filter")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, status, offset, limit)
}

// Get loads a submission and flips a new one to read.
func (s *ContactService) Get(ctx context.Context, id int) (types.Contact, error) {
	contact, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Contact{}, err
	}
	if contact.Status == types.ContactStatusNew {
		if err := s.repo.UpdateStatus(ctx, id, types.ContactStatusRead); err != nil {
			return types.Contact{}, err
		}
		contact.Status = types.ContactStatusRead
	}
	return contact, nil
}

func (s *ContactService) UpdateStatus(ctx context.Context, id int, status string) error {
	if !validContactStatus(status) {
		return validationError("invalid status")
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// Reply records the admin reply and publishes a reply-mail job. The reply is
// persisted first; if dispatch fails the returned warning is non-empty and
// the call still succeeds, since the stored reply is the source of truth.
func (s *ContactService) Reply(ctx context.Context, id int, reply string) (types.Contact, string, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return types.Contact{}, "", validationError("reply is required")
	}
	if len(reply) > maxReplyLength {
		return types.Contact{}, "", validationError("reply cannot exceed 2000 characters")
	}

	contact, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Contact{}, "", err
	}

	now := s.now()
	if err := s.repo.SetReply(ctx, id, reply, now); err != nil {
		return types.Contact{}, "", err
	}
	contact.Reply = reply
	contact.ReplyDate = &now
	contact.Status = types.ContactStatusReplied

	warning := ""
	if s.publisher != nil {
		if err := s.publisher.ContactReply(ctx, contact, reply); err != nil {
			s.log.WithError(err).WithField("contact_id", id).Warn("reply notification publish failed")
			warning = "reply saved but notification dispatch failed"
		}
	}
	return contact, warning, nil
}

func (s *ContactService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func validateContact(contact types.Contact) error {
	name := strings.TrimSpace(contact.Name)
	email := strings.ToLower(strings.TrimSpace(contact.Email))
	subject := strings.TrimSpace(contact.Subject)
	message := strings.TrimSpace(contact.Message)
	switch {
	case name == "":
		return validationError("name is required")
	case len(name) > maxContactNameLength:
		return validationError("name cannot exceed 100 characters")
	case !emailPattern.MatchString(email):
		return ErrInvalidEmail
	case len(contact.Phone) > maxPhoneLength:
		return validationError("phone cannot exceed 20 characters")
	case subject == "":
		return validationError("subject is required")
	case len(subject) > maxSubjectLength:
		return validationError("subject cannot exceed 200 characters")
	case message == "":
		return validationError("message is required")
	case len(message) > maxMessageLength:
		return validationError("message cannot exceed 2000 characters")
	}
	return nil
}

func validContactStatus(status string) bool {
	switch status {
	case types.ContactStatusNew, types.ContactStatusRead, types.ContactStatusReplied:
		return true
	}
	return false
}
