package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lebbnb/apiserver/internal/mailer"
	"github.com/lebbnb/apiserver/internal/mq"
	"github.com/lebbnb/apiserver/types"
	"github.com/sirupsen/logrus"
)

// Channel is the broker channel carrying contact notification jobs.
const Channel = "contact.notifications"

// Notification kinds.
const (
	KindContactReceived = "contact_received"
	KindContactReply    = "contact_reply"
)

// Notification is the payload published for each contact event. Received
// notifications go to the site owner; replies go to the original sender.
type Notification struct {
	Kind      string    `json:"kind"`
	ContactID int       `json:"contact_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Reply     string    `json:"reply,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher sends contact notifications to the broker.
type Publisher struct {
	mq *mq.MQ
}

// NewPublisher constructs a Publisher over the given broker.
func NewPublisher(broker *mq.MQ) *Publisher {
	return &Publisher{mq: broker}
}

// ContactReceived publishes a notification for a new submission.
func (p *Publisher) ContactReceived(ctx context.Context, contact types.Contact) error {
	return p.publish(ctx, Notification{
		Kind:      KindContactReceived,
		ContactID: contact.ID,
		Name:      contact.Name,
		Email:     contact.Email,
		Phone:     contact.Phone,
		Subject:   contact.Subject,
		Message:   contact.Message,
		CreatedAt: contact.CreatedAt,
	})
}

// ContactReply publishes a notification carrying an admin reply.
func (p *Publisher) ContactReply(ctx context.Context, contact types.Contact, reply string) error {
	return p.publish(ctx, Notification{
		Kind:      KindContactReply,
		ContactID: contact.ID,
		Name:      contact.Name,
		Email:     contact.Email,
		Subject:   contact.Subject,
		Message:   contact.Message,
		Reply:     reply,
		CreatedAt: contact.CreatedAt,
	})
}

func (p *Publisher) publish(ctx context.Context, notification Notification) error {
	data, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	_, err = p.mq.Publish(ctx, Channel, data, map[string]string{"kind": notification.Kind})
	return err
}

// Worker consumes contact notifications and delivers them as mail.
type Worker struct {
	mq      *mq.MQ
	mailer  *mailer.Mailer
	ownerTo string
	log     *logrus.Logger
}

// NewWorker constructs a Worker. ownerTo is the address that receives
// new-submission notifications.
func NewWorker(broker *mq.MQ, m *mailer.Mailer, ownerTo string, log *logrus.Logger) *Worker {
	return &Worker{mq: broker, mailer: m, ownerTo: ownerTo, log: log}
}

// Run subscribes to the notification channel and blocks until ctx is done
// or the subscription fails.
func (w *Worker) Run(ctx context.Context) error {
	return w.mq.Subscribe(ctx, Channel, w.handle)
}

func (w *Worker) handle(_ context.Context, msg mq.Message) error {
	var notification Notification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		// Malformed payloads are dropped, not redelivered.
		w.log.WithError(err).WithField("message_id", msg.ID).Warn("dropping malformed notification")
		return nil
	}

	var to, subject, body string
	switch notification.Kind {
	case KindContactReceived:
		to = w.ownerTo
		subject = fmt.Sprintf("New contact form submission from %s", notification.Name)
		body = receivedBody(notification)
	case KindContactReply:
		to = notification.Email
		subject = fmt.Sprintf("Re: %s", notification.Subject)
		body = replyBody(notification)
	default:
		w.log.WithField("kind", notification.Kind).Warn("dropping notification of unknown kind")
		return nil
	}

	if err := w.mailer.Send(to, subject, body); err != nil {
		w.log.WithError(err).WithFields(logrus.Fields{
			"kind":       notification.Kind,
			"contact_id": notification.ContactID,
		}).Error("mail delivery failed")
		return err
	}

	w.log.WithFields(logrus.Fields{
		"kind":       notification.Kind,
		"contact_id": notification.ContactID,
	}).Info("notification delivered")
	return nil
}

func receivedBody(n Notification) string {
	body := fmt.Sprintf("New contact form submission\n\nName: %s\nEmail: %s\n", n.Name, n.Email)
	if n.Phone != "" {
		body += fmt.Sprintf("Phone: %s\n", n.Phone)
	}
	body += fmt.Sprintf("Subject: %s\n\nMessage:\n%s\n", n.Subject, n.Message)
	if !n.CreatedAt.IsZero() {
		body += fmt.Sprintf("\nSubmitted on: %s\n", n.CreatedAt.Format(time.RFC1123))
	}
	return body
}

func replyBody(n Notification) string {
	return fmt.Sprintf(
		"Hello %s,\n\n%s\n\n---\nYour original message:\n%s\n",
		n.Name, n.Reply, n.Message,
	)
}
