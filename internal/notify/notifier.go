package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/calhub/calendar-service-go/internal/dependency"
)

// Notifier sends friend-graph emails in the background. Delivery failures are
// logged and never reach the caller.
type Notifier struct {
	mailer      Mailer
	logger      *slog.Logger
	timeout     time.Duration
	frontendURL string
	wg          sync.WaitGroup
}

func NewNotifier(dep *dependency.Dependency) *Notifier {
	timeout := time.Duration(dep.Cfg.NotificationTimeoutInSec) * time.Second

	var mailer Mailer
	if dep.Cfg.SendGridAPIKey != "" {
		mailer = NewSendGridMailer(dep.Cfg.SendGridAPIKey, dep.Cfg.SendGridBaseURL, dep.Cfg.SendGridFromEmail, dep.Cfg.SendGridFromName, timeout)
	} else {
		mailer = NewLogMailer(dep.Logger)
	}

	return NewNotifierWithMailer(mailer, dep.Logger, timeout, dep.Cfg.FrontendUrl)
}

func NewNotifierWithMailer(mailer Mailer, logger *slog.Logger, timeout time.Duration, frontendURL string) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Notifier{
		mailer:      mailer,
		logger:      logger,
		timeout:     timeout,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// FriendRequest tells an existing user that fromName wants to share calendars.
func (n *Notifier) FriendRequest(toEmail string, fromName string) {
	n.dispatch(Message{
		To:      toEmail,
		Subject: fmt.Sprintf("%s wants to share calendars with you", fromName),
		Text: fmt.Sprintf("%s sent you a friend request.\n\nOpen %s/friends to accept or decline.\n",
			fromName, n.frontendURL),
	})
}

// Invite asks someone without an account to sign up.
func (n *Notifier) Invite(toEmail string, fromName string) {
	n.dispatch(Message{
		To:      toEmail,
		Subject: fmt.Sprintf("%s invited you to share calendars", fromName),
		Text: fmt.Sprintf("%s would like to share calendars with you.\n\nSign up at %s and the request will be waiting for you.\n",
			fromName, n.frontendURL),
	})
}

// Accepted tells the original requester that byName accepted.
func (n *Notifier) Accepted(toEmail string, byName string) {
	n.dispatch(Message{
		To:      toEmail,
		Subject: fmt.Sprintf("%s accepted your friend request", byName),
		Text: fmt.Sprintf("You and %s can now see each other's availability.\n\n%s/friends\n",
			byName, n.frontendURL),
	})
}

// Wait blocks until every dispatched message has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) dispatch(msg Message) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.mailer.Send(ctx, msg); err != nil {
			n.logger.Warn("failed to send notification", "to", msg.To, "subject", msg.Subject, "err", err)
		}
	}()
}
