package auth

import (
	"context"
	"fmt"
)

type noopNotifier struct{}

func (noopNotifier) Send(context.Context, NotificationKind, string, string) error {
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// LogNotifier prints outbound notifications instead of delivering them.
// It stands in for a real mail sender during development and tests.
type LogNotifier struct {
	BaseURL string
	Logger  Logger
}

// NewLogNotifier returns a notifier that writes notification links to the log.
func NewLogNotifier(baseURL string, logger Logger) *LogNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogNotifier{BaseURL: baseURL, Logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, kind NotificationKind, recipient, token string) error {
	var link string
	switch kind {
	case NotificationPasswordReset:
		link = fmt.Sprintf("%s/reset-password/%s", n.BaseURL, token)
	case NotificationEmailVerification:
		link = fmt.Sprintf("%s/verify-email/%s", n.BaseURL, token)
	default:
		link = token
	}

	n.Logger.Info("outbound %s notification to %s: %s", string(kind), recipient, link)
	return nil
}

var (
	_ Notifier = noopNotifier{}
	_ Notifier = (*LogNotifier)(nil)
)
