package mail

import (
	"context"
	"strings"
	"time"

	"event-reports/internal/platform/logger"

	"github.com/google/uuid"
)

// LogSender no envía nada: deja el mensaje en el log. Para dev.
type LogSender struct {
	log logger.Logger
}

func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{log: logger.OrNop(log).With(map[string]any{"component": "mail.log"})}
}

func (s *LogSender) Send(_ context.Context, msg Message) (SendResult, error) {
	id := uuid.NewString()
	s.log.Info("email (not sent)", map[string]any{
		"message_id": id,
		"to":         RedactEmail(msg.To),
		"subject":    msg.Subject,
		"body":       msg.Text,
	})
	return SendResult{MessageID: id, Provider: "log", SentAt: time.Now()}, nil
}

// RedactEmail deja visible solo la primera letra del local-part.
func RedactEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
