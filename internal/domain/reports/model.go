package reports

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"event-reports/internal/domain/events"
)

var (
	ErrInvalidRecipient  = errors.New("please enter a valid email address")
	ErrInvalidTransition = errors.New("invalid job transition")
	ErrJobNotFound       = errors.New("job not found")
	ErrQueueFull         = errors.New("report queue is full")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusArchiving  Status = "archiving"
	StatusDelivering Status = "delivering"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// next es el orden estricto del pipeline. Failed se alcanza desde cualquier estado no terminal.
var next = map[Status]Status{
	StatusPending:    StatusGenerating,
	StatusGenerating: StatusArchiving,
	StatusArchiving:  StatusDelivering,
	StatusDelivering: StatusComplete,
}

func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Job es un pedido de "enviame el reporte por email".
type Job struct {
	ID        string        `json:"id"`
	Recipient string        `json:"recipient"`
	Filter    events.Filter `json:"filter"`
	Status    Status        `json:"status"`

	ArtifactPath string `json:"artifactPath,omitempty"`
	ArchiveURL   string `json:"archiveUrl,omitempty"`
	Rows         int    `json:"rows"`
	Error        string `json:"error,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// transition mueve el job al estado to si el orden lo permite.
func (j *Job) transition(to Status, now time.Time) error {
	if j.Status.Terminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, j.Status)
	}
	if to != StatusFailed && next[j.Status] != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, to)
	}
	j.Status = to
	j.UpdatedAt = now
	return nil
}

// ValidateRecipient exige un email mínimamente bien formado (al menos 4 caracteres, addr-spec simple).
func ValidateRecipient(recipient string) (string, error) {
	recipient = strings.TrimSpace(recipient)
	if len(recipient) < 4 {
		return "", ErrInvalidRecipient
	}
	addr, err := mail.ParseAddress(recipient)
	if err != nil || addr.Address != recipient {
		return "", ErrInvalidRecipient
	}
	return recipient, nil
}
