package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event-reports/internal/domain/reports"
	"event-reports/internal/platform/logger"

	"github.com/osteele/liquid"
)

var ErrDelivery = errors.New("report delivery failed")

// Message es el email ya renderizado, listo para un Sender.
type Message struct {
	To        string
	FromEmail string
	FromName  string
	Subject   string
	Text      string
	HTML      string
}

// SendResult es lo que devuelve un Sender tras un envío aceptado.
type SendResult struct {
	MessageID string
	Provider  string
	SentAt    time.Time
}

// Sender entrega un Message. Un error significa que el proveedor no lo aceptó.
type Sender interface {
	Send(ctx context.Context, msg Message) (SendResult, error)
}

const (
	defaultSubject = `Your events report is ready`
	defaultText    = `Hi,

Your events report is ready. Download it here:

{{ url }}

The link expires in {{ retention }}.
`
	defaultHTML = `<p>Hi,</p>
<p>Your events report is ready.</p>
<p><a href="{{ url | escape }}">Download the report</a></p>
<p>The link expires in {{ retention }}.</p>
`
)

type Templates struct {
	Subject string
	Text    string
	HTML    string
}

type Options struct {
	Sender    Sender
	FromEmail string
	FromName  string
	// Retention se menciona en el cuerpo del email.
	Retention time.Duration
	Templates Templates
	Log       logger.Logger
}

// Dispatcher arma el email con el link al archive y lo envía. Sin reintentos.
type Dispatcher struct {
	sender    Sender
	from      string
	fromName  string
	retention string

	subject *liquid.Template
	text    *liquid.Template
	html    *liquid.Template

	log logger.Logger
}

var _ reports.Notifier = (*Dispatcher)(nil)

func NewDispatcher(opts Options) (*Dispatcher, error) {
	if opts.Sender == nil {
		return nil, errors.New("mail: sender is required")
	}

	t := opts.Templates
	if t.Subject == "" {
		t.Subject = defaultSubject
	}
	if t.Text == "" {
		t.Text = defaultText
	}
	if t.HTML == "" {
		t.HTML = defaultHTML
	}

	engine := liquid.NewEngine()
	parse := func(name, src string) (*liquid.Template, error) {
		tpl, err := engine.ParseString(src)
		if err != nil {
			return nil, fmt.Errorf("mail: parse %s template: %w", name, err)
		}
		return tpl, nil
	}

	d := &Dispatcher{
		sender:    opts.Sender,
		from:      opts.FromEmail,
		fromName:  opts.FromName,
		retention: humanDuration(opts.Retention),
		log:       logger.OrNop(opts.Log).With(map[string]any{"component": "mail"}),
	}

	var err error
	if d.subject, err = parse("subject", t.Subject); err != nil {
		return nil, err
	}
	if d.text, err = parse("text", t.Text); err != nil {
		return nil, err
	}
	if d.html, err = parse("html", t.HTML); err != nil {
		return nil, err
	}
	return d, nil
}

// Notify envía el link al destinatario. Cualquier falla vuelve envuelta en ErrDelivery.
func (d *Dispatcher) Notify(ctx context.Context, recipient, archiveURL string) error {
	msg, err := d.Render(recipient, archiveURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	res, err := d.sender.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	d.log.Info("report link sent", map[string]any{
		"to":         RedactEmail(recipient),
		"provider":   res.Provider,
		"message_id": res.MessageID,
	})
	return nil
}

// Render arma el Message sin enviarlo.
func (d *Dispatcher) Render(recipient, archiveURL string) (Message, error) {
	bindings := map[string]any{
		"url":       archiveURL,
		"recipient": recipient,
		"retention": d.retention,
	}

	subject, err := d.subject.RenderString(bindings)
	if err != nil {
		return Message{}, fmt.Errorf("render subject: %w", err)
	}
	text, err := d.text.RenderString(bindings)
	if err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}
	html, err := d.html.RenderString(bindings)
	if err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}

	return Message{
		To:        recipient,
		FromEmail: d.from,
		FromName:  d.fromName,
		Subject:   subject,
		Text:      text,
		HTML:      html,
	}, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "7 days"
	case d%(24*time.Hour) == 0:
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	case d%time.Hour == 0:
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	default:
		return d.String()
	}
}
