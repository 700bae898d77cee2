package mail

import (
	"context"
	"errors"
	"net/http"
	"time"

	"event-reports/internal/platform/httpclient"

	"github.com/google/uuid"
)

const DefaultSendGridURL = "https://api.sendgrid.com"

// SendGridSender usa la API v3 Mail Send.
type SendGridSender struct {
	client *httpclient.Client
}

func NewSendGridSender(apiKey, baseURL string, opts ...httpclient.Option) (*SendGridSender, error) {
	if apiKey == "" {
		return nil, errors.New("SendGrid API key not configured")
	}
	if baseURL == "" {
		baseURL = DefaultSendGridURL
	}

	opts = append([]httpclient.Option{httpclient.WithHeader("Authorization", "Bearer "+apiKey)}, opts...)
	c, err := httpclient.New(baseURL, 30*time.Second, opts...)
	if err != nil {
		return nil, err
	}
	return &SendGridSender{client: c}, nil
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) (SendResult, error) {
	req := sgRequest{
		Personalizations: []sgPersonalization{{To: []sgAddress{{Email: msg.To}}}},
		From:             sgAddress{Email: msg.FromEmail, Name: msg.FromName},
		Subject:          msg.Subject,
	}
	// SendGrid exige text/plain antes que text/html.
	if msg.Text != "" {
		req.Content = append(req.Content, sgContent{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		req.Content = append(req.Content, sgContent{Type: "text/html", Value: msg.HTML})
	}

	res, err := s.client.DoJSON(ctx, http.MethodPost, "/v3/mail/send", req, nil)
	if err != nil {
		return SendResult{}, err
	}

	id := res.Header.Get("X-Message-Id")
	if id == "" {
		id = uuid.NewString()
	}
	return SendResult{MessageID: id, Provider: "sendgrid", SentAt: time.Now()}, nil
}
