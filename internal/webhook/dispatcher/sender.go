package dispatcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/smallbiznis/payflow/internal/webhook/domain"
)

// Sender performs one delivery attempt for a claimed event.
type Sender interface {
	Send(ctx context.Context, event domain.DueEvent) error
}

type httpSender struct {
	client *http.Client
}

func NewHTTPSender(timeout time.Duration) Sender {
	return &httpSender{
		client: &http.Client{Timeout: timeout},
	}
}

func (s *httpSender) Send(ctx context.Context, event domain.DueEvent) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, event.WebhookURL, bytes.NewReader(event.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(domain.HeaderSignature, domain.Sign(event.Payload, event.WebhookSecret))
	req.Header.Set(domain.HeaderEventID, event.ID)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	return nil
}
