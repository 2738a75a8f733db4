package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendProvider sends via the Resend HTTP API.
type ResendProvider struct {
	APIKey   string
	From     string
	ReplyTo  string
	Endpoint string
	Client   *http.Client
}

func (p *ResendProvider) Name() string { return "resend" }

func (p *ResendProvider) Send(ctx context.Context, msg Message) error {
	body := map[string]interface{}{
		"from":    p.From,
		"to":      msg.To,
		"subject": msg.Subject,
		"html":    msg.HTML,
	}
	if msg.Text != "" {
		body["text"] = msg.Text
	}
	if p.ReplyTo != "" {
		body["reply_to"] = p.ReplyTo
	}
	if len(msg.Headers) > 0 {
		body["headers"] = msg.Headers
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = resendEndpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 400 {
		return nil
	}

	var errResp struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&errResp)
	err = fmt.Errorf("resend error %d: %s", resp.StatusCode, errResp.Message)
	if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return err
}
