// Package webpush delivers encrypted Web Push messages signed with the service's VAPID key pair.
package webpush

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	webpushgo "github.com/SherClockHolmes/webpush-go"
)

// ErrNoKeys is returned when the VAPID key pair is not configured.
var ErrNoKeys = errors.New("webpush: vapid keys not configured")

// Outcome classifies the push service answer for a single subscription.
type Outcome int

const (
	Delivered Outcome = iota
	// Gone means the endpoint no longer exists (404/410).
	Gone
	// Mismatch means the push service refused our VAPID key for this subscription (403).
	Mismatch
	Failed
)

// Classify maps a push service status code to an Outcome.
func Classify(status int) Outcome {
	switch {
	case status >= 200 && status < 300:
		return Delivered
	case status == http.StatusNotFound || status == http.StatusGone:
		return Gone
	case status == http.StatusForbidden:
		return Mismatch
	}
	return Failed
}

// Subscription is a browser push endpoint with its encryption keys.
type Subscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// Sender sends one payload to one subscription and reports the HTTP status.
type Sender interface {
	Send(ctx context.Context, sub Subscription, payload []byte) (int, error)
	HasKeys() bool
	PublicKey() string
}

type Config struct {
	PublicKey  string
	PrivateKey string
	Subject    string
	TTL        int
	Timeout    time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 86400
	}
	return &Client{cfg: cfg, http: &http.Client{}}
}

// WithHTTPClient replaces the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

func (c *Client) HasKeys() bool {
	return c.cfg.PublicKey != "" && c.cfg.PrivateKey != ""
}

func (c *Client) PublicKey() string { return c.cfg.PublicKey }

// Send encrypts payload for sub and posts it. A non-2xx answer is not an error;
// the caller decides what to do with the status.
func (c *Client) Send(ctx context.Context, sub Subscription, payload []byte) (int, error) {
	if !c.HasKeys() {
		return 0, ErrNoKeys
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := webpushgo.SendNotificationWithContext(ctx, payload, &webpushgo.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpushgo.Keys{
			Auth:   sub.Auth,
			P256dh: sub.P256dh,
		},
	}, &webpushgo.Options{
		HTTPClient:      c.http,
		Subscriber:      strings.TrimPrefix(c.cfg.Subject, "mailto:"),
		TTL:             c.cfg.TTL,
		VAPIDPublicKey:  c.cfg.PublicKey,
		VAPIDPrivateKey: c.cfg.PrivateKey,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// GenerateKeys returns a fresh VAPID key pair, base64url encoded.
func GenerateKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpushgo.GenerateVAPIDKeys()
	return publicKey, privateKey, err
}
