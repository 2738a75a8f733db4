package push

import "errors"

const (
	defaultTitle       = "Fermi Notify"
	defaultBody        = "Hai ricevuto una notifica."
	defaultURL         = "/"
	defaultConcurrency = 8
)

var (
	errInvalidSubscription = errors.New("invalid subscription payload")
	errNoKeys              = errors.New("vapid keys not configured")
)

type SubscribeDTO struct {
	Endpoint string  `json:"endpoint"`
	Keys     KeysDTO `json:"keys"`
}

type KeysDTO struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// NotifyDTO is both the broadcast request and, once defaults are applied, the payload
// delivered to the service worker.
type NotifyDTO struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

func (d NotifyDTO) withDefaults() NotifyDTO {
	if d.Title == "" {
		d.Title = defaultTitle
	}
	if d.Body == "" {
		d.Body = defaultBody
	}
	if d.URL == "" {
		d.URL = defaultURL
	}
	return d
}

// Result summarises one broadcast. Total is the number of subscriptions left after pruning.
type Result struct {
	Sent    int64 `json:"sent"`
	Removed int64 `json:"removed"`
	Failed  int64 `json:"-"`
	Total   int64 `json:"total"`
}
