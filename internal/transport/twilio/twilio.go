// Package twilio sends and receives text messages over the Twilio Messages
// API, addressing parties by phone number.
package twilio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vendorlink/vendorlink/internal/transport"
)

// DefaultBaseURL is the public Twilio API host.
const DefaultBaseURL = "https://api.twilio.com"

// Client sends outbound messages through Twilio.
type Client struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	logger     *slog.Logger
	http       *http.Client
}

// NewClient builds a Client; accountSID, authToken, and the sending number
// are required.
func NewClient(log *slog.Logger, accountSID, authToken, from, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(accountSID) == "" || strings.TrimSpace(authToken) == "" {
		return nil, errors.New("twilio: account sid and auth token are required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, errors.New("twilio: sending number is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log.With(slog.String("adapter", "twilio")),
		http: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Send posts one message to the Twilio Messages endpoint. At-most-once: a
// non-2xx response is an error, and there is no retry here.
func (c *Client) Send(ctx context.Context, to, text string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", text)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("twilio: close response body failed", slog.Any("error", err))
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twilio send to %s: %s", to, strings.TrimSpace(string(body)))
	}
	return nil
}

// ParseWebhook extracts the inbound message from a Twilio webhook request
// (form fields From and Body).
func ParseWebhook(r *http.Request) (transport.InboundMessage, error) {
	if err := r.ParseForm(); err != nil {
		return transport.InboundMessage{}, err
	}
	from := strings.TrimSpace(r.FormValue("From"))
	if from == "" {
		return transport.InboundMessage{}, errors.New("twilio webhook: missing From")
	}
	return transport.InboundMessage{
		From:       from,
		Text:       r.FormValue("Body"),
		ReceivedAt: time.Now().UTC(),
	}, nil
}
