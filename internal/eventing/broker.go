package eventing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sportsource/internal/platform/config"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/platform/logger"
)

// BrokerConfig is the management-API surface of the message broker
type BrokerConfig struct {
	BaseURL  string
	Username string
	Password string
	VHost    string
	Exchange string
	Timeout  time.Duration
}

// BrokerFromConfig reads the BROKER_ env scope. Credentials are required
// only when a broker call is actually made; validation happens in NewBroker.
func BrokerFromConfig(cfg config.Conf) BrokerConfig {
	c := cfg.Prefix("BROKER_")
	return BrokerConfig{
		BaseURL:  c.MayString("MGMT_URL", ""),
		Username: c.MayString("USERNAME", ""),
		Password: c.MayString("PASSWORD", ""),
		VHost:    c.MayString("VHOST", "/"),
		Exchange: c.MayString("EXCHANGE", "sportsource"),
		Timeout:  c.MayDuration("TIMEOUT", 15*time.Second),
	}
}

// RawMessage is one message returned by the management get endpoint
type RawMessage struct {
	Payload         string         `json:"payload"`
	PayloadEncoding string         `json:"payload_encoding"`
	MessageCount    int            `json:"message_count"`
	RoutingKey      string         `json:"routing_key"`
	Properties      map[string]any `json:"properties"`
}

// Broker talks to the broker's HTTP management API. There is no AMQP
// consumer here: peeking dead letters and direct publishes are the only two
// broker interactions this pipeline owns.
type Broker struct {
	base     string
	username string
	password string
	vhost    string
	exchange string
	httpc    *http.Client
	log      logger.Logger
}

// NewBroker validates credentials and builds a management client. Missing
// credentials are a configuration error, raised before any broker call.
func NewBroker(cfg BrokerConfig, log logger.Logger) (*Broker, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, perr.New(perr.ErrorCodeInvalidArgument, "broker: management URL not configured")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, perr.New(perr.ErrorCodeInvalidArgument, "broker: management credentials not configured")
	}
	vhost := cfg.VHost
	if vhost == "" {
		vhost = "/"
	}
	return &Broker{
		base:     strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		vhost:    vhost,
		exchange: cfg.Exchange,
		httpc:    &http.Client{Timeout: cfg.Timeout},
		log:      log.With().Str("component", "broker").Logger(),
	}, nil
}

// Peek fetches up to count messages from queue without discarding them
// (requeue ack mode). The queue is left intact; purging is a manual
// operator action.
func (b *Broker) Peek(ctx context.Context, queue string, count int) ([]RawMessage, error) {
	body := map[string]any{
		"count":    count,
		"ackmode":  "ack_requeue_true",
		"encoding": "auto",
		"truncate": 50000,
	}
	u := fmt.Sprintf("%s/api/queues/%s/%s/get", b.base, url.PathEscape(b.vhost), url.PathEscape(queue))

	var out []RawMessage
	if err := b.post(ctx, u, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PublishDirect posts one envelope to the configured exchange with the
// envelope kind as routing key
func (b *Broker) PublishDirect(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "broker: marshal envelope")
	}
	body := map[string]any{
		"properties": map[string]any{
			"message_id":     env.ID,
			"correlation_id": env.CorrelationID,
			"content_type":   "application/json",
		},
		"routing_key":      env.Kind,
		"payload":          string(payload),
		"payload_encoding": "string",
	}
	u := fmt.Sprintf("%s/api/exchanges/%s/%s/publish", b.base, url.PathEscape(b.vhost), url.PathEscape(b.exchange))

	var res struct {
		Routed bool `json:"routed"`
	}
	if err := b.post(ctx, u, body, &res); err != nil {
		return err
	}
	if !res.Routed {
		return perr.Newf(perr.ErrorCodeUnavailable, "broker: message %s not routed", env.ID)
	}
	return nil
}

func (b *Broker) post(ctx context.Context, u string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "broker: marshal request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(buf))
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "broker: build request")
	}
	req.SetBasicAuth(b.username, b.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpc.Do(req)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "broker: management call")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "broker: read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return perr.Newf(perr.ErrorCodeUnavailable, "broker: management status %d: %s", resp.StatusCode, truncateBody(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return perr.Wrap(err, perr.ErrorCodeJSON, "broker: decode response")
		}
	}
	return nil
}

func truncateBody(b []byte) string {
	const max = 256
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
