package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// e164Pattern matches international-format phone numbers
var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// GatewayConfig holds SMS/WhatsApp gateway configuration.
// Both channels share one provider; MessageType selects the lane.
type GatewayConfig struct {
	BaseURL       string
	APIKey        string
	SenderID      string
	Enabled       bool
	Timeout       time.Duration
	RatePerMinute int
}

// DefaultGatewayConfig returns sensible defaults
func DefaultGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		Timeout:       10 * time.Second,
		RatePerMinute: 60,
	}
}

// gatewayResponse is the provider's send response
type gatewayResponse struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// GatewaySender delivers over the SMS/WhatsApp HTTP gateway.
// Calls go through a circuit breaker so a dead provider fails fast instead
// of holding a dispatcher goroutine for the full timeout, and through a
// rate limiter honoring the provider's per-minute send quota.
type GatewaySender struct {
	channel    Channel
	config     *GatewayConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
}

// NewGatewaySender creates a sender for the SMS or WhatsApp channel
func NewGatewaySender(channel Channel, config *GatewayConfig) *GatewaySender {
	if config == nil {
		config = DefaultGatewayConfig()
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    fmt.Sprintf("%s-gateway", strings.ToLower(string(channel))),
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Info("Gateway circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())
		},
	})

	var limiter *rate.Limiter
	if config.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(config.RatePerMinute)/60.0), config.RatePerMinute)
	}

	slog.Info("Gateway channel initialized",
		"channel", channel,
		"enabled", config.Enabled)

	return &GatewaySender{
		channel:    channel,
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		breaker:    breaker,
		limiter:    limiter,
	}
}

// Channel returns the channel this sender delivers on
func (s *GatewaySender) Channel() Channel {
	return s.channel
}

// Send delivers the message body to the recipient's phone number
func (s *GatewaySender) Send(ctx context.Context, event *Event, content *Content) (string, error) {
	if !s.config.Enabled {
		return "", fmt.Errorf("%s channel is disabled", s.channel)
	}

	to := event.Recipient.Phone
	if to == "" {
		return "", &ValidationError{Channel: s.channel, Reason: "recipient phone is empty"}
	}
	if !e164Pattern.MatchString(to) {
		return "", &ValidationError{Channel: s.channel, Reason: fmt.Sprintf("phone %q is not E.164 format", to)}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	body := content.Title + " - " + content.Message

	ref, err := s.breaker.Execute(func() (interface{}, error) {
		return s.post(ctx, to, body)
	})
	if err != nil {
		return "", err
	}
	return ref.(string), nil
}

// post performs the provider form POST and returns the provider message id
func (s *GatewaySender) post(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("senderid", s.config.SenderID)
	form.Set("mobile", to)
	form.Set("msg", body)
	form.Set("msgType", "text")
	if s.channel == ChannelWhatsApp {
		form.Set("channel", "whatsapp")
	}
	form.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/send", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if s.config.APIKey != "" {
		req.Header.Set("apikey", s.config.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var gw gatewayResponse
	if err := json.Unmarshal(respBody, &gw); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	if strings.EqualFold(gw.Status, "error") || strings.EqualFold(gw.Status, "rejected") {
		return "", fmt.Errorf("gateway rejected message: %s", gw.Reason)
	}

	return gw.MessageID, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
