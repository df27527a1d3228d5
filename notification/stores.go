package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type Delivery struct {
	UserID  string
	Message string
}

// MemoryStore records deliveries in order.
type MemoryStore struct {
	mu         sync.Mutex
	deliveries []Delivery
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(ctx context.Context, userID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, Delivery{UserID: userID, Message: message})
	return nil
}

func (m *MemoryStore) Deliveries() []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Delivery, len(m.deliveries))
	copy(out, m.deliveries)
	return out
}

// Messages returns the messages delivered to userID.
func (m *MemoryStore) Messages(userID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, d := range m.deliveries {
		if d.UserID == userID {
			out = append(out, d.Message)
		}
	}
	return out
}

// LogStore writes each notification to a structured logger.
type LogStore struct {
	logger *slog.Logger
}

func NewLogStore(logger *slog.Logger) *LogStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogStore{logger: logger}
}

func (l *LogStore) Save(ctx context.Context, userID, message string) error {
	l.logger.InfoContext(ctx, "notification", "user_id", userID, "message", message)
	return nil
}

const DefaultNotificationStream = "ledger.notifications"

// RedisStreamStore appends each notification to a Redis stream for an
// external delivery worker.
type RedisStreamStore struct {
	client *redis.Client
	stream string
}

func NewRedisStreamStore(client *redis.Client, stream string) *RedisStreamStore {
	if stream == "" {
		stream = DefaultNotificationStream
	}
	return &RedisStreamStore{client: client, stream: stream}
}

func (r *RedisStreamStore) Save(ctx context.Context, userID, message string) error {
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"user_id": userID,
			"message": message,
			"sent_at": time.Now().UTC().Format(time.RFC3339Nano),
		},
	}
	if _, err := r.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// WebhookStore POSTs each notification as JSON. Requests are throttled by a
// token bucket; Save waits for a token or for ctx to end.
type WebhookStore struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

type webhookPayload struct {
	UserID  string    `json:"userId"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sentAt"`
}

// NewWebhookStore builds a webhook sink. A ratePerSecond of 0 or less disables throttling.
func NewWebhookStore(url string, timeout time.Duration, ratePerSecond float64, burst int) *WebhookStore {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &WebhookStore{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (w *WebhookStore) Save(ctx context.Context, userID, message string) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook throttled: %w", err)
	}

	body, err := json.Marshal(webhookPayload{UserID: userID, Message: message, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
