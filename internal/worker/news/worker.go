package news

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"tradeshift/internal/domain"
	"tradeshift/internal/ports"
	"tradeshift/internal/sentiment"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	pollTimeout        = time.Second
	maxBodyBytes       = 1 << 20
)

var titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// Config holds the news worker's Kafka and HTTP settings.
type Config struct {
	Brokers     string
	Topic       string
	GroupID     string
	HTTPTimeout time.Duration
}

// Worker consumes URL messages from Kafka, scrapes each page's title,
// scores its sentiment and persists the result. Offsets are committed after
// processing; messages that cannot be processed are logged and committed
// anyway so a poison pill cannot wedge the queue.
type Worker struct {
	consumer *kafka.Consumer
	topic    string
	repo     ports.NewsRepository
	logger   ports.Logger
	client   *http.Client
}

// urlMessage is the wire shape of one queued scrape request.
type urlMessage struct {
	URL string `json:"url"`
}

// New creates the worker and subscribes it to the configured topic.
func New(cfg Config, repo ports.NewsRepository, logger ports.Logger) (*Worker, error) {
	if repo == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for news worker")
	}

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Brokers,
		"group.id":           cfg.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}
	if err := consumer.Subscribe(cfg.Topic, nil); err != nil {
		consumer.Close()
		return nil, fmt.Errorf("failed to subscribe to topic '%s': %w", cfg.Topic, err)
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &Worker{
		consumer: consumer,
		topic:    cfg.Topic,
		repo:     repo,
		logger:   logger,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Run consumes until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info(ctx, "News worker started", map[string]interface{}{"topic": w.topic})

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "News worker shutting down")
			return w.consumer.Close()
		default:
		}

		msg, err := w.consumer.ReadMessage(pollTimeout)
		if err != nil {
			if kerr, ok := err.(kafka.Error); ok && kerr.IsTimeout() {
				continue
			}
			w.logger.Error(ctx, err, "Kafka read failed")
			continue
		}

		if err := w.Process(ctx, msg.Value); err != nil {
			w.logger.Error(ctx, err, "Failed to process news message", map[string]interface{}{
				"offset": msg.TopicPartition.Offset.String(),
			})
		}
		if _, err := w.consumer.CommitMessage(msg); err != nil {
			w.logger.Error(ctx, err, "Failed to commit offset")
		}
	}
}

// Process handles one raw queue message end to end: fetch, extract the
// title, score it and persist the event.
func (w *Worker) Process(ctx context.Context, raw []byte) error {
	var msg urlMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("unparsable message: %w", err)
	}
	if msg.URL == "" {
		return fmt.Errorf("message has no url field")
	}

	headline, err := w.fetchTitle(ctx, msg.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch '%s': %w", msg.URL, err)
	}

	event := &domain.NewsEvent{
		Headline:       headline,
		SentimentScore: sentiment.Score(headline),
		URL:            msg.URL,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := w.repo.CreateNewsEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to persist news event: %w", err)
	}

	w.logger.Info(ctx, "News event saved", map[string]interface{}{
		"headline": headline, "score": event.SentimentScore,
	})
	return nil
}

func (w *Worker) fetchTitle(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return extractTitle(body), nil
}

// extractTitle pulls the <title> text out of an HTML page. Falls back to a
// placeholder when the page has none, matching what gets stored for
// title-less pages.
func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if m == nil {
		return "No title found"
	}
	title := html.UnescapeString(string(m[1]))
	return strings.Join(strings.Fields(title), " ")
}
