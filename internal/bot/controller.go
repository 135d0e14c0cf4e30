// Package bot contains the request lifecycle controller: the state machine
// that turns one inbound URL into a delivered video, a size rejection, or a
// classified error, with the artifact cleaned up in every case.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RakhmaMed/Downloader-Bot/internal/bus"
	"github.com/RakhmaMed/Downloader-Bot/internal/domain"
	"github.com/RakhmaMed/Downloader-Bot/internal/extract"
	"github.com/RakhmaMed/Downloader-Bot/internal/metrics"
	"github.com/RakhmaMed/Downloader-Bot/internal/storage"
)

// Status texts shown to the user as the request advances. The status message
// is created once and edited in place; it is deleted only on success.
const (
	statusFinding     = "Finding video..."
	statusDownloading = "Downloading..."
	statusUploading   = "Uploading..."
)

const invalidURLReply = "Please send a valid YouTube or Instagram URL."

const defaultConcurrency = 3

// supportedDomains are the platform markers a message must contain to be
// treated as a download request.
var supportedDomains = []string{"youtube.com", "youtu.be", "instagram.com"}

// SupportedURL reports whether text references a platform the bot handles.
func SupportedURL(text string) bool {
	for _, d := range supportedDomains {
		if strings.Contains(text, d) {
			return true
		}
	}
	return false
}

// Controller drives requests from inbound message to terminal state.
type Controller struct {
	transport domain.Transport
	extractor domain.Extractor
	steward   *storage.Steward
	history   domain.HistoryStore // nil when history is disabled
	bus       *bus.InMemoryBus
	logger    *slog.Logger

	timeout     time.Duration
	concurrency int

	requests map[domain.Outcome]*metrics.Counter
	invalid  *metrics.Counter
	bytes    *metrics.Counter
	inflight *metrics.Gauge
}

// Config holds the controller's dependencies and tuning parameters.
type Config struct {
	Transport       domain.Transport
	Extractor       domain.Extractor
	Steward         *storage.Steward
	History         domain.HistoryStore
	Bus             *bus.InMemoryBus
	Metrics         *metrics.Collector
	Logger          *slog.Logger
	DownloadTimeout time.Duration
	Concurrency     int
}

// New creates a controller.
func New(cfg Config) *Controller {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewCollector()
	}

	const reqName = "downloader_requests_total"
	const reqHelp = "Requests handled, by terminal state."
	requests := map[domain.Outcome]*metrics.Counter{
		domain.OutcomeDelivered: cfg.Metrics.Counter(reqName, reqHelp, `outcome="delivered"`),
		domain.OutcomeTooLarge:  cfg.Metrics.Counter(reqName, reqHelp, `outcome="too_large"`),
		domain.OutcomeFailed:    cfg.Metrics.Counter(reqName, reqHelp, `outcome="failed"`),
	}

	return &Controller{
		transport:   cfg.Transport,
		extractor:   cfg.Extractor,
		steward:     cfg.Steward,
		history:     cfg.History,
		bus:         cfg.Bus,
		logger:      cfg.Logger,
		timeout:     cfg.DownloadTimeout,
		concurrency: cfg.Concurrency,
		requests:    requests,
		invalid:     cfg.Metrics.Counter(reqName, reqHelp, `outcome="invalid_url"`),
		bytes:       cfg.Metrics.Counter("downloader_download_bytes_total", "Bytes of video produced by extraction.", ""),
		inflight:    cfg.Metrics.Gauge("downloader_inflight", "Requests currently being processed.", ""),
	}
}

// Run consumes inbound messages and handles each on its own goroutine,
// admitted through a bounded semaphore. The transport's update loop never
// waits on an extraction: it only enqueues. Requests interleave freely,
// each owning its own status message and artifact.
func (c *Controller) Run(ctx context.Context) {
	c.logger.Info("request loop started", "concurrency", c.concurrency)

	sem := make(chan struct{}, c.concurrency)
	inbound := c.bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("request loop stopping")
			return
		case msg, ok := <-inbound:
			if !ok {
				c.logger.Info("inbound channel closed, request loop stopping")
				return
			}
			sem <- struct{}{}
			go func(m domain.InboundMessage) {
				defer func() { <-sem }()
				c.Handle(ctx, m)
			}(msg)
		}
	}
}

// Handle processes one inbound message through the full lifecycle.
func (c *Controller) Handle(ctx context.Context, msg domain.InboundMessage) {
	url := strings.TrimSpace(msg.Text)
	if url == "" {
		return
	}

	if !SupportedURL(url) {
		c.invalid.Inc()
		if _, err := c.transport.SendText(ctx, msg.ChatID, invalidURLReply); err != nil {
			c.logger.Warn("could not send rejection reply", "chat_id", msg.ChatID, "err", err)
		}
		return
	}

	c.inflight.Inc()
	defer c.inflight.Dec()

	start := time.Now()

	status, err := c.transport.SendText(ctx, msg.ChatID, statusFinding)
	if err != nil {
		// No status handle exists yet, so there is nothing to edit or clean.
		c.logger.Error("could not post status message", "chat_id", msg.ChatID, "url", url, "err", err)
		return
	}

	var artifact string
	defer func() {
		// Runs on every exit path, including the size rejection and any
		// failure after the file appeared on disk. Cleanup of an already
		// removed file is a no-op.
		if artifact == "" {
			return
		}
		if err := c.steward.Cleanup(artifact); err != nil {
			c.logger.Warn("artifact cleanup failed", "path", artifact, "err", err)
		}
	}()

	outcome, size, errText := c.process(ctx, url, msg.ChatID, status, &artifact)

	c.requests[outcome].Inc()
	if size > 0 {
		c.bytes.Add(size)
	}
	c.record(ctx, domain.RequestRecord{
		URL:      url,
		ChatID:   msg.ChatID,
		Outcome:  outcome,
		Bytes:    size,
		Error:    errText,
		Duration: time.Since(start),
	})
}

// process walks the happy path and routes every recoverable failure through
// fail. It reports the terminal state, the produced file size (when known)
// and the raw failure text.
func (c *Controller) process(ctx context.Context, url, chatID string, status domain.MessageRef, artifact *string) (domain.Outcome, int64, string) {
	if err := c.transport.EditText(ctx, status, statusDownloading); err != nil {
		return c.fail(ctx, status, url, err)
	}

	tpl, err := c.steward.PreparePathTemplate()
	if err != nil {
		return c.fail(ctx, status, url, err)
	}

	dctx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	path, err := c.extractor.Extract(dctx, url, tpl)
	if err != nil {
		return c.fail(ctx, status, url, err)
	}
	*artifact = path

	if err := c.transport.EditText(ctx, status, statusUploading); err != nil {
		return c.fail(ctx, status, url, err)
	}

	size, err := storage.FileSize(path)
	if err != nil {
		return c.fail(ctx, status, url, err)
	}

	if !storage.WithinLimit(size) {
		if err := c.transport.EditText(ctx, status, storage.TooLargeMessage(size)); err != nil {
			c.logger.Warn("could not edit status with size rejection", "chat_id", chatID, "err", err)
		}
		return domain.OutcomeTooLarge, size, ""
	}

	if err := c.transport.SendVideo(ctx, chatID, path); err != nil {
		return c.fail(ctx, status, url, err)
	}

	// Deleting the status is cosmetic: a failure here must not fail the
	// request.
	if err := c.transport.DeleteMessage(ctx, status); err != nil {
		c.logger.Warn("could not delete status message", "chat_id", chatID, "err", err)
	}

	return domain.OutcomeDelivered, size, ""
}

// fail logs the original failure with its URL, classifies it and surfaces
// the display text through the status message.
func (c *Controller) fail(ctx context.Context, status domain.MessageRef, url string, cause error) (domain.Outcome, int64, string) {
	c.logger.Error("request failed", "url", url, "err", cause)

	_, display := extract.Classify(cause.Error())
	if err := c.transport.EditText(ctx, status, "Error: "+display); err != nil {
		// Best effort: the final error edit has no further fallback.
		c.logger.Warn("could not edit status with error", "url", url, "err", err)
	}

	return domain.OutcomeFailed, 0, cause.Error()
}

func (c *Controller) record(ctx context.Context, rec domain.RequestRecord) {
	if c.history == nil {
		return
	}
	if err := c.history.Record(ctx, rec); err != nil {
		c.logger.Warn("could not record request history", "url", rec.URL, "err", err)
	}
}

// StartReply and HelpReply are the command responses served by the
// transport layer.
func StartReply() string {
	return "Hi! Send me a YouTube or Instagram link and I'll download it for you."
}

func HelpReply() string {
	return fmt.Sprintf(
		"Simply paste a valid URL from YouTube or Instagram, and I will try to download the video for you. Videos over %dMB cannot be delivered.",
		storage.MaxVideoBytes/(1024*1024),
	)
}
