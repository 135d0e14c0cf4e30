package transport

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/RakhmaMed/Downloader-Bot/internal/bus"
	"github.com/RakhmaMed/Downloader-Bot/internal/metrics"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxUpdateBody bounds the webhook request body. Telegram updates are small
// JSON documents; anything near this size is not a legitimate update.
const maxUpdateBody = 1 << 20

// WebhookServer receives Telegram updates pushed over HTTPS (TLS is
// terminated by a fronting proxy). It also serves /healthz and /metrics.
type WebhookServer struct {
	tg        *Telegram
	publicURL string
	path      string
	secret    string
	addr      string
	collector *metrics.Collector
	logger    *slog.Logger

	server *http.Server
}

// WebhookServerConfig configures the webhook server.
type WebhookServerConfig struct {
	PublicURL string // full URL registered with Telegram
	Path      string // local route, e.g. /webhook/bot
	Secret    string // optional shared secret echoed back by Telegram
	Addr      string // bind address, host:port
	Collector *metrics.Collector
	Logger    *slog.Logger
}

// NewWebhookServer creates the server around an existing Telegram transport.
func NewWebhookServer(tg *Telegram, cfg WebhookServerConfig) *WebhookServer {
	path := cfg.Path
	if path == "" {
		path = "/webhook/bot"
	}
	if path[0] != '/' {
		path = "/" + path
	}
	return &WebhookServer{
		tg:        tg,
		publicURL: cfg.PublicURL,
		path:      path,
		secret:    cfg.Secret,
		addr:      cfg.Addr,
		collector: cfg.Collector,
		logger:    cfg.Logger,
	}
}

// Start registers the webhook with Telegram and serves updates until ctx is
// cancelled, then deregisters it.
func (w *WebhookServer) Start(ctx context.Context, b *bus.InMemoryBus) error {
	w.tg.bus = b

	r := chi.NewRouter()
	r.Post(w.path, w.handleUpdate)
	r.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok"))
	})
	if w.collector != nil {
		r.Get("/metrics", w.collector.Handler())
	}

	w.server = &http.Server{
		Addr:              w.addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := w.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	if err := w.tg.registerWebhook(w.publicURL, w.secret); err != nil {
		w.shutdown()
		return err
	}

	w.logger.Info("webhook server started",
		"addr", w.addr,
		"path", w.path,
		"url", w.publicURL,
		"secret_enabled", w.secret != "",
	)

	select {
	case <-ctx.Done():
		w.logger.Info("webhook server shutting down")
		if err := w.tg.removeWebhook(false); err != nil {
			w.logger.Warn("could not deregister webhook", "err", err)
		}
		return w.shutdown()
	case err := <-errCh:
		return fmt.Errorf("webhook server: %w", err)
	}
}

func (w *WebhookServer) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return w.server.Shutdown(shutdownCtx)
}

func (w *WebhookServer) handleUpdate(rw http.ResponseWriter, r *http.Request) {
	if !w.authorized(r) {
		w.logger.Warn("webhook request with bad secret token", "remote", r.RemoteAddr)
		http.Error(rw, "Forbidden", http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBody))
	if err != nil {
		http.Error(rw, "Bad Request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		http.Error(rw, "Invalid JSON", http.StatusBadRequest)
		return
	}

	w.tg.handleUpdate(update)
	rw.WriteHeader(http.StatusOK)
}

// authorized checks the secret token Telegram echoes back on each delivery.
// Requests are accepted unconditionally when no secret is configured.
func (w *WebhookServer) authorized(r *http.Request) bool {
	if w.secret == "" {
		return true
	}
	got := r.Header.Get(secretTokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(w.secret)) == 1
}
