// Package proxy provides an OpenAI-compatible vision proxy that rewrites
// legacy image-bearing chat payloads into standard multimodal content parts
// before forwarding them to the upstream model server.
package proxy

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/meterlab/graphsight/pkg/chat"
)

// userAgent identifies the proxy on upstream calls.
const userAgent = "graphsight-proxy/1.0"

// Proxy is a stateless pass-through in front of a vision model server. Each
// request is translated and forwarded independently; nothing is shared
// between requests, so concurrent callers are naturally isolated.
type Proxy struct {
	config     Config
	logger     *zap.Logger
	httpClient *http.Client
	server     *fiber.App
}

// New creates a new Proxy.
func New(config Config, logger *zap.Logger) *Proxy {
	if config.Timeout <= 0 {
		// Local vision models can take minutes on large images
		config.Timeout = 5 * time.Minute
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Image payloads arrive base64-inline and can be large
		BodyLimit: 64 * 1024 * 1024,
	})

	p := &Proxy{
		config: config,
		logger: logger,
		server: app,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}

	app.Post("/v1/chat/completions", p.handleChatCompletions)
	app.Get("/v1/models", p.handleModels)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"ok":       true,
			"upstream": p.config.UpstreamURL,
			"model":    p.config.Model,
		})
	})

	return p
}

// Run starts the proxy server on the configured listening address.
func (p *Proxy) Run() error {
	p.logger.Info("starting vision proxy",
		zap.String("listen", p.config.ListenAddr),
		zap.String("upstream", p.config.UpstreamURL),
	)

	return p.server.Listen(p.config.ListenAddr)
}

// Close shuts the server down.
func (p *Proxy) Close() error {
	return p.server.Shutdown()
}

// handleChatCompletions rewrites legacy payloads into the standard multimodal
// shape and forwards them upstream. The upstream response travels back to the
// caller verbatim: same status code, same body. Upstream errors are not
// retried.
func (p *Proxy) handleChatCompletions(c *fiber.Ctx) error {
	body, rewritten, err := chat.Translate(c.Body())
	if err != nil {
		p.logger.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(chat.Error("invalid request body"))
	}

	var req struct {
		Model  string `json:"model"`
		Stream bool   `json:"stream"`
	}
	// Best effort; Translate already established the body parses.
	_ = json.Unmarshal(body, &req)

	p.logger.Debug("received chat request",
		zap.String("model", req.Model),
		zap.Bool("rewritten", rewritten),
		zap.Bool("stream", req.Stream),
	)

	upstreamReq, err := p.newUpstreamRequest(c, http.MethodPost, "/v1/chat/completions", body)
	if err != nil {
		p.logger.Error("failed to create upstream request", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(chat.Error("internal error"))
	}

	resp, err := p.httpClient.Do(upstreamReq)
	if err != nil {
		p.logger.Error("upstream request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(chat.Error(fmt.Sprintf("upstream request failed: %v", err)))
	}

	if req.Stream && resp.StatusCode == http.StatusOK {
		return p.streamResponse(c, resp)
	}

	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Error("failed to read upstream response", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(chat.Error("failed to read upstream response"))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		model := req.Model
		if model == "" {
			model = p.config.Model
		}
		respBody = chat.EnsureResponseDefaults(respBody, model)
	} else {
		p.logger.Warn("upstream returned error",
			zap.Int("status", resp.StatusCode),
		)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		c.Set(fiber.HeaderContentType, ct)
	} else {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return c.Status(resp.StatusCode).Send(respBody)
}

// streamResponse pipes the upstream body to the caller chunk by chunk. The
// response is owned by the stream writer, which closes it when the upstream
// finishes.
func (p *Proxy) streamResponse(c *fiber.Ctx, resp *http.Response) error {
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/event-stream"
	}
	c.Set(fiber.HeaderContentType, contentType)

	p.logger.Debug("streaming upstream response",
		zap.String("content_type", contentType),
	)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer resp.Body.Close()

		buf := make([]byte, 32*1024)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				if _, werr := w.Write(buf[:n]); werr != nil {
					return
				}
				if werr := w.Flush(); werr != nil {
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					p.logger.Error("error reading stream", zap.Error(err))
				}
				return
			}
		}
	}))

	return nil
}

// handleModels forwards the model listing. When the upstream is unreachable
// the proxy answers with a single-entry fallback list so discovery keeps
// working.
func (p *Proxy) handleModels(c *fiber.Ctx) error {
	upstreamReq, err := p.newUpstreamRequest(c, http.MethodGet, "/v1/models", nil)
	if err != nil {
		return c.JSON(p.fallbackModels())
	}

	resp, err := p.httpClient.Do(upstreamReq)
	if err != nil {
		p.logger.Warn("model listing failed, serving fallback", zap.Error(err))
		return c.JSON(p.fallbackModels())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		p.logger.Warn("model listing failed, serving fallback",
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return c.JSON(p.fallbackModels())
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

func (p *Proxy) fallbackModels() fiber.Map {
	return fiber.Map{
		"object": "list",
		"data": []fiber.Map{
			{"id": p.config.Model, "object": "model"},
		},
	}
}

// newUpstreamRequest builds an upstream request carrying the proxy's standard
// headers and the bearer credential when one is configured.
func (p *Proxy) newUpstreamRequest(c *fiber.Ctx, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(c.Context(), method, p.config.UpstreamURL+path, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	req.Header.Set("Accept", fiber.MIMEApplicationJSON)
	req.Header.Set("User-Agent", userAgent)
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}
	return req, nil
}
