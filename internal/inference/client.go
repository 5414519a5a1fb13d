package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"ridecare-backend/internal/config"

	"go.uber.org/zap"
)

// maxResponseBytes caps what is read from a model server.
const maxResponseBytes = 32 << 20

// ErrResponseTooLarge is returned when a model server answers with more than
// the client accepts.
var ErrResponseTooLarge = errors.New("inference: response too large")

// RemoteError is a non-2xx answer from a model server.
type RemoteError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// Client talks to the wound report, sign language and chat model servers.
type Client struct {
	woundURL string
	signURL  string
	chatURL  string
	http     *http.Client
	maxBytes int64
	logger   *zap.Logger
}

func NewClient(cfg config.InferenceConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		woundURL: strings.TrimRight(cfg.WoundURL, "/"),
		signURL:  strings.TrimRight(cfg.SignURL, "/"),
		chatURL:  strings.TrimRight(cfg.ChatURL, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
		maxBytes: maxResponseBytes,
		logger:   logger.Named("inference"),
	}
}

// AnalyzeWound uploads a wound photo and returns the generated PDF report.
func (c *Client) AnalyzeWound(ctx context.Context, filename string, image io.Reader) ([]byte, error) {
	return c.postFile(ctx, c.woundURL+"/analyze_image", filename, image)
}

type predictResponse struct {
	Prediction string `json:"prediction"`
}

// PredictSign uploads one camera frame and returns the recognised sign.
func (c *Client) PredictSign(ctx context.Context, filename string, image io.Reader) (string, error) {
	body, err := c.postFile(ctx, c.signURL+"/predict", filename, image)
	if err != nil {
		return "", err
	}

	var resp predictResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode prediction: %w", err)
	}
	return resp.Prediction, nil
}

// Answer is the medical assistant's reply and the specialty it routed the
// question to.
type Answer struct {
	Specialty string `json:"specialty,omitempty"`
	Answer    string `json:"answer"`
}

// Ask sends one patient question to the assistant as the query parameter of
// POST /ask.
func (c *Client) Ask(ctx context.Context, query string) (*Answer, error) {
	endpoint := c.chatURL + "/ask?" + url.Values{"query": {query}}.Encode()

	body, err := c.do(ctx, endpoint, "", nil)
	if err != nil {
		return nil, err
	}

	var resp Answer
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode assistant answer: %w", err)
	}
	return &resp, nil
}

func (c *Client) postFile(ctx context.Context, url, filename string, image io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	h.Set("Content-Type", imageContentType(filename))
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return c.do(ctx, url, w.FormDataContentType(), &buf)
}

func (c *Client) do(ctx context.Context, url, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("model server unreachable", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("failed to call %s: %w", url, err)
	}
	defer resp.Body.Close()

	// one byte over the cap tells a full body from a truncated one
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	if int64(len(data)) > c.maxBytes {
		c.logger.Warn("model server response over limit", zap.String("url", url), zap.Int64("limit", c.maxBytes))
		return nil, fmt.Errorf("%s: %w", url, ErrResponseTooLarge)
	}

	c.logger.Debug("model server call",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{Endpoint: url, StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, nil
}

// errorMessage prefers the detail field of a FastAPI error body.
func errorMessage(body []byte) string {
	var fastAPI struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &fastAPI); err == nil && len(fastAPI.Detail) > 0 {
		var s string
		if err := json.Unmarshal(fastAPI.Detail, &s); err == nil {
			return s
		}
		return string(fastAPI.Detail)
	}
	return strings.TrimSpace(string(body))
}

func imageContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// IsRemote reports whether err came from a model server's response rather
// than from the network.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
