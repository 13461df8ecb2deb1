// Package transport sends encoded requests to the order-processing gateway
// over either of its two protocols and captures the raw response for the
// decoder.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/finvera/wealthgate/pkg/errors"
	"github.com/finvera/wealthgate/pkg/metrics"
)

// Kind identifies which of the gateway's two protocols a request uses.
type Kind string

const (
	// Legacy is the envelope transport carrying positional pipe-delimited
	// parameter strings.
	Legacy Kind = "legacy"
	// REST is the JSON-over-HTTP transport.
	REST Kind = "rest"
)

func (k Kind) contentType() string {
	if k == Legacy {
		return "text/xml; charset=utf-8"
	}
	return "application/json"
}

// Request is one encoded gateway call.
type Request struct {
	Transport Kind
	// Path is appended to the transport's base URL.
	Path string
	// Action names the gateway operation, for auditing and the legacy
	// SOAPAction header.
	Action string
	Body   []byte

	// AdvisorID and Purpose label the call in the audit log.
	AdvisorID string
	Purpose   string
}

// RawResponse is the unparsed gateway reply.
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// Client issues gateway calls. One call per orchestration attempt: there is
// no internal retry loop, because a retried order submission could register a
// duplicate instruction on the gateway. Retries are the caller's explicit,
// audited decision.
type Client struct {
	logger     *zap.Logger
	httpClient *http.Client
	legacyBase string
	restBase   string
}

// NewClient creates a transport client. timeout bounds the whole round trip;
// there is no orchestrator-level cancellation once a send is issued.
func NewClient(logger *zap.Logger, legacyBase, restBase string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
		legacyBase: legacyBase,
		restBase:   restBase,
	}
}

// Send issues one gateway call and returns the raw response. The call is
// logged before the gateway responds so that gateway-outage failures are
// still auditable.
func (c *Client) Send(ctx context.Context, req *Request) (*RawResponse, error) {
	base := c.restBase
	if req.Transport == Legacy {
		base = c.legacyBase
	}
	url := base + req.Path

	c.logger.Info("sending gateway request",
		zap.String("method", http.MethodPost),
		zap.String("transport", string(req.Transport)),
		zap.String("action", req.Action),
		zap.String("advisor_id", req.AdvisorID),
		zap.String("purpose", req.Purpose),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", req.Transport.contentType())
	if req.Transport == Legacy {
		httpReq.Header.Set("SOAPAction", req.Action)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.GatewayLatency.WithLabelValues(string(req.Transport), req.Action).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayCalls.WithLabelValues(string(req.Transport), req.Action, "unavailable").Inc()
		c.logger.Error("gateway unreachable",
			zap.String("action", req.Action),
			zap.String("advisor_id", req.AdvisorID),
			zap.Error(err),
		)
		return nil, errors.GatewayUnavailable.Explain("gateway call %s failed", req.Action).Cause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.GatewayCalls.WithLabelValues(string(req.Transport), req.Action, "unavailable").Inc()
		return nil, errors.GatewayUnavailable.Explain("failed reading gateway response for %s", req.Action).Cause(err)
	}

	// The legacy endpoint answers 200 even for business rejections; a
	// non-success status on either transport is a transport-level fault.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.GatewayCalls.WithLabelValues(string(req.Transport), req.Action, "error").Inc()
		c.logger.Error("gateway returned non-success status",
			zap.String("action", req.Action),
			zap.Int("status", resp.StatusCode),
		)
		return nil, errors.GatewayError.Explain("gateway call %s returned status %d", req.Action, resp.StatusCode)
	}

	metrics.GatewayCalls.WithLabelValues(string(req.Transport), req.Action, "ok").Inc()
	return &RawResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

// IsTimeout reports whether err stems from a network timeout. Exposed for
// callers that distinguish slow gateways from hard connection failures in
// their logs.
func IsTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
