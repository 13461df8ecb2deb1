// Package token performs the per-functional-area authentication handshake
// with the gateway and caches the resulting tokens.
package token

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finvera/wealthgate/internal/gateway/credentials"
	"github.com/finvera/wealthgate/internal/gateway/decode"
	"github.com/finvera/wealthgate/internal/gateway/encode"
	"github.com/finvera/wealthgate/internal/gateway/transport"
	"github.com/finvera/wealthgate/pkg/errors"
)

// Area is a gateway functional area. Each area has its own handshake and its
// own cache lifetime.
type Area string

const (
	// AreaOrderEntry covers SIP/XSIP order entry on the legacy transport.
	AreaOrderEntry Area = "order-entry"
	// AreaAdditionalServices covers STP/SWP and other services on the REST
	// transport.
	AreaAdditionalServices Area = "additional-services"
)

// getPasswordAction is the legacy handshake operation.
const getPasswordAction = "getPassword"

// Service acquires and caches per-advisor, per-area gateway tokens.
// Acquisition failure is fatal to the enclosing orchestration and is not
// retried transparently.
type Service struct {
	logger    *zap.Logger
	creds     *credentials.Provider
	transport *transport.Client
	cache     Cache
	ttl       map[Area]time.Duration
}

// NewService creates a token service. orderEntryTTL and serviceTTL bound the
// cache lifetime of the two functional areas independently.
func NewService(logger *zap.Logger, creds *credentials.Provider, tc *transport.Client, cache Cache, orderEntryTTL, serviceTTL time.Duration) *Service {
	if orderEntryTTL == 0 {
		orderEntryTTL = 4 * time.Minute
	}
	if serviceTTL == 0 {
		serviceTTL = 55 * time.Minute
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Service{
		logger:    logger,
		creds:     creds,
		transport: tc,
		cache:     cache,
		ttl: map[Area]time.Duration{
			AreaOrderEntry:         orderEntryTTL,
			AreaAdditionalServices: serviceTTL,
		},
	}
}

// Token returns a valid token for the advisor and functional area,
// performing the handshake on cache miss.
func (s *Service) Token(ctx context.Context, advisorID uuid.UUID, area Area) (string, error) {
	key := fmt.Sprintf("%s:%s", advisorID, area)
	if tok, ok := s.cache.Get(ctx, key); ok {
		return tok, nil
	}

	creds, err := s.creds.Resolve(ctx, advisorID)
	if err != nil {
		return "", err
	}

	var tok string
	switch area {
	case AreaOrderEntry:
		tok, err = s.legacyHandshake(ctx, advisorID, creds)
	case AreaAdditionalServices:
		tok, err = s.restHandshake(ctx, advisorID, creds)
	default:
		return "", fmt.Errorf("unknown token area %q", area)
	}
	if err != nil {
		return "", err
	}

	s.cache.Set(ctx, key, tok, s.ttl[area])
	return tok, nil
}

// legacyHandshake performs the order-entry getPassword exchange: a pipe
// parameter string of user id, member id, pass-key, answered by a pipe
// result whose first field is the status code and second the session token.
func (s *Service) legacyHandshake(ctx context.Context, advisorID uuid.UUID, creds *credentials.Credentials) (string, error) {
	param := encode.Pipe([]any{creds.UserID, creds.MemberID, creds.PassKey})
	body, err := encode.Envelope(getPasswordAction, "", param)
	if err != nil {
		return "", err
	}

	raw, err := s.transport.Send(ctx, &transport.Request{
		Transport: transport.Legacy,
		Path:      "/MFOrderEntry",
		Action:    getPasswordAction,
		Body:      body,
		AdvisorID: advisorID.String(),
		Purpose:   "order-entry token handshake",
	})
	if err != nil {
		return "", errors.AuthenticationFailed.Explain("order-entry handshake failed").Cause(err)
	}

	res, err := decode.Legacy(raw.Body)
	if err != nil {
		return "", errors.AuthenticationFailed.Explain("order-entry handshake response unreadable").Cause(err)
	}
	if !res.Success || len(res.Data) == 0 || res.Data[0] == "" {
		s.logger.Warn("order-entry handshake rejected",
			zap.String("advisor_id", advisorID.String()),
			zap.String("code", res.Code),
		)
		return "", errors.AuthenticationFailed.Explain("gateway rejected order-entry handshake: %s", res.Message)
	}
	return res.Data[0], nil
}

// restHandshake performs the additional-services JSON authentication call.
func (s *Service) restHandshake(ctx context.Context, advisorID uuid.UUID, creds *credentials.Credentials) (string, error) {
	body, err := encode.JSON(&encode.AuthBody{
		MemberID: creds.MemberID,
		UserID:   creds.UserID,
		Password: creds.PassKey,
	})
	if err != nil {
		return "", err
	}

	raw, err := s.transport.Send(ctx, &transport.Request{
		Transport: transport.REST,
		Path:      "/Authentication",
		Action:    "Authentication",
		Body:      body,
		AdvisorID: advisorID.String(),
		Purpose:   "additional-services token handshake",
	})
	if err != nil {
		return "", errors.AuthenticationFailed.Explain("additional-services handshake failed").Cause(err)
	}

	res, err := decode.REST(raw.Body)
	if err != nil {
		return "", errors.AuthenticationFailed.Explain("additional-services handshake response unreadable").Cause(err)
	}
	if !res.Success || len(res.Data) == 0 || res.Data[0] == "" {
		s.logger.Warn("additional-services handshake rejected",
			zap.String("advisor_id", advisorID.String()),
			zap.String("code", res.Code),
		)
		return "", errors.AuthenticationFailed.Explain("gateway rejected additional-services handshake: %s", res.Message)
	}
	return res.Data[0], nil
}
