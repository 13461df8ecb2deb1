// Package orders implements the systematic-order orchestrators: one generic
// submission/cancellation pipeline parameterized by an order-type descriptor,
// covering SIP, XSIP, STP and SWP instructions.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finvera/wealthgate/internal/config"
	"github.com/finvera/wealthgate/internal/gateway/credentials"
	"github.com/finvera/wealthgate/internal/gateway/decode"
	"github.com/finvera/wealthgate/internal/gateway/mock"
	"github.com/finvera/wealthgate/internal/gateway/refnum"
	"github.com/finvera/wealthgate/internal/gateway/token"
	"github.com/finvera/wealthgate/internal/gateway/transport"
	"github.com/finvera/wealthgate/pkg/errors"
	"github.com/finvera/wealthgate/pkg/metrics"
	"github.com/finvera/wealthgate/pkg/models"
)

// validate checks the struct-level constraints on persisted records.
var validate = validator.New()

// RegisterRequest is the inbound instruction registration payload.
type RegisterRequest struct {
	Type         models.OrderType `json:"type" binding:"required,oneof=SIP XSIP STP SWP"`
	ClientID     uuid.UUID        `json:"client_id" binding:"required"`
	SchemeCode   string           `json:"scheme_code" binding:"required"`
	ToSchemeCode string           `json:"to_scheme_code,omitempty"`
	Amount       decimal.Decimal  `json:"amount"`
	Units        decimal.Decimal  `json:"units"`
	Frequency    models.Frequency `json:"frequency" binding:"required,oneof=DAILY WEEKLY MONTHLY QUARTERLY"`
	StartDate    time.Time        `json:"start_date" binding:"required"`
	EndDate      *time.Time       `json:"end_date,omitempty"`
	Installments int              `json:"installments,omitempty"`
	FolioNumber  string           `json:"folio_number,omitempty"`
	FirstOrder   bool             `json:"first_order"`
	MandateID    *uuid.UUID       `json:"mandate_id,omitempty"`
}

// RegisterResult is the orchestration outcome returned to the caller. A
// business rejection is a successful orchestration with Success=false.
type RegisterResult struct {
	OrderID        uuid.UUID `json:"order_id"`
	RegistrationNo string    `json:"registration_no,omitempty"`
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
}

// CancelResult is the cancellation outcome.
type CancelResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Service is the generic order orchestrator. Each orchestration runs as an
// independent unit of work; the only cross-request serialization points are
// the reference-number sequence and the storage transaction around each
// status update.
type Service struct {
	logger    *zap.Logger
	repo      *Repository
	creds     *credentials.Provider
	refnums   refnum.Generator
	tokens    *token.Service
	transport *transport.Client
	mock      *mock.Gateway
	mode      config.GatewayMode
	events    EventPublisher
}

// NewService creates the orchestrator. The gateway mode is injected here so
// tests can run live and mock configurations side by side in one process.
func NewService(
	logger *zap.Logger,
	repo *Repository,
	creds *credentials.Provider,
	refnums refnum.Generator,
	tokens *token.Service,
	tc *transport.Client,
	mode config.GatewayMode,
	events EventPublisher,
) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{
		logger:    logger,
		repo:      repo,
		creds:     creds,
		refnums:   refnums,
		tokens:    tokens,
		transport: tc,
		mock:      mock.New(),
		mode:      mode,
		events:    events,
	}
}

// Register validates preconditions, durably creates the order and submits it
// to the gateway (or the mock), then applies exactly one terminal transition.
// Precondition and fatal failures leave no mutation beyond the CREATED
// write; the order stays recoverable when the gateway's decision is unknown.
func (s *Service) Register(ctx context.Context, advisorID uuid.UUID, req *RegisterRequest) (*RegisterResult, error) {
	desc, ok := descriptors[req.Type]
	if !ok {
		return nil, errors.Invalid.Explain("unknown order type %q", req.Type)
	}
	if err := validateRegister(req, desc); err != nil {
		return nil, err
	}

	// Ownership check first; NotFound deliberately hides cross-advisor
	// existence.
	if _, err := s.repo.GetClientForAdvisor(ctx, advisorID, req.ClientID); err != nil {
		return nil, err
	}

	creds, err := s.creds.Resolve(ctx, advisorID)
	if err != nil {
		return nil, err
	}

	ucc, err := s.repo.GetUCC(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	var mandateNo string
	if desc.RequiresMandate {
		if req.MandateID == nil {
			return nil, errors.Invalid.Explain("%s requires a mandate", req.Type)
		}
		mandate, err := s.repo.GetMandate(ctx, req.ClientID, *req.MandateID)
		if err != nil {
			return nil, err
		}
		if mandate.Status != models.MandateStatusApproved {
			return nil, errors.NotFound.Explain("mandate %s is not approved", mandate.ID)
		}
		mandateNo = mandate.MandateNo
	}

	refNo, err := s.refnums.Next(ctx, creds.MemberID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue reference number: %w", err)
	}

	order := &models.Order{
		ID:              uuid.New(),
		AdvisorID:       advisorID,
		ClientID:        req.ClientID,
		ReferenceNumber: refNo,
		MemberID:        creds.MemberID,
		Type:            req.Type,
		Status:          models.OrderStatusCreated,
		SchemeCode:      req.SchemeCode,
		ToSchemeCode:    req.ToSchemeCode,
		Amount:          req.Amount,
		Units:           req.Units,
		Frequency:       req.Frequency,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Installments:    req.Installments,
		FolioNumber:     req.FolioNumber,
		FirstOrderFlag:  req.FirstOrder,
		MandateID:       req.MandateID,
	}

	if err := validate.Struct(order); err != nil {
		return nil, errors.Invalid.Explain("order failed validation").Cause(err)
	}

	// Durable before any network call: a crash mid-flight leaves an
	// inspectable CREATED record, never a silent loss.
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	var result *decode.Result
	if s.mode == config.GatewayModeMock {
		result = s.mock.Response(req.Type, mock.ActionRegister)
	} else {
		result, err = s.submitLive(ctx, advisorID, desc, buildInput{
			Order:      order,
			ClientCode: ucc.ClientCode,
			Creds:      creds,
			RefNo:      refNo,
			MandateNo:  mandateNo,
		})
		if err != nil {
			// Gateway decision unknown: the order stays CREATED for operator
			// inspection or resubmission.
			s.logger.Warn("submission status unknown, order recoverable",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
			return nil, err
		}
	}

	return s.finalizeRegistration(ctx, order, result)
}

// submitLive runs the token -> encode -> send -> decode pipeline for one
// registration attempt.
func (s *Service) submitLive(ctx context.Context, advisorID uuid.UUID, desc descriptor, in buildInput) (*decode.Result, error) {
	tok, err := s.tokens.Token(ctx, advisorID, desc.TokenArea)
	if err != nil {
		return nil, err
	}
	in.Token = tok

	body, err := desc.BuildRegister(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s registration: %w", desc.Type, err)
	}

	raw, err := s.transport.Send(ctx, &transport.Request{
		Transport: desc.Transport,
		Path:      desc.RegisterPath,
		Action:    desc.RegisterAction,
		Body:      body,
		AdvisorID: advisorID.String(),
		Purpose:   fmt.Sprintf("%s registration", desc.Type),
	})
	if err != nil {
		return nil, err
	}

	return desc.Decode(raw.Body)
}

// finalizeRegistration applies the single CREATED -> ACCEPTED/REJECTED
// transition and reports the outcome. Shared by the mock and live paths so
// their order mutations are identical for equivalent decoded results.
func (s *Service) finalizeRegistration(ctx context.Context, order *models.Order, result *decode.Result) (*RegisterResult, error) {
	if result.Success {
		regNo := result.RegistrationNo()
		if err := s.repo.MarkAccepted(ctx, order.ID, regNo, result.Code, result.Message); err != nil {
			return nil, err
		}
		metrics.OrdersSubmitted.WithLabelValues(string(order.Type), "accepted").Inc()
		s.publish(ctx, OrderEvent{
			Type:           EventOrderAccepted,
			OrderID:        order.ID,
			AdvisorID:      order.AdvisorID,
			OrderType:      order.Type,
			Status:         models.OrderStatusAccepted,
			RegistrationNo: regNo,
			Code:           result.Code,
			Message:        result.Message,
			OccurredAt:     time.Now(),
		})
		return &RegisterResult{
			OrderID:        order.ID,
			RegistrationNo: regNo,
			Success:        true,
			Message:        result.Message,
		}, nil
	}

	// A business rejection is a legitimate gateway response, not an error:
	// the orchestration succeeded and produced a negative outcome.
	if err := s.repo.MarkRejected(ctx, order.ID, result.Code, result.Message); err != nil {
		return nil, err
	}
	metrics.OrdersSubmitted.WithLabelValues(string(order.Type), "rejected").Inc()
	s.publish(ctx, OrderEvent{
		Type:       EventOrderRejected,
		OrderID:    order.ID,
		AdvisorID:  order.AdvisorID,
		OrderType:  order.Type,
		Status:     models.OrderStatusRejected,
		Code:       result.Code,
		Message:    result.Message,
		OccurredAt: time.Now(),
	})
	return &RegisterResult{
		OrderID: order.ID,
		Success: false,
		Message: result.Message,
	}, nil
}

// Cancel submits a cancellation for a previously accepted instruction. The
// order must already hold a gateway registration number: you cannot cancel
// what was never accepted.
func (s *Service) Cancel(ctx context.Context, advisorID, orderID uuid.UUID) (*CancelResult, error) {
	order, err := s.repo.GetOrderForAdvisor(ctx, advisorID, orderID)
	if err != nil {
		return nil, err
	}
	if order.GatewayRegistrationNo == "" || order.Status != models.OrderStatusAccepted {
		return nil, errors.NotFound.Explain("order %s has no cancellable gateway registration", orderID)
	}

	desc := descriptors[order.Type]

	var result *decode.Result
	if s.mode == config.GatewayModeMock {
		result = s.mock.Response(order.Type, mock.ActionCancel)
	} else {
		result, err = s.cancelLive(ctx, advisorID, desc, order)
		if err != nil {
			// Decoder or transport failure leaves the order unchanged; the
			// failure surfaces, never silently swallowed.
			return nil, err
		}
	}

	if !result.Success {
		return &CancelResult{Success: false, Message: result.Message}, nil
	}

	if err := s.repo.MarkCancelled(ctx, order.ID, result.Code, result.Message); err != nil {
		return nil, err
	}
	s.publish(ctx, OrderEvent{
		Type:           EventOrderCancelled,
		OrderID:        order.ID,
		AdvisorID:      order.AdvisorID,
		OrderType:      order.Type,
		Status:         models.OrderStatusCancelled,
		RegistrationNo: order.GatewayRegistrationNo,
		Code:           result.Code,
		Message:        result.Message,
		OccurredAt:     time.Now(),
	})
	return &CancelResult{Success: true, Message: result.Message}, nil
}

func (s *Service) cancelLive(ctx context.Context, advisorID uuid.UUID, desc descriptor, order *models.Order) (*decode.Result, error) {
	creds, err := s.creds.Resolve(ctx, advisorID)
	if err != nil {
		return nil, err
	}
	ucc, err := s.repo.GetUCC(ctx, order.ClientID)
	if err != nil {
		return nil, err
	}
	refNo, err := s.refnums.Next(ctx, creds.MemberID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue reference number: %w", err)
	}
	tok, err := s.tokens.Token(ctx, advisorID, desc.TokenArea)
	if err != nil {
		return nil, err
	}

	body, err := desc.BuildCancel(buildInput{
		Order:      order,
		ClientCode: ucc.ClientCode,
		Creds:      creds,
		Token:      tok,
		RefNo:      refNo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s cancellation: %w", desc.Type, err)
	}

	raw, err := s.transport.Send(ctx, &transport.Request{
		Transport: desc.Transport,
		Path:      desc.CancelPath,
		Action:    desc.CancelAction,
		Body:      body,
		AdvisorID: advisorID.String(),
		Purpose:   fmt.Sprintf("%s cancellation", desc.Type),
	})
	if err != nil {
		return nil, err
	}

	return desc.Decode(raw.Body)
}

// InstallmentHistory returns the child orders recorded for an instruction,
// oldest first. Read-only passthrough to storage.
func (s *Service) InstallmentHistory(ctx context.Context, advisorID, orderID uuid.UUID) ([]models.ChildOrder, error) {
	if _, err := s.repo.GetOrderForAdvisor(ctx, advisorID, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListChildOrders(ctx, orderID)
}

func (s *Service) publish(ctx context.Context, event OrderEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID.String()),
			zap.Error(err),
		)
	}
}

func validateRegister(req *RegisterRequest, desc descriptor) error {
	if req.SchemeCode == "" {
		return errors.Invalid.Explain("scheme code is required")
	}
	if req.Amount.IsZero() && req.Units.IsZero() {
		return errors.Invalid.Explain("either amount or units is required")
	}
	if req.Type == models.OrderTypeSTP && req.ToSchemeCode == "" {
		return errors.Invalid.Explain("STP requires a destination scheme")
	}
	if req.StartDate.IsZero() {
		return errors.Invalid.Explain("start date is required")
	}
	return nil
}
