// Package models contains the persistent domain model for the systematic
// order gateway: recurring instructions, gateway onboarding records and the
// read-only collaborator entities they reference.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderType identifies the kind of systematic instruction.
type OrderType string

const (
	OrderTypeSIP  OrderType = "SIP"
	OrderTypeXSIP OrderType = "XSIP"
	OrderTypeSTP  OrderType = "STP"
	OrderTypeSWP  OrderType = "SWP"
)

// Valid reports whether t is a known instruction type.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeSIP, OrderTypeXSIP, OrderTypeSTP, OrderTypeSWP:
		return true
	}
	return false
}

// OrderStatus is the lifecycle state of a systematic instruction.
//
// CREATED is written durably before any network call. Exactly one transition
// to ACCEPTED or REJECTED follows the gateway's decision; ACCEPTED may later
// move to CANCELLED. REJECTED and CANCELLED are terminal. There is no path
// back to CREATED.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusAccepted  OrderStatus = "ACCEPTED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// CanTransition reports whether the state machine permits moving to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	switch s {
	case OrderStatusCreated:
		return next == OrderStatusAccepted || next == OrderStatusRejected
	case OrderStatusAccepted:
		return next == OrderStatusCancelled
	}
	return false
}

// Frequency of installment execution.
type Frequency string

const (
	FrequencyDaily     Frequency = "DAILY"
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
)

// Order is a systematic-instruction record. It is an audit record: rows are
// never deleted, and the reference number is immutable once assigned.
type Order struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	AdvisorID uuid.UUID `json:"advisor_id" gorm:"type:uuid;index;not null"`
	ClientID  uuid.UUID `json:"client_id" gorm:"type:uuid;index;not null"`

	// ReferenceNumber is unique per submitting member and immutable once set.
	ReferenceNumber string      `json:"reference_number" gorm:"uniqueIndex:idx_member_refno;not null"`
	MemberID        string      `json:"member_id" gorm:"uniqueIndex:idx_member_refno;index;not null"`
	Type            OrderType   `json:"type" gorm:"type:varchar(8);index;not null" validate:"required,oneof=SIP XSIP STP SWP"`
	Status          OrderStatus `json:"status" gorm:"type:varchar(16);index;not null" validate:"required,oneof=CREATED ACCEPTED REJECTED CANCELLED"`

	SchemeCode     string          `json:"scheme_code" gorm:"not null" validate:"required"`
	ToSchemeCode   string          `json:"to_scheme_code,omitempty"` // STP destination
	Amount         decimal.Decimal `json:"amount" gorm:"type:decimal(20,4)"`
	Units          decimal.Decimal `json:"units" gorm:"type:decimal(20,4)"`
	Frequency      Frequency       `json:"frequency" gorm:"type:varchar(16)" validate:"required,oneof=DAILY WEEKLY MONTHLY QUARTERLY"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        *time.Time      `json:"end_date,omitempty"`
	Installments   int             `json:"installments"`
	FolioNumber    string          `json:"folio_number,omitempty"`
	FirstOrderFlag bool            `json:"first_order_flag"`
	MandateID      *uuid.UUID      `json:"mandate_id,omitempty" gorm:"type:uuid"` // required for XSIP

	// GatewayRegistrationNo is the gateway's identifier for the accepted
	// instruction. Set only on the ACCEPTED transition; required before a
	// cancellation may be attempted.
	GatewayRegistrationNo string     `json:"gateway_registration_no,omitempty" gorm:"index"`
	ResponseCode          string     `json:"response_code,omitempty"`
	ResponseMessage       string     `json:"response_message,omitempty"`
	SubmittedAt           *time.Time `json:"submitted_at,omitempty"`
	CancelledAt           *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client is the advisor-owned investor record. Read-only input here.
type Client struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	AdvisorID uuid.UUID `json:"advisor_id" gorm:"type:uuid;index;not null"`
	Name      string    `json:"name"`
	PAN       string    `json:"pan" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UCCRegistration maps an internal client to the gateway's own client code.
// Absence is a precondition failure, not an error to retry.
type UCCRegistration struct {
	ID         uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	ClientID   uuid.UUID `json:"client_id" gorm:"type:uuid;uniqueIndex;not null"`
	ClientCode string    `json:"client_code" gorm:"index;not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MandateStatus is the approval state of a bank-debit mandate.
type MandateStatus string

const (
	MandateStatusPending   MandateStatus = "PENDING"
	MandateStatusApproved  MandateStatus = "APPROVED"
	MandateStatusRejected  MandateStatus = "REJECTED"
	MandateStatusExhausted MandateStatus = "EXHAUSTED"
)

// Mandate is a pre-approved bank-debit authorization, required for XSIP.
type Mandate struct {
	ID        uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	ClientID  uuid.UUID       `json:"client_id" gorm:"type:uuid;index;not null"`
	MandateNo string          `json:"mandate_no" gorm:"index;not null"`
	Status    MandateStatus   `json:"status" gorm:"type:varchar(16);not null"`
	Limit     decimal.Decimal `json:"limit" gorm:"type:decimal(20,4)"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AdvisorCredential holds an advisor's gateway onboarding secrets. The
// pass-key is stored encrypted and decrypted on demand; plaintext is never
// persisted or logged by this subsystem.
type AdvisorCredential struct {
	ID                 uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	AdvisorID          uuid.UUID `json:"advisor_id" gorm:"type:uuid;uniqueIndex;not null"`
	MemberID           string    `json:"member_id" gorm:"index;not null"`
	UserID             string    `json:"user_id" gorm:"not null"`
	ARN                string    `json:"arn"`
	EUIN               string    `json:"euin"`
	EncryptedPassKey   []byte    `json:"-" gorm:"column:encrypted_pass_key;not null"`
	PassKeyNonce       []byte    `json:"-" gorm:"column:pass_key_nonce;not null"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ChildOrder is an individual installment execution generated over time by
// the downstream scheduler. This subsystem only reads them.
type ChildOrder struct {
	ID            uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	OrderID       uuid.UUID       `json:"order_id" gorm:"type:uuid;index;not null"`
	InstallmentNo int             `json:"installment_no" gorm:"not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(20,4)"`
	Status        string          `json:"status"`
	ExecutedAt    *time.Time      `json:"executed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
