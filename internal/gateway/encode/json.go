package encode

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// UntilCancelledInstallments is the gateway sentinel meaning the instruction
// runs until explicitly cancelled.
const UntilCancelledInstallments = 999

// RegistrationBody is the REST transport request for registering a
// systematic instruction. Field names follow the gateway's documented
// contract; optional fields resolve to the gateway default, never to
// omission.
type RegistrationBody struct {
	MemberID        string `json:"MemberId"`
	ClientCode      string `json:"ClientCode"`
	Token           string `json:"Token"`
	TransactionNo   string `json:"TransNo"`
	SchemeCode      string `json:"SchemeCode"`
	ToSchemeCode    string `json:"ToSchemeCode,omitempty"`
	TransactionCode string `json:"TransCode"`
	Amount          string `json:"Amount"`
	Units           string `json:"Units"`
	Frequency       string `json:"FrequencyType"`
	StartDate       string `json:"StartDate"`
	EndDate         string `json:"EndDate"`
	Installments    int    `json:"NoOfInstallments"`
	FolioNumber     string `json:"FolioNo"`
	FirstOrder      string `json:"FirstOrderFlag"`
	EUIN            string `json:"EUIN"`
	ARN             string `json:"MemberCode"`
}

// CancellationBody is the REST transport request for cancelling a previously
// accepted instruction.
type CancellationBody struct {
	MemberID        string `json:"MemberId"`
	ClientCode      string `json:"ClientCode"`
	Token           string `json:"Token"`
	TransactionNo   string `json:"TransNo"`
	RegistrationNo  string `json:"RegnNo"`
	TransactionCode string `json:"TransCode"`
	Remarks         string `json:"Remarks,omitempty"`
}

// AuthBody is the REST transport authentication handshake request.
type AuthBody struct {
	MemberID string `json:"MemberId"`
	UserID   string `json:"UserId"`
	Password string `json:"Password"`
}

// JSON serializes a REST transport body. Installment counts left at zero are
// replaced with the until-cancelled sentinel before encoding.
func JSON(body any) ([]byte, error) {
	if reg, ok := body.(*RegistrationBody); ok && reg.Installments == 0 {
		reg.Installments = UntilCancelledInstallments
	}
	out, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return out, nil
}

// AmountToken renders a decimal amount for either transport; zero means
// absent and encodes as the empty placeholder.
func AmountToken(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// DateToken renders an optional date for either transport.
func DateToken(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
