package orders

import (
	"github.com/finvera/wealthgate/internal/gateway/credentials"
	"github.com/finvera/wealthgate/internal/gateway/decode"
	"github.com/finvera/wealthgate/internal/gateway/encode"
	"github.com/finvera/wealthgate/internal/gateway/token"
	"github.com/finvera/wealthgate/internal/gateway/transport"
	"github.com/finvera/wealthgate/pkg/models"
)

// Transaction codes shared by both protocols: registration vs cancellation
// of an existing instruction.
const (
	txCodeNew    = "NEW"
	txCodeCancel = "CXL"
)

// buildInput carries everything an encoder needs for one gateway call.
type buildInput struct {
	Order      *models.Order
	ClientCode string
	Creds      *credentials.Credentials
	Token      string
	// RefNo is the submitter-scoped reference number for this call: the
	// order's own number for registrations, a freshly issued one for
	// cancellations.
	RefNo string
	// MandateNo is filled only for mandate-backed instruction types.
	MandateNo string
}

// descriptor parameterizes the single generic orchestrator per order type:
// which transport and token area to use, how to encode each operation, and
// how to decode the response. One table entry replaces one near-identical
// orchestrator.
type descriptor struct {
	Type            models.OrderType
	Transport       transport.Kind
	TokenArea       token.Area
	RegisterPath    string
	RegisterAction  string
	CancelPath      string
	CancelAction    string
	RequiresMandate bool
	BuildRegister   func(in buildInput) ([]byte, error)
	BuildCancel     func(in buildInput) ([]byte, error)
	Decode          func(raw []byte) (*decode.Result, error)
}

// descriptors is the order-type strategy table. SIP and XSIP ride the legacy
// envelope+pipe protocol with the order-entry token area; STP and SWP encode
// JSON for the REST transport and authenticate through the
// additional-services channel.
var descriptors = map[models.OrderType]descriptor{
	models.OrderTypeSIP: {
		Type:           models.OrderTypeSIP,
		Transport:      transport.Legacy,
		TokenArea:      token.AreaOrderEntry,
		RegisterPath:   "/MFOrderEntry",
		RegisterAction: "sipOrderEntryParam",
		CancelPath:     "/MFOrderEntry",
		CancelAction:   "sipOrderEntryParam",
		BuildRegister:  buildLegacyRegister("sipOrderEntryParam"),
		BuildCancel:    buildLegacyCancel("sipOrderEntryParam"),
		Decode:         decode.Legacy,
	},
	models.OrderTypeXSIP: {
		Type:            models.OrderTypeXSIP,
		Transport:       transport.Legacy,
		TokenArea:       token.AreaOrderEntry,
		RegisterPath:    "/MFOrderEntry",
		RegisterAction:  "xsipOrderEntryParam",
		CancelPath:      "/MFOrderEntry",
		CancelAction:    "xsipOrderEntryParam",
		RequiresMandate: true,
		BuildRegister:   buildLegacyRegister("xsipOrderEntryParam"),
		BuildCancel:     buildLegacyCancel("xsipOrderEntryParam"),
		Decode:          decode.Legacy,
	},
	models.OrderTypeSTP: {
		Type:           models.OrderTypeSTP,
		Transport:      transport.REST,
		TokenArea:      token.AreaAdditionalServices,
		RegisterPath:   "/STPRegistration",
		RegisterAction: "STPRegistration",
		CancelPath:     "/STPCancellation",
		CancelAction:   "STPCancellation",
		BuildRegister:  buildRESTRegister,
		BuildCancel:    buildRESTCancel,
		Decode:         decode.REST,
	},
	models.OrderTypeSWP: {
		Type:           models.OrderTypeSWP,
		Transport:      transport.REST,
		TokenArea:      token.AreaAdditionalServices,
		RegisterPath:   "/SWPRegistration",
		RegisterAction: "SWPRegistration",
		CancelPath:     "/SWPCancellation",
		CancelAction:   "SWPCancellation",
		BuildRegister:  buildRESTRegister,
		BuildCancel:    buildRESTCancel,
		Decode:         decode.REST,
	},
}

// buildLegacyRegister encodes the positional registration parameter string.
// Field order is fixed by the gateway contract; absent optional fields
// encode as explicit empty placeholders, never skipped slots.
func buildLegacyRegister(action string) func(in buildInput) ([]byte, error) {
	return func(in buildInput) ([]byte, error) {
		o := in.Order
		param := encode.Pipe([]any{
			txCodeNew,           // 0: transaction code
			in.RefNo,            // 1: unique reference number
			in.Creds.MemberID,   // 2: member id
			in.ClientCode,       // 3: gateway client code (UCC)
			o.SchemeCode,        // 4: scheme
			string(o.Frequency), // 5: frequency
			o.StartDate,         // 6: start date
			o.Amount,            // 7: amount (empty for unit-based)
			o.Units,             // 8: units (empty for amount-based)
			installments(o),     // 9: installment count
			o.EndDate,           // 10: end date
			o.FolioNumber,       // 11: folio
			o.FirstOrderFlag,    // 12: first order flag
			in.MandateNo,        // 13: mandate (XSIP only)
			in.Creds.EUIN,       // 14
			in.Creds.ARN,        // 15
			"",                  // 16: remarks
		})
		return encode.Envelope(action, in.Token, param)
	}
}

// buildLegacyCancel encodes the cancellation parameter string. Cancellation
// shares the registration action but carries the CXL transaction code and
// the gateway's own registration number.
func buildLegacyCancel(action string) func(in buildInput) ([]byte, error) {
	return func(in buildInput) ([]byte, error) {
		o := in.Order
		param := encode.Pipe([]any{
			txCodeCancel,              // 0: transaction code
			in.RefNo,                  // 1: unique reference number for this call
			in.Creds.MemberID,         // 2
			in.ClientCode,             // 3
			o.GatewayRegistrationNo,   // 4: instruction being cancelled
			in.Creds.EUIN,             // 5
			in.Creds.ARN,              // 6
			"",                        // 7: remarks
		})
		return encode.Envelope(action, in.Token, param)
	}
}

func buildRESTRegister(in buildInput) ([]byte, error) {
	o := in.Order
	body := &encode.RegistrationBody{
		MemberID:        in.Creds.MemberID,
		ClientCode:      in.ClientCode,
		Token:           in.Token,
		TransactionNo:   in.RefNo,
		SchemeCode:      o.SchemeCode,
		ToSchemeCode:    o.ToSchemeCode,
		TransactionCode: txCodeNew,
		Amount:          encode.AmountToken(o.Amount),
		Units:           encode.AmountToken(o.Units),
		Frequency:       string(o.Frequency),
		StartDate:       o.StartDate.Format(encode.DateLayout),
		EndDate:         encode.DateToken(o.EndDate),
		Installments:    o.Installments,
		FolioNumber:     o.FolioNumber,
		FirstOrder:      flag(o.FirstOrderFlag),
		EUIN:            in.Creds.EUIN,
		ARN:             in.Creds.ARN,
	}
	return encode.JSON(body)
}

func buildRESTCancel(in buildInput) ([]byte, error) {
	body := &encode.CancellationBody{
		MemberID:        in.Creds.MemberID,
		ClientCode:      in.ClientCode,
		Token:           in.Token,
		TransactionNo:   in.RefNo,
		RegistrationNo:  in.Order.GatewayRegistrationNo,
		TransactionCode: txCodeCancel,
	}
	return encode.JSON(body)
}

// installments returns the encoded installment count, applying the gateway's
// until-cancelled sentinel when unspecified.
func installments(o *models.Order) int {
	if o.Installments == 0 {
		return encode.UntilCancelledInstallments
	}
	return o.Installments
}

func flag(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
