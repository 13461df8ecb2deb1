// Package encode builds gateway request payloads for both transports: the
// legacy envelope carrying a positional pipe-delimited parameter string, and
// the JSON bodies of the REST transport. All functions are pure.
package encode

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the gateway's positional date format.
const DateLayout = "02/01/2006"

// Pipe joins positional fields with the pipe character. The gateway has no
// named parameters: omitting a slot would shift every subsequent field, so an
// absent value is always encoded as an explicit empty placeholder. The output
// therefore always has exactly len(fields) tokens.
//
// Supported field types: string, *string, int, int64, bool (Y/N),
// decimal.Decimal, *decimal.Decimal, time.Time, *time.Time, nil.
func Pipe(fields []any) string {
	tokens := make([]string, len(fields))
	for i, f := range fields {
		tokens[i] = fieldToken(f)
	}
	return strings.Join(tokens, "|")
}

func fieldToken(f any) string {
	switch v := f.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case bool:
		if v {
			return "Y"
		}
		return "N"
	case decimal.Decimal:
		if v.IsZero() {
			return ""
		}
		return v.String()
	case *decimal.Decimal:
		if v == nil || v.IsZero() {
			return ""
		}
		return v.String()
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(DateLayout)
	case *time.Time:
		if v == nil || v.IsZero() {
			return ""
		}
		return v.Format(DateLayout)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// envelope is the legacy transport wrapper. The gateway accepts a single
// authentication token and one positional parameter string per call.
type envelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	NS      string   `xml:"xmlns:soapenv,attr"`
	StarNS  string   `xml:"xmlns:star,attr"`
	Header  struct{} `xml:"soapenv:Header"`
	Body    body     `xml:"soapenv:Body"`
}

type body struct {
	Action actionElement
}

type actionElement struct {
	XMLName xml.Name
	Token   string `xml:"star:Token"`
	Param   string `xml:"star:Param"`
}

// Envelope wraps a previously-acquired token and a pipe-delimited parameter
// string in the legacy transport envelope for the given action.
func Envelope(action, token, param string) ([]byte, error) {
	env := envelope{
		NS:     "http://schemas.xmlsoap.org/soap/envelope/",
		StarNS: "http://www.bsestarmf.in/2016/01/",
		Body: body{
			Action: actionElement{
				XMLName: xml.Name{Local: "star:" + action},
				Token:   token,
				Param:   param,
			},
		},
	}
	out, err := xml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to build envelope for %s: %w", action, err)
	}
	return append([]byte(xml.Header), out...), nil
}
