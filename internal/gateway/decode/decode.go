// Package decode parses gateway responses from both transports into a single
// normalized result, independent of which transport produced them.
package decode

import (
	"encoding/json"
	"encoding/xml"
	"strings"

	"github.com/finvera/wealthgate/pkg/errors"
)

// Result is the normalized gateway outcome consumed by the orchestrator. It
// is transient and never persisted as-is.
type Result struct {
	Success bool
	Code    string
	Message string
	Data    []string
}

// RegistrationNo returns the gateway's identifier for an accepted
// instruction, which the legacy transport carries as the first positional
// result field and the REST transport as a named field (already normalized
// into Data[0]).
func (r *Result) RegistrationNo() string {
	if !r.Success || len(r.Data) == 0 {
		return ""
	}
	return r.Data[0]
}

// legacySuccessCodes is the known-good status-code set for the legacy
// transport. Success is derived from this set, never from the HTTP status:
// the legacy endpoint answers 200 even for business rejections.
var legacySuccessCodes = map[string]bool{
	"100": true,
}

// RESTSuccessStatus is the documented sentinel for the REST transport's
// named status field.
const RESTSuccessStatus = "100"

// Legacy decodes an envelope response wrapping a single pipe-delimited
// positional result string. The first token is the status code; the
// remaining tokens are positional result fields.
func Legacy(raw []byte) (*Result, error) {
	payload, err := envelopePayload(raw)
	if err != nil {
		return nil, err
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, errors.DecodeError.Explain("legacy response carried no result payload")
	}

	tokens := strings.Split(payload, "|")
	code := strings.TrimSpace(tokens[0])
	if code == "" {
		return nil, errors.DecodeError.Explain("legacy response has empty status code")
	}

	res := &Result{
		Success: legacySuccessCodes[code],
		Code:    code,
		Data:    tokens[1:],
	}
	if len(tokens) > 1 {
		res.Message = strings.TrimSpace(tokens[len(tokens)-1])
	}
	return res, nil
}

// envelopePayload extracts the pipe-delimited result string from a legacy
// envelope. The gateway is inconsistent about the response element name
// across endpoints, so rather than binding to a fixed name this takes the
// first non-empty character data found inside the envelope body. This
// fallback rule is load-bearing and covered by tests.
func envelopePayload(raw []byte) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(string(raw)))
	inBody := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", errors.DecodeError.Explain("malformed legacy envelope").Cause(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if strings.EqualFold(t.Name.Local, "Body") {
				inBody = true
			}
		case xml.EndElement:
			if strings.EqualFold(t.Name.Local, "Body") {
				return "", errors.DecodeError.Explain("legacy envelope body is empty")
			}
		case xml.CharData:
			if inBody {
				if s := strings.TrimSpace(string(t)); s != "" {
					return s, nil
				}
			}
		}
	}
}

// restResponse is the documented shape of a REST transport response.
type restResponse struct {
	Status         string `json:"Status"`
	Token          string `json:"Token"`
	RegistrationNo string `json:"RegnNo"`
	Remarks        string `json:"Remarks"`
	OrderNo        string `json:"OrderNo"`
}

// REST decodes a JSON transport response. Success is derived solely from the
// named status field matching the documented sentinel. Some endpoints nest
// the result one level down under a variant wrapper name; in that case the
// first object-typed value under the body envelope is taken as the result
// payload (the same named fallback rule the legacy decoder applies).
func REST(raw []byte) (*Result, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, errors.DecodeError.Explain("malformed REST response").Cause(err)
	}

	body := raw
	if _, ok := top["Status"]; !ok {
		nested, err := firstObjectValue(top)
		if err != nil {
			return nil, err
		}
		body = nested
	}

	var resp restResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.DecodeError.Explain("malformed REST result payload").Cause(err)
	}
	if resp.Status == "" {
		return nil, errors.DecodeError.Explain("REST response has no status field")
	}

	res := &Result{
		Success: resp.Status == RESTSuccessStatus,
		Code:    resp.Status,
		Message: resp.Remarks,
	}
	if resp.Token != "" {
		res.Data = append(res.Data, resp.Token)
	}
	if resp.RegistrationNo != "" {
		res.Data = append(res.Data, resp.RegistrationNo)
	}
	if resp.OrderNo != "" {
		res.Data = append(res.Data, resp.OrderNo)
	}
	return res, nil
}

// firstObjectValue returns the first object-typed value in m. JSON object
// iteration order is not stable in Go, so when several object values exist
// the one holding a Status field wins; this only matters for malformed
// payloads and keeps the fallback deterministic where it counts.
func firstObjectValue(m map[string]json.RawMessage) ([]byte, error) {
	var fallback []byte
	for _, v := range m {
		s := strings.TrimSpace(string(v))
		if !strings.HasPrefix(s, "{") {
			continue
		}
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(v, &inner); err != nil {
			continue
		}
		if _, ok := inner["Status"]; ok {
			return v, nil
		}
		if fallback == nil {
			fallback = v
		}
	}
	if fallback == nil {
		return nil, errors.DecodeError.Explain("REST response has no result object")
	}
	return fallback, nil
}
