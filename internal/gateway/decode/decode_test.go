package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvera/wealthgate/pkg/errors"
)

func legacyEnvelope(root, payload string) []byte {
	return []byte(`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body><` + root + `><` + root + `Result>` + payload + `</` + root + `Result></` + root + `></soap:Body></soap:Envelope>`)
}

func TestLegacy(t *testing.T) {
	t.Run("SuccessCodeDerivesSuccess", func(t *testing.T) {
		raw := legacyEnvelope("sipOrderEntryParamResponse", "100|REG98765|ORDER REGISTERED SUCCESSFULLY")
		res, err := Legacy(raw)
		require.NoError(t, err)

		assert.True(t, res.Success)
		assert.Equal(t, "100", res.Code)
		assert.Equal(t, "REG98765", res.RegistrationNo())
		assert.Equal(t, "ORDER REGISTERED SUCCESSFULLY", res.Message)
		assert.Equal(t, []string{"REG98765", "ORDER REGISTERED SUCCESSFULLY"}, res.Data)
	})

	t.Run("VariantRootElementNames", func(t *testing.T) {
		// The gateway is inconsistent about response element names across
		// endpoints; the payload fallback must not bind to a fixed name.
		for _, root := range []string{"xsipOrderEntryParamResponse", "getPasswordResponse", "MFAPIResponse"} {
			res, err := Legacy(legacyEnvelope(root, "100|TOKEN555"))
			require.NoError(t, err, root)
			assert.True(t, res.Success, root)
			assert.Equal(t, "TOKEN555", res.Data[0], root)
		}
	})

	t.Run("RejectionCode", func(t *testing.T) {
		raw := legacyEnvelope("sipOrderEntryParamResponse", "101|INVALID CLIENT CODE")
		res, err := Legacy(raw)
		require.NoError(t, err)

		assert.False(t, res.Success)
		assert.Equal(t, "101", res.Code)
		assert.Equal(t, "INVALID CLIENT CODE", res.Message)
		assert.Empty(t, res.RegistrationNo())
	})

	t.Run("MalformedEnvelopeIsDecodeError", func(t *testing.T) {
		_, err := Legacy([]byte("this is not xml"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.DecodeError))
	})

	t.Run("EmptyBodyIsDecodeError", func(t *testing.T) {
		raw := []byte(`<Envelope><Body></Body></Envelope>`)
		_, err := Legacy(raw)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.DecodeError))
	})
}

func TestREST(t *testing.T) {
	t.Run("SentinelStatusDerivesSuccess", func(t *testing.T) {
		res, err := REST([]byte(`{"Status":"100","RegnNo":"STP4321","Remarks":"REGISTRATION DONE"}`))
		require.NoError(t, err)

		assert.True(t, res.Success)
		assert.Equal(t, "100", res.Code)
		assert.Equal(t, "STP4321", res.RegistrationNo())
		assert.Equal(t, "REGISTRATION DONE", res.Message)
	})

	t.Run("NonSentinelStatusIsRejection", func(t *testing.T) {
		res, err := REST([]byte(`{"Status":"102","Remarks":"SCHEME NOT ALLOWED"}`))
		require.NoError(t, err)

		assert.False(t, res.Success)
		assert.Equal(t, "102", res.Code)
		assert.Equal(t, "SCHEME NOT ALLOWED", res.Message)
	})

	t.Run("NestedResultObjectFallback", func(t *testing.T) {
		// Some endpoints wrap the result one level down under a variant name.
		res, err := REST([]byte(`{"STPRegResponse":{"Status":"100","RegnNo":"STP9"}}`))
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "STP9", res.RegistrationNo())
	})

	t.Run("TokenFieldNormalizedIntoData", func(t *testing.T) {
		res, err := REST([]byte(`{"Status":"100","Token":"TK1"}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"TK1"}, res.Data)
	})

	t.Run("MalformedBodyIsDecodeError", func(t *testing.T) {
		_, err := REST([]byte(`not json`))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.DecodeError))
	})

	t.Run("MissingStatusIsDecodeError", func(t *testing.T) {
		_, err := REST([]byte(`{"Something":"else"}`))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.DecodeError))
	})
}
