package payment

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipgpay-client/internal/transport"
)

func raw(status int, body string) *transport.RawResponse {
	return &transport.RawResponse{StatusCode: status, Header: make(http.Header), Body: []byte(body)}
}

func requireDecodingError(t *testing.T, err error) *DecodingError {
	t.Helper()
	var derr *DecodingError
	require.True(t, errors.As(err, &derr), "expected DecodingError, got %v", err)
	return derr
}

func TestClassifier_XML(t *testing.T) {
	c := NewClassifier()

	t.Run("Settle", func(t *testing.T) {
		body := `<?xml version="1.0" encoding="UTF-8"?>
<response>
  <ResponseCode>OP299</ResponseCode>
  <ResponseText>Settle request accepted</ResponseText>
  <OrderId>1394562</OrderId>
  <TransId>55</TransId>
</response>`
		resp, err := c.Classify(OpSettle, raw(http.StatusOK, body))
		require.NoError(t, err)

		settle, ok := resp.(*SettleResponse)
		require.True(t, ok)
		assert.Equal(t, "OP299", settle.Code())
		assert.True(t, settle.Accepted())
		assert.Equal(t, "Settle request accepted", settle.ResponseText)
		assert.Equal(t, "1394562", settle.OrderID)
		assert.Equal(t, "55", settle.TransID)
		assert.Equal(t, http.StatusOK, settle.HTTPStatus)
	})

	t.Run("NestedAndSnakeCase", func(t *testing.T) {
		body := `<query><order><order_id>7</order_id><status>SETTLED</status><amount>100.00</amount><currency>USD</currency></order><response_code>OP000</response_code></query>`
		resp, err := c.Classify(OpQuery, raw(http.StatusOK, body))
		require.NoError(t, err)

		q := resp.(*QueryResponse)
		assert.Equal(t, "OP000", q.ResponseCode)
		assert.Equal(t, "7", q.OrderID)
		assert.Equal(t, "SETTLED", q.Status)
		assert.Equal(t, "100.00", q.Amount)
		assert.Equal(t, "USD", q.Currency)
	})

	t.Run("ErrorPayloadOnNonSuccessStatus", func(t *testing.T) {
		body := `<error code="x"><ResponseCode>OP100</ResponseCode><ResponseText>Invalid order</ResponseText></error>`
		resp, err := c.Classify(OpCredit, raw(http.StatusBadRequest, body))
		require.NoError(t, err)

		credit := resp.(*CreditResponse)
		assert.Equal(t, "OP100", credit.Code())
		assert.Equal(t, http.StatusBadRequest, credit.HTTPStatus)
		assert.Equal(t, "x", credit.Field("code"))
	})

	t.Run("MalformedXML", func(t *testing.T) {
		_, err := c.Classify(OpSettle, raw(http.StatusOK, `<response><ResponseCode>OP299</response>`))
		derr := requireDecodingError(t, err)
		assert.NotErrorIs(t, err, ErrUnrecognizedShape)
		assert.Contains(t, derr.Error(), "xml")
	})

	t.Run("XMLWithoutResponseCode", func(t *testing.T) {
		_, err := c.Classify(OpSettle, raw(http.StatusOK, `<response><status>ok</status></response>`))
		requireDecodingError(t, err)
		assert.ErrorIs(t, err, ErrUnrecognizedShape)
	})
}

func TestClassifier_PlainText(t *testing.T) {
	c := NewClassifier()

	t.Run("Ampersand", func(t *testing.T) {
		resp, err := c.Classify(OpVoid, raw(http.StatusOK, "ResponseCode=OP300&ResponseText=Order+voided&OrderId=1394562"))
		require.NoError(t, err)

		v := resp.(*VoidResponse)
		assert.Equal(t, "OP300", v.Code())
		assert.Equal(t, "Order voided", v.ResponseText)
		assert.Equal(t, "1394562", v.OrderID)
	})

	t.Run("Lines", func(t *testing.T) {
		resp, err := c.Classify(OpCredit, raw(http.StatusOK, "ResponseCode=OP400\r\nAmount=12.50\r\n"))
		require.NoError(t, err)

		credit := resp.(*CreditResponse)
		assert.Equal(t, "OP400", credit.Code())
		assert.Equal(t, "12.50", credit.Amount)
	})

	t.Run("NoResponseCode", func(t *testing.T) {
		_, err := c.Classify(OpSettle, raw(http.StatusOK, "status=ok"))
		assert.ErrorIs(t, err, ErrUnrecognizedShape)
	})

	t.Run("FreeText", func(t *testing.T) {
		_, err := c.Classify(OpSettle, raw(http.StatusOK, "Internal Server Error"))
		assert.ErrorIs(t, err, ErrUnrecognizedShape)
	})
}

func TestClassifier_Redirect(t *testing.T) {
	c := NewClassifier()

	t.Run("Landing", func(t *testing.T) {
		r := raw(http.StatusFound, "")
		r.Header.Set("Location", "https://my.ipgpay.com/payment/form/view?session=abc&ResponseCode=OP500")

		resp, err := c.Classify(OpLand, r)
		require.NoError(t, err)

		land := resp.(*LandingResponse)
		assert.Equal(t, "https://my.ipgpay.com/payment/form/view?session=abc&ResponseCode=OP500", land.RedirectURL)
		assert.Equal(t, "OP500", land.Code())
		assert.Equal(t, "abc", land.Field("session"))
	})

	t.Run("RedirectOnAPIOperationIsNotAccepted", func(t *testing.T) {
		r := raw(http.StatusFound, "")
		r.Header.Set("Location", "https://my.ipgpay.com/login")

		_, err := c.Classify(OpSettle, r)
		derr := requireDecodingError(t, err)
		assert.Equal(t, http.StatusFound, derr.StatusCode)
	})

	t.Run("LandingXMLBody", func(t *testing.T) {
		resp, err := c.Classify(OpLand, raw(http.StatusOK, "<response><ResponseCode>OP501</ResponseCode></response>"))
		require.NoError(t, err)
		land := resp.(*LandingResponse)
		assert.Equal(t, "", land.RedirectURL)
		assert.Equal(t, "OP501", land.Code())
	})
}

func TestClassifier_Unrecognized(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		body string
	}{
		{"Empty", ""},
		{"Whitespace", "  \n "},
		{"JSON", `{"ResponseCode":"OP299"}`},
		{"JSONArray", `[{"ResponseCode":"OP299"}]`},
		{"HTML", "<!DOCTYPE html><html><body>ResponseCode</body></html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := c.Classify(OpSettle, raw(http.StatusOK, tt.body))
			assert.Nil(t, resp)

			derr := requireDecodingError(t, err)
			assert.ErrorIs(t, err, ErrUnrecognizedShape)
			assert.Equal(t, OpSettle, derr.Operation)
			assert.Equal(t, tt.body, string(derr.Body))
		})
	}

	t.Run("NilResponse", func(t *testing.T) {
		_, err := c.Classify(OpSettle, nil)
		requireDecodingError(t, err)
	})
}
