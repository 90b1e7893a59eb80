package payments

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const successCallback = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-1",
      "CheckoutRequestID": "ws_CO_191220191020363925",
      "ResultCode": 0,
      "ResultDesc": "The service request is processed successfully.",
      "CallbackMetadata": {
        "Item": [
          {"Name": "Amount", "Value": 1160.00},
          {"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
          {"Name": "TransactionDate", "Value": 20191219102115},
          {"Name": "PhoneNumber", "Value": 254708374149}
        ]
      }
    }
  }
}`

const failedCallback = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-1",
      "CheckoutRequestID": "ws_CO_191220191020363925",
      "ResultCode": 1032,
      "ResultDesc": "Request cancelled by user."
    }
  }
}`

func TestCallbackSuccessDecodes(t *testing.T) {
	var cb CallbackBody
	require.NoError(t, json.Unmarshal([]byte(successCallback), &cb))

	stk := cb.Body.STKCallback
	assert.True(t, stk.Succeeded())
	assert.Equal(t, "ws_CO_191220191020363925", stk.CheckoutRequestID)

	meta := stk.Meta()
	assert.Equal(t, 116000, meta.AmountCents)
	assert.Equal(t, "NLJ7RT61SV", meta.ReceiptNumber)
	assert.Equal(t, "20191219102115", meta.TransactionDate)
	assert.Equal(t, "254708374149", meta.PhoneNumber)
}

func TestCallbackFailureDecodes(t *testing.T) {
	var cb CallbackBody
	require.NoError(t, json.Unmarshal([]byte(failedCallback), &cb))

	stk := cb.Body.STKCallback
	assert.False(t, stk.Succeeded())
	assert.Equal(t, 1032, stk.ResultCode)
	assert.Empty(t, stk.Meta().ReceiptNumber)
}
