package payments

import "encoding/json"

// CallbackBody mirrors the gateway's callback JSON bit for bit:
// Body.stkCallback.{CheckoutRequestID, ResultCode, ResultDesc,
// CallbackMetadata.Item[]}.
type CallbackBody struct {
	Body struct {
		STKCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

type STKCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []MetadataItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

type MetadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

// CallbackMeta holds the named metadata items a successful callback carries.
type CallbackMeta struct {
	AmountCents     int
	ReceiptNumber   string
	TransactionDate string
	PhoneNumber     string
}

func (c STKCallback) Succeeded() bool { return c.ResultCode == 0 }

// Meta extracts the named metadata items. Values arrive untyped (numbers
// for Amount/TransactionDate/PhoneNumber, string for the receipt), so each
// is decoded per field.
func (c STKCallback) Meta() CallbackMeta {
	var m CallbackMeta
	for _, item := range c.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			var amt float64
			if json.Unmarshal(item.Value, &amt) == nil {
				m.AmountCents = int(amt * 100)
			}
		case "MpesaReceiptNumber":
			_ = json.Unmarshal(item.Value, &m.ReceiptNumber)
		case "TransactionDate":
			var n json.Number
			if json.Unmarshal(item.Value, &n) == nil {
				m.TransactionDate = n.String()
			}
		case "PhoneNumber":
			var n json.Number
			if json.Unmarshal(item.Value, &n) == nil {
				m.PhoneNumber = n.String()
			}
		}
	}
	return m
}
