package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFormRequest() PaymentFormRequest {
	return PaymentFormRequest{
		OrderReference:  "100000042",
		Currency:        "usd",
		FormID:          "7",
		MerchantName:    "Main Website Store",
		NotificationURL: "https://shop.example.com/ipgpay/notification/handle",
		ReturnURL:       "https://shop.example.com/ipgpay/land/returns",
		ApprovalURL:     "https://shop.example.com/ipgpay/land/success",
		DeclineURL:      "https://shop.example.com/ipgpay/land/decline",
		CreateCustomer:  true,
		Billing: &Address{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Street1:   "1 Analytical Way",
			City:      "London",
			Country:   "GB",
			Email:     "ada@example.com",
		},
		Items: []LineItem{
			{Code: "SKU-1", Name: "Widget", Description: "Blue", Quantity: 2, UnitPrice: decimal.RequireFromString("9.5")},
			{Code: "SKU-2", Name: "Backordered", Quantity: 0, UnitPrice: decimal.NewFromInt(3)},
			{Name: "E-book", Quantity: 1, Digital: true, UnitPrice: decimal.NewFromInt(5)},
		},
		ShippingAmount: decimal.NewFromInt(4),
		TaxAmount:      decimal.RequireFromString("1.25"),
		DiscountAmount: decimal.NewFromInt(2),
	}
}

func TestBuildPaymentForm_Redirect(t *testing.T) {
	prepared, err := build(testBuildContext(), sampleFormRequest())
	require.NoError(t, err)

	assert.Equal(t, OpLand, prepared.Operation)
	assert.True(t, prepared.Signed)
	assert.Equal(t, "https://my.ipgholdings.net/payment/form/post", prepared.URL)

	p := prepared.Params
	assert.Equal(t, []string{
		"client_id", "return_url", "approval_url", "decline_url", "notification_url",
		"test_transaction", "order_reference", "order_currency", "form_id", "merchant_name", "create_customer",
	}, p.Keys()[:11])
	assert.Equal(t, "USD", p.Value("order_currency"))
	assert.Equal(t, "1", p.Value("create_customer"))
	assert.False(t, p.Has("api_key"))

	assert.Equal(t, "Ada", p.Value("customer_first_name"))
	assert.Equal(t, "1 Analytical Way", p.Value("customer_address"))
	assert.Equal(t, "", p.Value("customer_address2"))
	assert.False(t, p.Has("shipping_first_name"))

	// quantity 0 line skipped, numbering stays contiguous
	assert.Equal(t, "Widget", p.Value("item_1_name"))
	assert.Equal(t, "2", p.Value("item_1_qty"))
	assert.Equal(t, "0", p.Value("item_1_digital"))
	assert.Equal(t, "9.50", p.Value("item_1_unit_price_USD"))
	assert.Equal(t, "SKU-1", p.Value("item_1_code"))
	assert.Equal(t, "E-book", p.Value("item_2_name"))
	assert.False(t, p.Has("item_2_code"))

	assert.Equal(t, "Shipping", p.Value("item_3_name"))
	assert.Equal(t, "Shipping and handling", p.Value("item_3_description"))
	assert.Equal(t, "4.00", p.Value("item_3_unit_price_USD"))
	assert.Equal(t, "1", p.Value("item_3_digital"))

	assert.Equal(t, "Tax", p.Value("item_4_name"))
	assert.Equal(t, "1.25", p.Value("item_4_unit_price_USD"))

	assert.Equal(t, "Discount", p.Value("item_5_name"))
	assert.Equal(t, "-2.00", p.Value("item_5_unit_price_USD"))
	assert.Equal(t, "1", p.Value("item_5_discount"))
	assert.False(t, p.Has("item_6_name"))
}

func TestBuildPaymentForm_Popup(t *testing.T) {
	req := sampleFormRequest()
	req.UsePopup = true

	prepared, err := build(testBuildContext(), req)
	require.NoError(t, err)

	assert.False(t, prepared.Signed)
	assert.False(t, prepared.Params.Has("return_url"))
	assert.False(t, prepared.Params.Has("approval_url"))
	assert.False(t, prepared.Params.Has("decline_url"))
	assert.Equal(t, "client_id", prepared.Params.Keys()[0])
	assert.Equal(t, "notification_url", prepared.Params.Keys()[1])
}

func TestBuildPaymentForm_NonDecimalCurrency(t *testing.T) {
	req := sampleFormRequest()
	req.Currency = "JPY"
	req.Items = []LineItem{{Name: "Tea", Quantity: 1, UnitPrice: decimal.RequireFromString("100.00")}}
	req.ShippingAmount = decimal.Zero
	req.TaxAmount = decimal.Zero
	req.DiscountAmount = decimal.Zero

	prepared, err := build(testBuildContext(), req)
	require.NoError(t, err)
	assert.Equal(t, "100", prepared.Params.Value("item_1_unit_price_JPY"))
	assert.False(t, prepared.Params.Has("item_2_name"))
}

func TestBuildPaymentForm_Rebill(t *testing.T) {
	req := sampleFormRequest()
	req.MerchantRebilling = true

	prepared, err := build(testBuildContext(), req)
	require.NoError(t, err)
	assert.Equal(t, RebillTypeMerchantManaged, prepared.Params.Value("item_1_rebill"))
	assert.False(t, prepared.Params.Has("item_3_rebill"))
}

func TestBuildPaymentForm_Shipping(t *testing.T) {
	req := sampleFormRequest()
	req.Shipping = &Address{FirstName: "Charles", Street1: "2 Engine St", Street2: "Flat 3"}

	prepared, err := build(testBuildContext(), req)
	require.NoError(t, err)
	assert.Equal(t, "Charles", prepared.Params.Value("shipping_first_name"))
	assert.Equal(t, "Flat 3", prepared.Params.Value("shipping_address2"))
}

func TestBuildPaymentForm_Invalid(t *testing.T) {
	req := sampleFormRequest()
	req.OrderReference = " "
	_, err := build(testBuildContext(), req)
	requireInvalidRequest(t, err, "order_reference", "Invalid Order Reference")

	req = sampleFormRequest()
	req.Currency = "dollars"
	_, err = build(testBuildContext(), req)
	requireInvalidRequest(t, err, "order_currency", "Invalid Currency")

	req = sampleFormRequest()
	req.Items[0].UnitPrice = decimal.NewFromInt(-1)
	_, err = build(testBuildContext(), req)
	requireInvalidRequest(t, err, "item_1", "Invalid Item Price")
}

func TestResolvePaymentFormURL(t *testing.T) {
	assert.Equal(t, "https://pay.example.com/payment/form/post",
		resolvePaymentFormURL("https://pay.example.com/payment/form/post", "https://my.ipgpay.com"))
	assert.Equal(t, "https://pay.example.com/payment/form/post",
		resolvePaymentFormURL("https://pay.example.com/PAYMENT/FORM/POST", "https://my.ipgpay.com"))
	assert.Equal(t, "https://pay.example.com/payment/form/post",
		resolvePaymentFormURL("https://pay.example.com/", "https://my.ipgpay.com"))
	assert.Equal(t, "https://my.ipgpay.com/payment/form/post",
		resolvePaymentFormURL("", "https://my.ipgpay.com"))
}
