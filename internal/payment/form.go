package payment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"ipgpay-client/internal/utils"
)

// RebillTypeMerchantManaged marks an item whose recurring billing is driven by
// the merchant rather than the gateway.
const RebillTypeMerchantManaged = "2"

var currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// PaymentFormRequest describes a hosted payment form submission. In redirect
// mode (UsePopup false) the fields are signed; in popup mode they are not.
type PaymentFormRequest struct {
	OrderReference  string
	Currency        string
	FormID          string
	MerchantName    string
	NotificationURL string
	ReturnURL       string
	ApprovalURL     string
	DeclineURL      string
	CreateCustomer  bool
	UsePopup        bool

	Billing  *Address
	Shipping *Address

	Items             []LineItem
	ShippingAmount    decimal.Decimal
	TaxAmount         decimal.Decimal
	DiscountAmount    decimal.Decimal
	MerchantRebilling bool
}

type Address struct {
	FirstName string
	LastName  string
	Company   string
	Street1   string
	Street2   string
	City      string
	State     string
	Postcode  string
	Country   string
	Email     string
	Phone     string
}

// LineItem is one product line. Lines with Quantity below one are skipped.
type LineItem struct {
	Code        string
	Name        string
	Description string
	Quantity    int
	Digital     bool
	UnitPrice   decimal.Decimal
}

// resolvePaymentFormURL strips any trailing form path from the configured
// location and appends the canonical one.
func resolvePaymentFormURL(configured, baseURL string) string {
	host := configured
	if host == "" {
		host = baseURL
	}
	host = formPathRegex.ReplaceAllString(host, "")
	return strings.TrimRight(host, "/") + PathPaymentForm
}

var formPathRegex = regexp.MustCompile(`(?i)/payment/form/post`)

func buildPaymentForm(bc buildContext, r PaymentFormRequest) (*Prepared, error) {
	if strings.TrimSpace(r.OrderReference) == "" {
		return nil, invalidRequest(OpLand, "order_reference", "Invalid Order Reference")
	}
	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	if !currencyCodeRegex.MatchString(currency) {
		return nil, invalidRequest(OpLand, "order_currency", "Invalid Currency")
	}
	for i, it := range r.Items {
		if it.Quantity >= 1 && it.UnitPrice.IsNegative() {
			return nil, invalidRequest(OpLand, fmt.Sprintf("item_%d", i+1), "Invalid Item Price")
		}
	}

	p := NewParameterSet()
	p.Merge(
		formGatewayParameters(bc.conn, r, currency),
		customerParameters(r.Billing, r.Shipping),
	)
	for _, item := range formItemParameters(bc.amounts, r, currency) {
		p.Merge(item)
	}

	formURL := bc.formURL
	if formURL == "" {
		formURL = resolvePaymentFormURL("", bc.conn.BaseURL)
	}

	return &Prepared{
		Operation: OpLand,
		URL:       formURL,
		Signed:    !r.UsePopup,
		Params:    p,
	}, nil
}

func formGatewayParameters(conn ConnectionConfig, r PaymentFormRequest, currency string) *ParameterSet {
	p := NewParameterSet()
	p.Set("client_id", conn.ClientID)
	if !r.UsePopup {
		p.Set("return_url", r.ReturnURL)
		p.Set("approval_url", r.ApprovalURL)
		p.Set("decline_url", r.DeclineURL)
	}
	p.Set("notification_url", r.NotificationURL)
	p.Set("test_transaction", utils.Flag(conn.TestMode))
	p.Set("order_reference", r.OrderReference)
	p.Set("order_currency", currency)
	p.Set("form_id", r.FormID)
	p.Set("merchant_name", r.MerchantName)
	p.Set("create_customer", utils.Flag(r.CreateCustomer))
	return p
}

func customerParameters(billing, shipping *Address) *ParameterSet {
	p := NewParameterSet()
	addressParameters(p, "customer", billing)
	addressParameters(p, "shipping", shipping)
	return p
}

func addressParameters(p *ParameterSet, prefix string, a *Address) {
	if a == nil {
		return
	}
	p.Set(prefix+"_first_name", a.FirstName)
	p.Set(prefix+"_last_name", a.LastName)
	p.Set(prefix+"_company", a.Company)
	p.Set(prefix+"_city", a.City)
	p.Set(prefix+"_state", a.State)
	p.Set(prefix+"_postcode", a.Postcode)
	p.Set(prefix+"_country", a.Country)
	p.Set(prefix+"_email", a.Email)
	p.Set(prefix+"_phone", a.Phone)
	p.Set(prefix+"_address", a.Street1)
	p.Set(prefix+"_address2", a.Street2)
}

type itemLine struct {
	code        string
	name        string
	description string
	qty         string
	digital     bool
	price       decimal.Decimal
	discount    bool
	rebill      bool
}

// formItemParameters numbers product lines from 1 and appends shipping, tax
// and discount lines after them.
func formItemParameters(f AmountFormatter, r PaymentFormRequest, currency string) []*ParameterSet {
	var lines []itemLine
	for _, it := range r.Items {
		if it.Quantity < 1 {
			continue
		}
		lines = append(lines, itemLine{
			code:        it.Code,
			name:        it.Name,
			description: it.Description,
			qty:         strconv.Itoa(it.Quantity),
			digital:     it.Digital,
			price:       it.UnitPrice,
			rebill:      r.MerchantRebilling,
		})
	}
	if r.ShippingAmount.IsPositive() {
		lines = append(lines, itemLine{name: "Shipping", description: "Shipping and handling", qty: "1", digital: true, price: r.ShippingAmount})
	}
	if r.TaxAmount.IsPositive() {
		lines = append(lines, itemLine{name: "Tax", qty: "1", digital: true, price: r.TaxAmount})
	}
	if !r.DiscountAmount.IsZero() {
		lines = append(lines, itemLine{name: "Discount", qty: "1", digital: true, price: r.DiscountAmount.Abs().Neg(), discount: true})
	}

	out := make([]*ParameterSet, 0, len(lines))
	for i, l := range lines {
		prefix := fmt.Sprintf("item_%d", i+1)
		p := NewParameterSet()
		p.Set(prefix+"_name", l.name)
		p.Set(prefix+"_description", l.description)
		p.Set(prefix+"_qty", l.qty)
		p.Set(prefix+"_digital", utils.Flag(l.digital))
		p.Set(prefix+"_unit_price_"+currency, f.Format(l.price, currency))
		p.SetIf(prefix+"_code", l.code)
		if l.discount {
			p.Set(prefix+"_discount", "1")
		}
		if l.rebill {
			p.Set(prefix+"_rebill", RebillTypeMerchantManaged)
		}
		out = append(out, p)
	}
	return out
}
