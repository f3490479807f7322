package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"ipgpay-client/internal/config"
	"ipgpay-client/internal/payment"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %v: %w", fs.Name(), err, errUsage)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%s: unexpected arguments %v: %w", fs.Name(), fs.Args(), errUsage)
	}
	return nil
}

// amountFlag is an optional decimal amount.
type amountFlag struct {
	value *decimal.Decimal
}

func (a *amountFlag) String() string {
	if a.value == nil {
		return ""
	}
	return a.value.String()
}

func (a *amountFlag) Set(s string) error {
	d, err := payment.ParseAmount(s)
	if err != nil {
		return err
	}
	a.value = &d
	return nil
}

func runSettle(ctx context.Context, client *payment.Client, args []string, out io.Writer) error {
	var req payment.SettleRequest
	var amount amountFlag

	fs := newFlagSet("settle")
	fs.StringVar(&req.OrderID, "order-id", "", "gateway order id")
	fs.Var(&amount, "amount", "amount to settle, full authorisation when omitted")
	fs.StringVar(&req.Currency, "currency", "", "currency of the amount")
	fs.StringVar(&req.ShipperID, "shipper-id", "", "shipper id")
	fs.StringVar(&req.TrackID, "track-id", "", "shipment tracking number")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	req.Amount = amount.value

	resp, err := client.Settle(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(out, resp)
}

func runCredit(ctx context.Context, client *payment.Client, args []string, out io.Writer) error {
	var req payment.CreditRequest
	var amount amountFlag

	fs := newFlagSet("credit")
	fs.StringVar(&req.OrderID, "order-id", "", "gateway order id")
	fs.StringVar(&req.TransID, "trans-id", "", "transaction to credit")
	fs.Var(&amount, "amount", "amount to refund")
	fs.StringVar(&req.Currency, "currency", "", "currency of the amount")
	fs.StringVar(&req.Reason, "reason", "", "refund reason")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	req.Amount = amount.value

	resp, err := client.Credit(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(out, resp)
}

func runVoid(ctx context.Context, client *payment.Client, args []string, out io.Writer) error {
	var req payment.VoidRequest

	fs := newFlagSet("void")
	fs.StringVar(&req.OrderID, "order-id", "", "gateway order id")
	fs.StringVar(&req.TransID, "trans-id", "", "transaction to void")
	fs.StringVar(&req.Reason, "reason", "", "void reason")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	resp, err := client.Void(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(out, resp)
}

func runQuery(ctx context.Context, client *payment.Client, args []string, out io.Writer) error {
	var req payment.QueryRequest

	fs := newFlagSet("query")
	fs.StringVar(&req.OrderID, "order-id", "", "gateway order id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	resp, err := client.Query(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(out, resp)
}

// itemsFlag collects repeated -item name:qty:price values.
type itemsFlag []payment.LineItem

func (f *itemsFlag) String() string {
	parts := make([]string, 0, len(*f))
	for _, it := range *f {
		parts = append(parts, fmt.Sprintf("%s:%d:%s", it.Name, it.Quantity, it.UnitPrice))
	}
	return strings.Join(parts, ",")
}

func (f *itemsFlag) Set(s string) error {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return fmt.Errorf("item %q: want name:qty:price", s)
	}
	qty, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("item %q: invalid quantity", s)
	}
	price, err := payment.ParseAmount(parts[2])
	if err != nil {
		return fmt.Errorf("item %q: %w", s, err)
	}
	*f = append(*f, payment.LineItem{Name: parts[0], Quantity: qty, UnitPrice: price})
	return nil
}

func runForm(ctx context.Context, cfg *config.Config, client *payment.Client, args []string, out io.Writer) error {
	var req payment.PaymentFormRequest
	var items itemsFlag
	var shipping, tax, discount amountFlag
	var billing payment.Address
	var submit bool

	fs := newFlagSet("form")
	fs.StringVar(&req.OrderReference, "order-ref", "", "merchant order reference")
	fs.StringVar(&req.Currency, "currency", "", "order currency")
	fs.Var(&items, "item", "line item as name:qty:price, repeatable")
	fs.Var(&shipping, "shipping", "shipping amount")
	fs.Var(&tax, "tax", "tax amount")
	fs.Var(&discount, "discount", "discount amount")
	fs.StringVar(&req.NotificationURL, "notify-url", "", "notification callback url")
	fs.StringVar(&req.ReturnURL, "return-url", "", "return url")
	fs.StringVar(&req.ApprovalURL, "approval-url", "", "approval url")
	fs.StringVar(&req.DeclineURL, "decline-url", "", "decline url")
	fs.StringVar(&billing.FirstName, "first-name", "", "customer first name")
	fs.StringVar(&billing.LastName, "last-name", "", "customer last name")
	fs.StringVar(&billing.Email, "email", "", "customer email")
	fs.StringVar(&billing.Country, "country", "", "customer country")
	fs.BoolVar(&submit, "submit", false, "post the form server side instead of printing it")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	req.Items = items
	if billing != (payment.Address{}) {
		req.Billing = &billing
	}
	if shipping.value != nil {
		req.ShippingAmount = *shipping.value
	}
	if tax.value != nil {
		req.TaxAmount = *tax.value
	}
	if discount.value != nil {
		req.DiscountAmount = *discount.value
	}
	cfg.ApplyFormDefaults(&req)

	if !submit {
		prepared, err := client.Prepare(req)
		if err != nil {
			return err
		}
		return printJSON(out, prepared)
	}

	resp, err := client.SubmitPaymentForm(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(out, resp)
}
