package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ipgpay-client/internal/utils"
)

// Operation names one gateway call family.
type Operation string

const (
	OpSettle Operation = "settle"
	OpCredit Operation = "credit"
	OpVoid   Operation = "void"
	OpQuery  Operation = "query"
	OpLand   Operation = "land"
)

// Endpoint paths, appended to ConnectionConfig.BaseURL.
const (
	PathSettle      = "/service/order/settle"
	PathCredit      = "/service/order/credit"
	PathVoid        = "/service/order/void"
	PathQuery       = "/service/order/query"
	PathPaymentForm = "/payment/form/post"
)

// Request is implemented by the fixed set of operation variants in this
// package: SettleRequest, CreditRequest, VoidRequest, QueryRequest and
// PaymentFormRequest.
type Request interface {
	Operation() Operation
	isRequest()
}

// SettleRequest captures a previously authorised order. Amount is optional;
// when nil the full authorised amount is settled.
type SettleRequest struct {
	OrderID   string
	Amount    *decimal.Decimal
	Currency  string
	ShipperID string
	TrackID   string
}

// CreditRequest refunds all or part of a settled order.
type CreditRequest struct {
	OrderID  string
	TransID  string
	Amount   *decimal.Decimal
	Currency string
	Reason   string
}

// VoidRequest cancels an order before settlement.
type VoidRequest struct {
	OrderID string
	TransID string
	Reason  string
}

// QueryRequest fetches the current state of an order.
type QueryRequest struct {
	OrderID string
}

func (SettleRequest) Operation() Operation      { return OpSettle }
func (CreditRequest) Operation() Operation      { return OpCredit }
func (VoidRequest) Operation() Operation        { return OpVoid }
func (QueryRequest) Operation() Operation       { return OpQuery }
func (PaymentFormRequest) Operation() Operation { return OpLand }

func (SettleRequest) isRequest()      {}
func (CreditRequest) isRequest()      {}
func (VoidRequest) isRequest()        {}
func (QueryRequest) isRequest()       {}
func (PaymentFormRequest) isRequest() {}

// Prepared is a built request ready for the transport.
type Prepared struct {
	Operation Operation     `json:"operation"`
	URL       string        `json:"url"`
	Signed    bool          `json:"signed"`
	Params    *ParameterSet `json:"params"`
}

type buildContext struct {
	conn    ConnectionConfig
	amounts AmountFormatter
	formURL string
}

// operationOf names the operation of req without calling its methods. ok is
// false for a nil request, including a typed nil pointer variant.
func operationOf(req Request) (op Operation, ok bool) {
	switch r := req.(type) {
	case nil:
		return "", false
	case *SettleRequest:
		return OpSettle, r != nil
	case *CreditRequest:
		return OpCredit, r != nil
	case *VoidRequest:
		return OpVoid, r != nil
	case *QueryRequest:
		return OpQuery, r != nil
	case *PaymentFormRequest:
		return OpLand, r != nil
	default:
		return req.Operation(), true
	}
}

// build dispatches on the request variant. It performs no I/O.
func build(bc buildContext, req Request) (*Prepared, error) {
	op, ok := operationOf(req)
	if !ok {
		return nil, invalidRequest(op, "", "Missing request")
	}

	switch r := req.(type) {
	case SettleRequest:
		return buildSettle(bc, r)
	case *SettleRequest:
		return buildSettle(bc, *r)
	case CreditRequest:
		return buildCredit(bc, r)
	case *CreditRequest:
		return buildCredit(bc, *r)
	case VoidRequest:
		return buildVoid(bc, r)
	case *VoidRequest:
		return buildVoid(bc, *r)
	case QueryRequest:
		return buildQuery(bc, r)
	case *QueryRequest:
		return buildQuery(bc, *r)
	case PaymentFormRequest:
		return buildPaymentForm(bc, r)
	case *PaymentFormRequest:
		return buildPaymentForm(bc, *r)
	default:
		return nil, invalidRequest(op, "", fmt.Sprintf("Unsupported request type %T", req))
	}
}

// apiParameters is the boilerplate shared by every direct API call.
func apiParameters(conn ConnectionConfig) *ParameterSet {
	return ParametersFrom(
		"client_id", conn.ClientID,
		"api_key", conn.Key,
		"notify", utils.Flag(conn.Notify),
		"test_transaction", utils.Flag(conn.TestMode),
	)
}

func validOrderID(op Operation, id string) error {
	if id == "" || !utils.IsNumeral(id) {
		return invalidRequest(op, "order_id", "Invalid Order Id")
	}
	return nil
}

func optionalNumeral(op Operation, field, value, message string) error {
	if value != "" && !utils.IsNumeral(value) {
		return invalidRequest(op, field, message)
	}
	return nil
}

func buildSettle(bc buildContext, r SettleRequest) (*Prepared, error) {
	if err := validOrderID(OpSettle, r.OrderID); err != nil {
		return nil, err
	}
	if err := optionalNumeral(OpSettle, "shipper_id", r.ShipperID, "Invalid Shipper Id"); err != nil {
		return nil, err
	}
	if r.Amount != nil && r.Amount.IsNegative() {
		return nil, invalidRequest(OpSettle, "amount", "Invalid Amount")
	}

	p := apiParameters(bc.conn)
	p.Set("order_id", r.OrderID)
	p.SetIf("shipper_id", r.ShipperID)
	p.SetIf("track_id", strings.TrimSpace(r.TrackID))
	if r.Amount != nil {
		p.Set("amount", bc.amounts.Format(*r.Amount, r.Currency))
	}

	return &Prepared{Operation: OpSettle, URL: bc.conn.endpoint(PathSettle), Params: p}, nil
}

func buildCredit(bc buildContext, r CreditRequest) (*Prepared, error) {
	if err := validOrderID(OpCredit, r.OrderID); err != nil {
		return nil, err
	}
	if err := optionalNumeral(OpCredit, "trans_id", r.TransID, "Invalid Transaction Id"); err != nil {
		return nil, err
	}
	if r.Amount == nil || !r.Amount.IsPositive() {
		return nil, invalidRequest(OpCredit, "amount", "Invalid Amount")
	}

	p := apiParameters(bc.conn)
	p.Set("order_id", r.OrderID)
	p.SetIf("trans_id", r.TransID)
	p.Set("amount", bc.amounts.Format(*r.Amount, r.Currency))
	p.SetIf("reason", r.Reason)

	return &Prepared{Operation: OpCredit, URL: bc.conn.endpoint(PathCredit), Params: p}, nil
}

func buildVoid(bc buildContext, r VoidRequest) (*Prepared, error) {
	if err := validOrderID(OpVoid, r.OrderID); err != nil {
		return nil, err
	}
	if err := optionalNumeral(OpVoid, "trans_id", r.TransID, "Invalid Transaction Id"); err != nil {
		return nil, err
	}

	p := apiParameters(bc.conn)
	p.Set("order_id", r.OrderID)
	p.SetIf("trans_id", r.TransID)
	p.SetIf("reason", r.Reason)

	return &Prepared{Operation: OpVoid, URL: bc.conn.endpoint(PathVoid), Params: p}, nil
}

func buildQuery(bc buildContext, r QueryRequest) (*Prepared, error) {
	if err := validOrderID(OpQuery, r.OrderID); err != nil {
		return nil, err
	}

	p := apiParameters(bc.conn)
	p.Set("order_id", r.OrderID)

	return &Prepared{Operation: OpQuery, URL: bc.conn.endpoint(PathQuery), Params: p}, nil
}
