package payment

import (
	"fmt"
	"strings"
)

// ResponseCodeSettleAccepted is returned when the gateway accepts a settle request.
const ResponseCodeSettleAccepted = "OP299"

// Result holds what every gateway reply carries, whatever its shape.
type Result struct {
	ResponseCode string            `json:"response_code"`
	ResponseText string            `json:"response_text,omitempty"`
	OrderID      string            `json:"order_id,omitempty"`
	TransID      string            `json:"trans_id,omitempty"`
	HTTPStatus   int               `json:"http_status"`
	Fields       map[string]string `json:"fields,omitempty"`
}

// Code returns the gateway response code, the primary success indicator.
func (r *Result) Code() string {
	return r.ResponseCode
}

// Field looks a reply field up by name, ignoring case and underscores.
func (r *Result) Field(name string) string {
	return r.Fields[normalizeFieldName(name)]
}

// Is reports whether the response code equals code.
func (r *Result) Is(code string) bool {
	return strings.EqualFold(r.ResponseCode, code)
}

func (r *Result) result() *Result {
	return r
}

// Response is one of SettleResponse, CreditResponse, VoidResponse,
// QueryResponse or LandingResponse.
type Response interface {
	Operation() Operation
	Code() string
	result() *Result
}

type SettleResponse struct {
	Result
}

type CreditResponse struct {
	Result
	Amount string `json:"amount,omitempty"`
}

type VoidResponse struct {
	Result
}

type QueryResponse struct {
	Result
	Status   string `json:"status,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// LandingResponse is the reply to a payment form submission. RedirectURL is
// set when the gateway answered with a redirect to its hosted page.
type LandingResponse struct {
	Result
	RedirectURL string `json:"redirect_url,omitempty"`
}

func (*SettleResponse) Operation() Operation  { return OpSettle }
func (*CreditResponse) Operation() Operation  { return OpCredit }
func (*VoidResponse) Operation() Operation    { return OpVoid }
func (*QueryResponse) Operation() Operation   { return OpQuery }
func (*LandingResponse) Operation() Operation { return OpLand }

// Accepted reports whether the settle was accepted by the gateway.
func (r *SettleResponse) Accepted() bool {
	return r.Is(ResponseCodeSettleAccepted)
}

// newResponse wraps a decoded result in the variant for op.
func newResponse(op Operation, res Result, redirectURL string) (Response, error) {
	switch op {
	case OpSettle:
		return &SettleResponse{Result: res}, nil
	case OpCredit:
		return &CreditResponse{Result: res, Amount: res.Field("amount")}, nil
	case OpVoid:
		return &VoidResponse{Result: res}, nil
	case OpQuery:
		return &QueryResponse{
			Result:   res,
			Status:   res.Field("status"),
			Amount:   res.Field("amount"),
			Currency: res.Field("currency"),
		}, nil
	case OpLand:
		return &LandingResponse{Result: res, RedirectURL: redirectURL}, nil
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

func normalizeFieldName(name string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(name))
}

// newResult pulls the well known fields out of a decoded field map.
func newResult(status int, fields map[string]string) Result {
	res := Result{HTTPStatus: status, Fields: fields}
	res.ResponseCode = res.Field("ResponseCode")
	res.ResponseText = res.Field("ResponseText")
	res.OrderID = res.Field("OrderId")
	res.TransID = res.Field("TransId")
	return res
}
