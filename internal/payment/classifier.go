package payment

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"ipgpay-client/internal/transport"
)

// shapeMatcher recognises one body shape. matched is false when the body is
// definitely not of this shape; a non-nil error with matched true means the
// shape was recognised but its content could not be decoded.
type shapeMatcher interface {
	Name() string
	Match(op Operation, raw *transport.RawResponse) (res Result, redirect string, matched bool, err error)
}

// Classifier tries its matchers in order and stops at the first definitive match.
type Classifier struct {
	matchers []shapeMatcher
}

// NewClassifier returns the default order: redirect, XML, plain text.
func NewClassifier() *Classifier {
	return &Classifier{matchers: []shapeMatcher{
		redirectMatcher{},
		xmlMatcher{},
		plainTextMatcher{},
	}}
}

// Classify turns a raw reply to op into its typed response, or a *DecodingError.
func (c *Classifier) Classify(op Operation, raw *transport.RawResponse) (Response, error) {
	if raw == nil {
		return nil, &DecodingError{Operation: op, Err: errors.New("no response")}
	}
	for _, m := range c.matchers {
		res, redirect, matched, err := m.Match(op, raw)
		if !matched {
			continue
		}
		if err != nil {
			return nil, &DecodingError{Operation: op, StatusCode: raw.StatusCode, Body: raw.Body, Err: fmt.Errorf("%s: %w", m.Name(), err)}
		}
		resp, err := newResponse(op, res, redirect)
		if err != nil {
			return nil, &DecodingError{Operation: op, StatusCode: raw.StatusCode, Body: raw.Body, Err: err}
		}
		return resp, nil
	}
	return nil, &DecodingError{Operation: op, StatusCode: raw.StatusCode, Body: raw.Body, Err: ErrUnrecognizedShape}
}

// redirectMatcher accepts a 3xx reply carrying a Location, for the payment form only.
type redirectMatcher struct{}

func (redirectMatcher) Name() string { return "redirect" }

func (redirectMatcher) Match(op Operation, raw *transport.RawResponse) (Result, string, bool, error) {
	if op != OpLand || !raw.IsRedirect() || raw.Location() == "" {
		return Result{}, "", false, nil
	}
	loc := raw.Location()
	u, err := url.Parse(loc)
	if err != nil {
		return Result{}, "", true, fmt.Errorf("invalid location %q: %w", loc, err)
	}

	fields := make(map[string]string)
	for k, v := range u.Query() {
		if len(v) > 0 {
			fields[normalizeFieldName(k)] = v[0]
		}
	}
	return newResult(raw.StatusCode, fields), loc, true, nil
}

// xmlMatcher accepts an XML document whose leaf elements include ResponseCode.
type xmlMatcher struct{}

func (xmlMatcher) Name() string { return "xml" }

func (xmlMatcher) Match(op Operation, raw *transport.RawResponse) (Result, string, bool, error) {
	body := bytes.TrimSpace(raw.Body)
	if len(body) == 0 || body[0] != '<' {
		return Result{}, "", false, nil
	}
	if isHTML(body) {
		return Result{}, "", false, nil
	}

	fields, err := decodeXMLFields(body)
	if err != nil {
		return Result{}, "", true, err
	}
	if _, ok := fields[normalizeFieldName("ResponseCode")]; !ok {
		return Result{}, "", false, nil
	}
	return newResult(raw.StatusCode, fields), "", true, nil
}

var htmlRegex = regexp.MustCompile(`(?i)^<(!doctype\s+html|html)[\s>]`)

func isHTML(body []byte) bool {
	return htmlRegex.Match(body)
}

// decodeXMLFields flattens every leaf element into name -> text. Attributes of
// the root element are kept as fields too.
func decodeXMLFields(body []byte) (map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	fields := make(map[string]string)

	var stack []string
	var text strings.Builder
	leaf := false
	sawRoot := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				if sawRoot {
					return nil, errors.New("multiple root elements")
				}
				sawRoot = true
				for _, a := range t.Attr {
					fields[normalizeFieldName(a.Name.Local)] = a.Value
				}
			}
			stack = append(stack, t.Name.Local)
			text.Reset()
			leaf = true
		case xml.CharData:
			if len(stack) == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, errors.New("text outside root element")
			}
			text.Write(t)
		case xml.EndElement:
			if leaf && len(stack) > 1 {
				fields[normalizeFieldName(t.Name.Local)] = strings.TrimSpace(text.String())
			}
			stack = stack[:len(stack)-1]
			text.Reset()
			leaf = false
		}
	}

	if !sawRoot {
		return nil, errors.New("no root element")
	}
	return fields, nil
}

// plainTextMatcher accepts key=value pairs separated by & or newlines.
type plainTextMatcher struct{}

func (plainTextMatcher) Name() string { return "plain text" }

var plainKeyRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.\-]*$`)

func (plainTextMatcher) Match(op Operation, raw *transport.RawResponse) (Result, string, bool, error) {
	body := strings.TrimSpace(string(raw.Body))
	if body == "" || strings.ContainsAny(body[:1], "<{[") {
		return Result{}, "", false, nil
	}

	fields := make(map[string]string)
	pairs := strings.FieldsFunc(body, func(r rune) bool {
		return r == '&' || r == '\n' || r == '\r'
	})
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok || !plainKeyRegex.MatchString(k) {
			return Result{}, "", false, nil
		}
		if unescaped, err := url.QueryUnescape(v); err == nil {
			v = unescaped
		}
		fields[normalizeFieldName(k)] = strings.TrimSpace(v)
	}

	if _, ok := fields[normalizeFieldName("ResponseCode")]; !ok {
		return Result{}, "", false, nil
	}
	return newResult(raw.StatusCode, fields), "", true, nil
}
