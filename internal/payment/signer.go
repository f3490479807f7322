package payment

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Signature fields appended to redirect-style payloads.
const (
	FieldExpireTime = "PS_EXPIRETIME"
	FieldSigType    = "PS_SIGTYPE"
	FieldSignature  = "PS_SIGNATURE"

	SignatureType = "PSSHA1"
)

var (
	ErrSignatureMissing         = errors.New("signature missing")
	ErrSignatureMismatch        = errors.New("signature mismatch")
	ErrSignatureExpired         = errors.New("signature expired")
	ErrSignatureExpiryMissing   = errors.New("signature expiry missing")
	ErrUnsupportedSignatureType = errors.New("unsupported signature type")
)

// Sign computes the PSSHA1 signature of params: the lowercase hex SHA-1 of the
// secret followed by "&key=value" for every field except PS_SIGNATURE, keys in
// ascending byte order. Insertion order does not matter and nothing here reads
// the clock.
func Sign(params *ParameterSet, secret string) string {
	keys := params.Keys()
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(secret)
	for _, k := range keys {
		if k == FieldSignature {
			continue
		}
		sb.WriteByte('&')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params.Value(k))
	}

	sum := sha1.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// SignParameters stamps params with the expiry, the signature type and the
// signature computed over both.
func SignParameters(params *ParameterSet, secret string, expiresAt time.Time) {
	params.Delete(FieldSignature)
	params.Set(FieldExpireTime, strconv.FormatInt(expiresAt.Unix(), 10))
	params.Set(FieldSigType, SignatureType)
	params.Set(FieldSignature, Sign(params, secret))
}

// VerifySignature checks a signed payload, such as a gateway notification,
// against secret. PS_EXPIRETIME is mandatory and must not be before now.
func VerifySignature(params *ParameterSet, secret string, now time.Time) error {
	got, ok := params.Get(FieldSignature)
	if !ok || got == "" {
		return ErrSignatureMissing
	}
	if t := params.Value(FieldSigType); t != "" && t != SignatureType {
		return ErrUnsupportedSignatureType
	}

	want := Sign(params, secret)
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(got)), []byte(want)) != 1 {
		return ErrSignatureMismatch
	}

	raw := params.Value(FieldExpireTime)
	if raw == "" {
		return ErrSignatureExpiryMissing
	}
	exp, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ErrSignatureMismatch
	}
	if now.Unix() > exp {
		return ErrSignatureExpired
	}
	return nil
}
