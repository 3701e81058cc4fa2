package provider

import "context"

type Op string

const (
	OpFetch    Op = "gettrackinfo"
	OpRegister Op = "register"
)

// Raw rejection codes of the tracking aggregator (17track v2.2).
const (
	RawCodeAlreadyRegistered = -18019901
	RawCodeNeedsRegistration = -18019902
	RawCodeQuotaExceeded     = -18019908
)

// RejectionCode is the closed classification built once at the client
// boundary. Nothing downstream inspects raw numeric codes.
type RejectionCode int

const (
	CodeOther RejectionCode = iota
	CodeAlreadyRegistered
	CodeNeedsRegistration
	CodeQuotaExceeded
)

func ClassifyCode(raw int64) RejectionCode {
	switch raw {
	case RawCodeAlreadyRegistered:
		return CodeAlreadyRegistered
	case RawCodeNeedsRegistration:
		return CodeNeedsRegistration
	case RawCodeQuotaExceeded:
		return CodeQuotaExceeded
	default:
		return CodeOther
	}
}

type Rejection struct {
	Code    RejectionCode
	RawCode int64
	Message string
}

// Outcome is the partitioned result of one provider call. Exactly one of
// Accepted/Rejected is set on a nil-error return.
type Outcome struct {
	Accepted *Payload
	Rejected *Rejection
}

// NeedsRegistration reports the distinguished "register first" condition.
// The provider signals it with either the already-registered or the
// needs-registration code.
func (o Outcome) NeedsRegistration() bool {
	if o.Rejected == nil {
		return false
	}
	return o.Rejected.Code == CodeAlreadyRegistered || o.Rejected.Code == CodeNeedsRegistration
}

// Client submits one tracking number per call. No retries: retry policy
// lives in the resolver.
type Client interface {
	Submit(ctx context.Context, op Op, trackingNumber string) (Outcome, error)
}
