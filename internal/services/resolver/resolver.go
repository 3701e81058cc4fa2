package resolver

import (
	"context"
	"log/slog"

	"github.com/tawheedrony/17TrackDashboard/internal/integrations/provider"
	"github.com/tawheedrony/17TrackDashboard/internal/models"
)

// Resolution is the terminal outcome of one tracking number. Exactly one
// of OK/skip applies; Registered marks a success that needed the
// register-then-refetch branch.
type Resolution struct {
	OK            bool
	Registered    bool
	QuotaExceeded bool
	Code          provider.RejectionCode
	RawCode       int64
	Message       string
}

type Resolver struct {
	client provider.Client
}

func New(client provider.Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve drives fetch -> register-on-miss -> one re-fetch -> classify.
// Failures never propagate as errors: every path ends in a Resolution so
// the batch can keep going.
func (r *Resolver) Resolve(ctx context.Context, number string) (*models.NormalizedRecord, Resolution) {
	out, err := r.client.Submit(ctx, provider.OpFetch, number)
	if err != nil {
		return nil, failedErr(err)
	}

	if out.Accepted != nil {
		rec, err := buildRecord(number, out.Accepted)
		if err != nil {
			return nil, failedErr(err)
		}
		return rec, Resolution{OK: true}
	}

	if !out.NeedsRegistration() {
		// Non-remediable at fetch time: registering would not help.
		return nil, failedRejection(out.Rejected)
	}

	slog.Debug("tracking number not registered, registering", "number", number)

	regOut, err := r.client.Submit(ctx, provider.OpRegister, number)
	if err != nil {
		return nil, failedErr(err)
	}
	if regOut.Rejected != nil && !regOut.NeedsRegistration() {
		return nil, failedRejection(regOut.Rejected)
	}

	// Exactly one re-fetch after registration; whatever it says is final.
	out, err = r.client.Submit(ctx, provider.OpFetch, number)
	if err != nil {
		return nil, failedErr(err)
	}
	if out.Accepted == nil {
		return nil, failedRejection(out.Rejected)
	}

	rec, err := buildRecord(number, out.Accepted)
	if err != nil {
		return nil, failedErr(err)
	}
	return rec, Resolution{OK: true, Registered: true}
}

func failedErr(err error) Resolution {
	return Resolution{Code: provider.CodeOther, Message: err.Error()}
}

func failedRejection(rej *provider.Rejection) Resolution {
	if rej == nil {
		return Resolution{Code: provider.CodeOther, Message: "provider rejected without detail"}
	}
	return Resolution{
		QuotaExceeded: rej.Code == provider.CodeQuotaExceeded,
		Code:          rej.Code,
		RawCode:       rej.RawCode,
		Message:       rej.Message,
	}
}
