package gateway

import (
	"context"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/iris"
	"go.uber.org/zap"
)

// MidtransGateway disburses salaries through the Midtrans Iris payout API.
type MidtransGateway struct {
	client iris.Client
	logger *zap.Logger
}

// NewMidtransGateway initialises the Iris client. useProduction selects the
// live environment; anything else targets the sandbox.
func NewMidtransGateway(serverKey string, useProduction bool, logger *zap.Logger) *MidtransGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	env := midtrans.Sandbox
	if useProduction {
		env = midtrans.Production
	}
	var client iris.Client
	client.New(serverKey, env)
	return &MidtransGateway{client: client, logger: logger}
}

// Submit creates a single-beneficiary payout. Provider 5xx responses and
// transport failures classify as transient; everything else is a definitive
// rejection.
func (g *MidtransGateway) Submit(ctx context.Context, req PayoutRequest) (*PayoutResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindTransient, Message: "context cancelled", Cause: err}
	}

	payoutReq := iris.CreatePayoutReq{
		Payouts: []iris.CreatePayoutDetailReq{{
			BeneficiaryName:    req.RecipientName,
			BeneficiaryAccount: req.RecipientAccount,
			BeneficiaryBank:    req.RecipientBank,
			BeneficiaryEmail:   req.RecipientEmail,
			Amount:             req.Amount.StringFixed(0),
			Notes:              notes(req),
		}},
	}

	resp, apiErr := g.client.CreatePayout(payoutReq)
	if apiErr != nil {
		return nil, classify(apiErr)
	}
	if len(resp.Payouts) == 0 {
		return nil, &Error{Kind: KindRejected, Message: "provider returned no payout entries"}
	}

	payout := resp.Payouts[0]
	g.logger.Info("payout accepted",
		zap.String("reference", req.Reference),
		zap.String("transaction_id", payout.ReferenceNo),
		zap.String("status", payout.Status))
	return &PayoutResult{TransactionID: payout.ReferenceNo, Status: payout.Status}, nil
}

func classify(apiErr *midtrans.Error) *Error {
	kind := KindRejected
	if apiErr.StatusCode == 0 || apiErr.StatusCode >= 500 {
		kind = KindTransient
	}
	return &Error{Kind: kind, Message: apiErr.Message, Cause: apiErr}
}

func notes(req PayoutRequest) string {
	if req.Description != "" {
		return req.Description
	}
	return req.Reference
}
