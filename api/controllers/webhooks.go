package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/calderalogistics/loadpilot-backend/api/responses"
	"github.com/calderalogistics/loadpilot-backend/api/validators"
	"github.com/calderalogistics/loadpilot-backend/internal/falloff"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
)

type inboundReplyHandler interface {
	HandleInboundResponse(ctx context.Context, fromPhone, responseText string) error
}

type carrierReplyRequest struct {
	From string `json:"from" validate:"required"`
	Text string `json:"text" validate:"required"`
}

type acceptanceRequest struct {
	LoadID    uuid.UUID `json:"load_id" validate:"required"`
	CarrierID uuid.UUID `json:"carrier_id" validate:"required"`
}

// CarrierReplyWebhook ingests an inbound SMS reply from the messaging
// provider. The reply is matched to the latest sent touchpoint for the
// sending number; unmatched replies are accepted and dropped.
func CarrierReplyWebhook(svc inboundReplyHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req carrierReplyRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.HandleInboundResponse(r.Context(), req.From, req.Text); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "accepted"})
	}
}

// FallOffAcceptanceWebhook books the first backup carrier that accepts
// an urgent offer. Late acceptances, after the episode closed, are
// acknowledged without effect.
func FallOffAcceptanceWebhook(svc falloff.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req acceptanceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recovered, err := svc.HandleAcceptance(r.Context(), req.LoadID, req.CarrierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := "ignored"
		if recovered {
			status = "booked"
		}
		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}
