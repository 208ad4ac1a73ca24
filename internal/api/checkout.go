package api

import (
	"errors"
	"io"
	"net/http"

	"shop-backend/internal/stripe"
	"shop-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// createCheckoutSession starts a hosted payment session for a committed order
func (h *Handler) createCheckoutSession(c *gin.Context) {
	var req struct {
		OrderID string `json:"order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.checkoutService.CreateSession(c.Request.Context(), req.OrderID)
	if err != nil {
		respondErr(c, err, "Failed to create checkout session")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// getCheckoutSession reports the provider-side state of a session
func (h *Handler) getCheckoutSession(c *gin.Context) {
	details, err := h.checkoutService.GetSessionDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err, "Failed to fetch checkout session")
		return
	}
	c.JSON(http.StatusOK, details)
}

// stripeWebhook verifies and applies a payment provider event. The body must
// be read raw; the signature covers the exact bytes sent.
func (h *Handler) stripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	event, err := stripe.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		if errors.Is(err, stripe.ErrInvalidSignature) {
			util.WebhookEventsTotal.WithLabelValues("unknown", "bad_signature").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	if err := h.reconciler.HandleEvent(c.Request.Context(), event); err != nil {
		// Non-2xx makes the provider retry the event later.
		util.GetLogger().Error("webhook handling failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Event handling failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
