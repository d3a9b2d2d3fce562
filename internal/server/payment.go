package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/payflow/internal/fault"
	paymentdomain "github.com/smallbiznis/payflow/internal/payment/domain"
)

type createPaymentRequest struct {
	Amount        int64          `json:"amount"`
	Currency      string         `json:"currency"`
	Description   string         `json:"description"`
	CustomerEmail string         `json:"customer_email"`
	CustomerPhone string         `json:"customer_phone"`
	Metadata      map[string]any `json:"metadata"`
	Simulate      string         `json:"simulate"`
}

type refundPaymentRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

func (s *Server) CreatePayment(c *gin.Context) {
	merchant := currentMerchant(c)
	if merchant == nil {
		AbortWithError(c, fault.Unauthorized("missing_merchant", "merchant not resolved"))
		return
	}

	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fault.Validation("invalid_request", "invalid request body"))
		return
	}

	result, err := s.paymentSvc.Create(c.Request.Context(), merchant, paymentdomain.CreatePaymentRequest{
		Amount:         req.Amount,
		Currency:       req.Currency,
		Description:    req.Description,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		Metadata:       req.Metadata,
		IdempotencyKey: strings.TrimSpace(c.GetHeader("Idempotency-Key")),
		Simulate:       req.Simulate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Duplicates get the winner's exact cached bytes, so every holder of
	// the token observes an identical response.
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.Data(status, "application/json", result.Response)
}

func (s *Server) GetPayment(c *gin.Context) {
	merchant := currentMerchant(c)
	if merchant == nil {
		AbortWithError(c, fault.Unauthorized("missing_merchant", "merchant not resolved"))
		return
	}

	payment, err := s.paymentSvc.Get(c.Request.Context(), merchant.ID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, paymentdomain.NewPaymentResponse(payment))
}

func (s *Server) CapturePayment(c *gin.Context) {
	merchant := currentMerchant(c)
	if merchant == nil {
		AbortWithError(c, fault.Unauthorized("missing_merchant", "merchant not resolved"))
		return
	}

	payment, err := s.paymentSvc.Capture(c.Request.Context(), merchant, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, paymentdomain.NewPaymentResponse(payment))
}

func (s *Server) RefundPayment(c *gin.Context) {
	merchant := currentMerchant(c)
	if merchant == nil {
		AbortWithError(c, fault.Unauthorized("missing_merchant", "merchant not resolved"))
		return
	}

	var req refundPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, fault.Validation("invalid_request", "invalid request body"))
			return
		}
	}

	refund, err := s.paymentSvc.Refund(c.Request.Context(), merchant, c.Param("id"), paymentdomain.RefundRequest{
		Amount: req.Amount,
		Reason: req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, refund)
}

func (s *Server) ListRefunds(c *gin.Context) {
	merchant := currentMerchant(c)
	if merchant == nil {
		AbortWithError(c, fault.Unauthorized("missing_merchant", "merchant not resolved"))
		return
	}

	refunds, err := s.paymentSvc.ListRefunds(c.Request.Context(), merchant.ID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"refunds": refunds})
}

// ListWebhookEvents exposes delivery state for inspection; FAILED_PERMANENT
// events are only visible here, never to the payment caller.
func (s *Server) ListWebhookEvents(c *gin.Context) {
	merchant := currentMerchant(c)
	if merchant == nil {
		AbortWithError(c, fault.Unauthorized("missing_merchant", "merchant not resolved"))
		return
	}

	if _, err := s.paymentSvc.Get(c.Request.Context(), merchant.ID, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	events, err := s.webhookRepo.ListByPayment(c.Request.Context(), s.db, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"webhook_events": events})
}
