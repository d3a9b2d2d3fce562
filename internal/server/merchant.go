package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/payflow/internal/fault"
	merchantdomain "github.com/smallbiznis/payflow/internal/merchant/domain"
)

type createMerchantRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	WebhookURL string `json:"webhook_url"`
}

func (s *Server) CreateMerchant(c *gin.Context) {
	var req createMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fault.Validation("invalid_request", "invalid request body"))
		return
	}

	created, err := s.merchantSvc.Create(c.Request.Context(), merchantdomain.CreateMerchantRequest{
		Name:       req.Name,
		Email:      req.Email,
		WebhookURL: req.WebhookURL,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) IssueAPIKey(c *gin.Context) {
	plaintext, key, err := s.merchantSvc.IssueAPIKey(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          key.ID,
		"merchant_id": key.MerchantID,
		"api_key":     plaintext,
		"created_at":  key.CreatedAt,
	})
}
