// Package handler exposes the discovery pipeline over HTTP, keeping the
// teacher's gin bind-validate-call-JSON idiom.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailbeacon/internal/batch"
	"mailbeacon/internal/beacon"
	"mailbeacon/internal/processor"
)

// Processor is the narrow interface the handler needs from
// internal/processor.
type Processor interface {
	Process(ctx context.Context, input beacon.ContactInput) processor.ProcessingResult
}

// Handler wires the processor (and its batch fan-out) to gin routes.
type Handler struct {
	Processor      Processor
	Logger         *zap.Logger
	MaxConcurrency int
}

// FindSingleRequest is the body for POST /api/v1/find-single.
type FindSingleRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	FullName      string `json:"full_name"`
	Domain        string `json:"domain"`
	CompanyDomain string `json:"company_domain"`
	Company       string `json:"company"`
}

func (r FindSingleRequest) toContact() beacon.ContactInput {
	return beacon.ContactInput{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		FullName:      r.FullName,
		Domain:        r.Domain,
		CompanyDomain: r.CompanyDomain,
		Company:       r.Company,
	}
}

// FindBatchRequest is the body for POST /api/v1/find-batch.
type FindBatchRequest struct {
	Contacts []FindSingleRequest `json:"contacts"`
}

// FindSingle handles POST /api/v1/find-single.
func (h *Handler) FindSingle(c *gin.Context) {
	var req FindSingleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Logger.Warn("invalid find-single request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.FullName == "" && (req.FirstName == "" || req.LastName == "") {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "one of first_name+last_name or full_name is required",
		})
		return
	}
	if req.Domain == "" && req.CompanyDomain == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "one of domain or company_domain is required",
		})
		return
	}

	result := h.Processor.Process(c.Request.Context(), req.toContact())
	c.JSON(http.StatusOK, result)
}

// FindBatch handles POST /api/v1/find-batch, fanning contacts out across
// a bounded pool.
func (h *Handler) FindBatch(c *gin.Context) {
	var req FindBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Logger.Warn("invalid find-batch request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}
	if len(req.Contacts) == 0 {
		c.JSON(http.StatusOK, gin.H{"results": []processor.ProcessingResult{}})
		return
	}

	contacts := make([]beacon.ContactInput, len(req.Contacts))
	for i, r := range req.Contacts {
		contacts[i] = r.toContact()
	}

	results := batch.Run(c.Request.Context(), contacts, h.MaxConcurrency, h.Processor.Process)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "mailbeacon",
	})
}
