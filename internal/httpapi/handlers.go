package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"ai-recruiter/internal/auth"
	"ai-recruiter/internal/interview"
	"ai-recruiter/internal/reporting"
	"ai-recruiter/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Interviews *interview.Service
	Stats      *reporting.Service
	Auth       *auth.Manager // nil when auth is disabled
	DB         *sql.DB       // nil when the database is unavailable
}

// --- Calls ---

type startCallRequest struct {
	CandidateName  string `json:"candidateName"`
	CandidatePhone string `json:"candidatePhone"`
	Position       string `json:"position"`
}

// StartCall creates an interview record and dials the candidate.
func (h Handlers) StartCall(c *gin.Context) {
	var req startCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}

	res, err := h.Interviews.Start(c.Request.Context(), req.CandidateName, req.CandidatePhone, req.Position)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"success":        true,
			"callId":         res.CallID,
			"conversationId": res.RecordID,
		})
	case errors.Is(err, interview.ErrInvalidInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, interview.ErrUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "database not available"})
	case errors.Is(err, interview.ErrTooManyCalls):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "concurrent call limit reached"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to start call",
			"details": err.Error(),
		})
	}
}

// EndCall terminates an in-flight call by provider call id.
func (h Handlers) EndCall(c *gin.Context) {
	callID := c.Param("callId")
	if callID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "callId required"})
		return
	}

	if err := h.Interviews.End(c.Request.Context(), callID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to end call",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CallStatus returns the live status/duration/transcript view of a call.
// Unknown call ids report the unknown status rather than a 404.
func (h Handlers) CallStatus(c *gin.Context) {
	callID := c.Param("callId")

	info, err := h.Interviews.CallStatus(c.Request.Context(), callID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, info)
	case errors.Is(err, interview.ErrUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "database not available"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch call status"})
	}
}

// --- Conversations ---

// ListConversations returns all interview records newest-first, transcripts
// omitted.
func (h Handlers) ListConversations(c *gin.Context) {
	records, err := h.Interviews.List(c.Request.Context())
	switch {
	case err == nil:
		if records == nil {
			records = []interview.Record{}
		}
		c.JSON(http.StatusOK, records)
	case errors.Is(err, interview.ErrUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "database not available"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
	}
}

// GetConversation returns one record with its full transcript.
func (h Handlers) GetConversation(c *gin.Context) {
	id := c.Param("id")

	rec, err := h.Interviews.Get(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, rec)
	case errors.Is(err, interview.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
	case errors.Is(err, interview.ErrUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "database not available"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversation"})
	}
}

// --- Reporting ---

func (h Handlers) Overview(c *gin.Context) {
	if h.Stats == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "database not available"})
		return
	}
	out, err := h.Stats.Overview(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login issues a JWT token pair for the configured recruiter account.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	pair, err := h.Auth.Login(time.Now(), req.Email, req.Password)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Health ---

// Health reports process liveness and database reachability. The endpoint
// stays 200 even when the database is down so load balancers keep routing
// webhook traffic.
func (h Handlers) Health(c *gin.Context) {
	database := "disconnected"
	if h.DB != nil {
		if err := utils.HealthCheck(c.Request.Context(), h.DB, 2*time.Second); err == nil {
			database = "connected"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
