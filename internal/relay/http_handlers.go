package relay

import (
	"net/http"

	"ai-recruiter/internal/voice"
	"ai-recruiter/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WebhookHandler is the HTTP edge of the relay.
//
// Contract with the provider: a parseable envelope is always acknowledged
// with 200 "OK", whatever happens internally, so the provider never retries
// and double-applies effects. Only a malformed payload earns a 500.
type WebhookHandler struct {
	Relay *Relay
}

func (h WebhookHandler) Handle(c *gin.Context) {
	log := logger.FromGin(c)

	var ev voice.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		log.Warn("malformed webhook payload", "err", err)
		c.String(http.StatusInternalServerError, "Error")
		return
	}

	log.Debug("webhook event", "type", ev.Type, "call_id", ev.CallID())
	h.Relay.Handle(c.Request.Context(), ev)

	c.String(http.StatusOK, "OK")
}
