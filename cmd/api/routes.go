package main

import (
	"ai-recruiter/internal/auth"
	"ai-recruiter/internal/httpapi"
	"ai-recruiter/internal/realtime"
	"ai-recruiter/internal/relay"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	handlers httpapi.Handlers
	webhook  relay.WebhookHandler
	hub      *realtime.Hub
	auth     *auth.Manager // nil disables bearer auth on recruiter routes
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	// public: health, the provider webhook and the realtime socket. The
	// webhook stays open because the provider cannot present recruiter
	// credentials; it must always be acknowledged.
	r.GET("/api/health", deps.handlers.Health)
	r.POST("/api/vapi/webhook", deps.webhook.Handle)
	r.GET("/ws", deps.hub.HandleWS)

	if deps.auth != nil {
		r.POST("/api/auth/login", deps.handlers.Login)
	}

	api := r.Group("/api")
	if deps.auth != nil {
		api.Use(auth.RequireAccessToken(deps.auth))
	}
	{
		api.POST("/calls/start", deps.handlers.StartCall)
		api.POST("/calls/:callId/end", deps.handlers.EndCall)
		api.GET("/calls/:callId/status", deps.handlers.CallStatus)

		api.GET("/conversations", deps.handlers.ListConversations)
		api.GET("/conversations/:id", deps.handlers.GetConversation)

		api.GET("/stats", deps.handlers.Overview)
	}
}
