package router

import "github.com/flock/backend/internal/interfaces/http/handler"

// ConsolidationRoutes maps the funnel endpoints under /consolidation
func ConsolidationRoutes(h *handler.ContactHandler) *DomainGroup {
	return NewDomainGroup("consolidation", "/consolidation").
		GET("/board", h.Board).
		POST("/contacts", h.Register).
		GET("/contacts", h.List).
		GET("/contacts/:id", h.Get).
		GET("/contacts/:id/recommendations", h.Recommendations).
		PUT("/contacts/:id/stage", h.MoveStage).
		PUT("/contacts/:id/reminder", h.SetReminder).
		POST("/contacts/:id/reminder/complete", h.CompleteReminder).
		DELETE("/contacts/:id/reminder", h.ClearReminder).
		POST("/contacts/:id/tags", h.AddTag).
		DELETE("/contacts/:id/tags", h.RemoveTag).
		PUT("/contacts/:id/group", h.AssignGroup).
		DELETE("/contacts/:id/group", h.UnassignGroup)
}

// SystemRoutes maps the unauthenticated system endpoints under /system
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/ping", h.Ping).
		GET("/info", h.Info)
}
