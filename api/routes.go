package api

import (
	"chatdesk/auth"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes wires the dashboard API. The REST surface sits behind
// the bearer-token middleware; the live-connection endpoint identifies
// the client at the transport level and the health probe stays public.
func RegisterRoutes(r chi.Router, h *Handler, ws *WSHandler, verifier *auth.Verifier) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/ws/{clientID}", ws.Handle)

		r.Group(func(r chi.Router) {
			r.Use(verifier.Middleware)

			r.Get("/chats", h.ListChats)
			r.Get("/chats/{chatID}/messages", h.ListMessages)
			r.Post("/chats/{chatID}/messages", h.CreateMessage)
			r.Post("/send", h.Send)

			r.Get("/campaigns", h.ListCampaigns)
			r.Post("/campaigns", h.CreateCampaign)
			r.Post("/campaigns/{campaignID}/send", h.SendCampaign)

			r.Get("/contacts", h.ListContacts)
			r.Post("/contacts", h.CreateContact)
			r.Delete("/contacts/{contactID}", h.DeleteContact)

			r.Get("/templates", h.ListTemplates)
			r.Post("/templates", h.CreateTemplate)
			r.Delete("/templates/{templateID}", h.DeleteTemplate)

			r.Post("/integrations/google-sheets/connect", h.ConnectSheet)
		})
	})

	r.Get("/healthz", h.Health)
}
