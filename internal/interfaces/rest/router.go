package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// TaskRoutes is implemented by the handlers package; declared here so the
// router does not import it (handlers imports rest for the helpers).
type TaskRoutes interface {
	ProcessDebtorRegister(w http.ResponseWriter, r *http.Request)
	SendEmail(w http.ResponseWriter, r *http.Request)
	UpdateDatabaseCheck(w http.ResponseWriter, r *http.Request)
	UpdateDatabaseExecute(w http.ResponseWriter, r *http.Request)
	DatabasePreview(w http.ResponseWriter, r *http.Request)

	ListCommunities(w http.ResponseWriter, r *http.Request)

	ListSmsTemplates(w http.ResponseWriter, r *http.Request)
	GetSmsTemplate(w http.ResponseWriter, r *http.Request)
	CreateSmsTemplate(w http.ResponseWriter, r *http.Request)
	UpdateSmsTemplate(w http.ResponseWriter, r *http.Request)
	DeleteSmsTemplate(w http.ResponseWriter, r *http.Request)
	PreviewSms(w http.ResponseWriter, r *http.Request)
	SendSms(w http.ResponseWriter, r *http.Request)
	SendSmsBatch(w http.ResponseWriter, r *http.Request)
}

// NewRouter mounts the API surface under /api.
func NewRouter(h TaskRoutes, middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/tasks", func(r chi.Router) {
			r.Post("/process-register", h.ProcessDebtorRegister)
			r.Post("/send-email", h.SendEmail)
			r.Post("/update-database-check", h.UpdateDatabaseCheck)
			r.Post("/update-database-execute", h.UpdateDatabaseExecute)
			r.Get("/database/preview", h.DatabasePreview)
		})

		r.Get("/communities", h.ListCommunities)

		r.Route("/sms", func(r chi.Router) {
			r.Get("/templates", h.ListSmsTemplates)
			r.Post("/templates", h.CreateSmsTemplate)
			r.Get("/templates/{id}", h.GetSmsTemplate)
			r.Put("/templates/{id}", h.UpdateSmsTemplate)
			r.Delete("/templates/{id}", h.DeleteSmsTemplate)
			r.Post("/preview", h.PreviewSms)
			r.Post("/send", h.SendSms)
			r.Post("/send-batch", h.SendSmsBatch)
		})
	})

	return r
}
