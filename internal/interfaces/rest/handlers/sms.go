package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hromada-tools/backoffice/internal/application"
	"github.com/hromada-tools/backoffice/internal/application/services"
	"github.com/hromada-tools/backoffice/internal/domain"
	"github.com/hromada-tools/backoffice/internal/interfaces/rest"
)

type smsTemplateRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type smsPreviewRequest struct {
	TemplateID int64               `json:"template_id"`
	Debtor     domain.DebtorRecord `json:"debtor"`
}

type smsSendRequest struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

type smsBatchRequest struct {
	Messages []services.SmsMessage `json:"messages"`
}

func templateID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, application.NewInvalidInputError("template id must be an integer")
	}
	return id, nil
}

func (h *Handlers) ListSmsTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.sms.Templates(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"templates": templates,
	})
}

func (h *Handlers) GetSmsTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := templateID(r)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	template, err := h.sms.TemplateByID(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, template)
}

func (h *Handlers) CreateSmsTemplate(w http.ResponseWriter, r *http.Request) {
	var req smsTemplateRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}

	template, err := h.sms.CreateTemplate(r.Context(), req.Name, req.Text)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, template)
}

func (h *Handlers) UpdateSmsTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := templateID(r)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	var req smsTemplateRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}

	template, err := h.sms.UpdateTemplate(r.Context(), id, req.Name, req.Text)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, template)
}

func (h *Handlers) DeleteSmsTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := templateID(r)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	if err := h.sms.DeleteTemplate(r.Context(), id); err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) PreviewSms(w http.ResponseWriter, r *http.Request) {
	var req smsPreviewRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}

	preview, err := h.sms.PreviewSms(r.Context(), req.TemplateID, req.Debtor)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, preview)
}

func (h *Handlers) SendSms(w http.ResponseWriter, r *http.Request) {
	var req smsSendRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}

	result, err := h.sms.SendSms(r.Context(), req.Phone, req.Text)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

func (h *Handlers) SendSmsBatch(w http.ResponseWriter, r *http.Request) {
	var req smsBatchRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}

	result, err := h.sms.SendSmsBatch(r.Context(), req.Messages)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, result)
}
