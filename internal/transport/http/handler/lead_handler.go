package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lead-crm/internal/domain"
	"lead-crm/internal/service"
	"lead-crm/internal/transport/http/ez"
	resp "lead-crm/internal/transport/http/response"
)

type LeadHandler struct {
	svc   *service.LeadService
	guard Guards
	log   *zap.Logger
}

func NewLeadHandler(svc *service.LeadService, g Guards, l *zap.Logger) *LeadHandler {
	return &LeadHandler{svc: svc, guard: g, log: l}
}

func (h *LeadHandler) Priority() int { return 20 }

type leadsOut struct {
	Leads []domain.Lead `json:"leads"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
	Total int64         `json:"total"`
}

type assignIn struct {
	StaffID string `json:"staffId"`
}

type assignOut struct {
	Message    string  `json:"message"`
	LeadID     string  `json:"leadId"`
	AssignedTo *string `json:"assignedTo"`
}

type noteIn struct {
	Text string `json:"text"`
}

type notesOut struct {
	Message string        `json:"message"`
	Notes   []domain.Note `json:"notes"`
}

// MountAPI: /leads. Every route needs a session; create and assign are
// admin-only, the rest are scoped by assignment in the service.
func (h *LeadHandler) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api.Group("/leads", h.guard.Session), h.log)

	ez.RegisterAction(e, ez.Action[service.ListQuery, leadsOut]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, p domain.Principal, in *service.ListQuery) (leadsOut, error) {
			res, err := h.svc.ListLeads(c.Request.Context(), p, *in)
			if err != nil {
				return leadsOut{}, err
			}
			return leadsOut{Leads: items(res), Page: res.Page, Pages: res.TotalPages, Total: res.Total}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[service.LeadInput, *domain.Lead]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Auth:   true,
		Roles:  adminOnly,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, p domain.Principal, in *service.LeadInput) (*domain.Lead, error) {
			return h.svc.CreateLead(c.Request.Context(), p, *in)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.Lead]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, p domain.Principal, _ *struct{}) (*domain.Lead, error) {
			return h.svc.GetLead(c.Request.Context(), p, c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[service.LeadPatch, *domain.Lead]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindStrictJSON,
		Auth:   true,
		Handler: func(c *gin.Context, p domain.Principal, in *service.LeadPatch) (*domain.Lead, error) {
			return h.svc.UpdateLead(c.Request.Context(), p, c.Param("id"), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, resp.Message]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, p domain.Principal, _ *struct{}) (resp.Message, error) {
			if err := h.svc.DeleteLead(c.Request.Context(), p, c.Param("id")); err != nil {
				return resp.Message{}, err
			}
			return resp.Message{Message: "Lead removed"}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[assignIn, assignOut]{
		Method: http.MethodPut,
		Path:   "/:id/assign",
		Binder: ez.BindJSON,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, p domain.Principal, in *assignIn) (assignOut, error) {
			l, err := h.svc.AssignLead(c.Request.Context(), p, c.Param("id"), in.StaffID)
			if err != nil {
				return assignOut{}, err
			}
			return assignOut{Message: "Lead assigned successfully", LeadID: l.ID, AssignedTo: l.AssignedTo}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[noteIn, notesOut]{
		Method: http.MethodPost,
		Path:   "/:id/notes",
		Binder: ez.BindJSON,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, p domain.Principal, in *noteIn) (notesOut, error) {
			notes, err := h.svc.AddNote(c.Request.Context(), p, c.Param("id"), in.Text)
			if err != nil {
				return notesOut{}, err
			}
			return notesOut{Message: "Note added successfully", Notes: notes}, nil
		},
	})
}
