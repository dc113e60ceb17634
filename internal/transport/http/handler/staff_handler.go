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

// StaffHandler is the admin-only staff directory.
type StaffHandler struct {
	svc   *service.StaffService
	guard Guards
	log   *zap.Logger
}

func NewStaffHandler(svc *service.StaffService, g Guards, l *zap.Logger) *StaffHandler {
	return &StaffHandler{svc: svc, guard: g, log: l}
}

func (h *StaffHandler) Priority() int { return 30 }

type staffOut struct {
	Staff []domain.User `json:"staff"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
	Total int64         `json:"total"`
}

func (h *StaffHandler) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api.Group("/staff", h.guard.Session, h.guard.Admin), h.log)

	ez.RegisterAction(e, ez.Action[service.ListQuery, staffOut]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, _ domain.Principal, in *service.ListQuery) (staffOut, error) {
			res, err := h.svc.ListStaff(c.Request.Context(), *in)
			if err != nil {
				return staffOut{}, err
			}
			return staffOut{Staff: items(res), Page: res.Page, Pages: res.TotalPages, Total: res.Total}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ domain.Principal, _ *struct{}) (*domain.User, error) {
			return h.svc.GetStaff(c.Request.Context(), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[service.StaffInput, *domain.User]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ domain.Principal, in *service.StaffInput) (*domain.User, error) {
			return h.svc.CreateStaff(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[service.StaffPatch, *domain.User]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ domain.Principal, in *service.StaffPatch) (*domain.User, error) {
			return h.svc.UpdateStaff(c.Request.Context(), c.Param("id"), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, resp.Message]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ domain.Principal, _ *struct{}) (resp.Message, error) {
			if err := h.svc.DeleteStaff(c.Request.Context(), c.Param("id")); err != nil {
				return resp.Message{}, err
			}
			return resp.Message{Message: "Staff deleted successfully"}, nil
		},
	})
}
