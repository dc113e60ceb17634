package ez

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lead-crm/internal/domain"
	mdw "lead-crm/internal/transport/http/middleware"
	resp "lead-crm/internal/transport/http/response"
)

// EZ registers actions on a router group.
type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ { return EZ{g: g, log: l} }

// Group returns an EZ on a sub-group with extra middleware.
func (e EZ) Group(path string, handlers ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, handlers...), log: e.log}
}

type Binder string

const (
	BindJSON       Binder = "json"        // JSON body, unknown keys ignored
	BindStrictJSON Binder = "strict_json" // JSON body, unknown keys rejected
	BindQuery      Binder = "query"       // ?a=b
	BindNone       Binder = "none"        // read c.Param yourself
)

// Action is one endpoint: I is the bound input, O the success body.
type Action[I any, O any] struct {
	Method string
	Path   string
	Binder Binder
	// Auth requires a principal attached by AuthJWT.
	Auth  bool
	Roles []domain.Role
	// Status on success, 200 when zero.
	Status  int
	Handler func(c *gin.Context, p domain.Principal, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		var p domain.Principal
		if a.Auth {
			var ok bool
			if p, ok = mdw.PrincipalFrom(c); !ok {
				e.fail(c, domain.Unauthorized("Not authorized, no token"))
				return
			}
			if len(a.Roles) > 0 && !slices.Contains(a.Roles, p.Role) {
				e.fail(c, domain.Forbidden("Not authorized as an "+string(a.Roles[0])))
				return
			}
		}

		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp.Error("Request body too large"))
				return
			}
			e.fail(c, err)
			return
		}

		out, err := a.Handler(c, p, &in)
		if err != nil {
			e.fail(c, err)
			return
		}
		c.JSON(status, out)
	}
	e.g.Handle(strings.ToUpper(a.Method), a.Path, h)
}

// fail reports unexpected errors, then writes the envelope.
func (e EZ) fail(c *gin.Context, err error) {
	if domain.KindOf(err) == domain.KindInternal {
		e.log.Error("request failed",
			zap.String("rid", c.GetString(mdw.KeyRequestID)),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
	}
	resp.Abort(c, err)
}

func bind(c *gin.Context, b Binder, in any) error {
	switch b {
	case BindJSON:
		if err := c.ShouldBindJSON(in); err != nil {
			return bodyError(err)
		}
	case BindStrictJSON:
		dec := json.NewDecoder(c.Request.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(in); err != nil {
			return bodyError(err)
		}
	case BindQuery:
		if err := c.ShouldBindQuery(in); err != nil {
			return domain.Validation("Invalid query parameters")
		}
	}
	return nil
}

// bodyError turns a decode failure into a validation error naming the field
// where possible.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return domain.Validation("Request body is required")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return domain.Validation("Invalid request body", domain.FieldError{Field: typeErr.Field, Message: "has the wrong type"})
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return domain.Validation("Invalid request body", domain.FieldError{Field: field, Message: "is not allowed"})
	}
	return domain.Validation("Invalid request body")
}
