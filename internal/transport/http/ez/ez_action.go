package ez

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foodshare/internal/access"
	"foodshare/internal/domain"
	mdw "foodshare/internal/transport/http/middleware"
	resp "foodshare/internal/transport/http/response"
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l}
}

// 绑定方式
type Binder string

const (
	BindJSON         Binder = "json"  // 从 JSON 绑定
	BindJSONOptional Binder = "json?" // 允许空 body
	BindQuery        Binder = "query" // 从 URL ?a=b 绑定
	BindNone         Binder = "none"  // 不绑定，自己从 c.Param 取
)

// AErr 统一错误对象，Data 会原样放进响应
type AErr struct {
	Code int
	Msg  string
	Data any
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Conflict(msg string) error     { return &AErr{Code: resp.CodeConflict, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// FromError 领域错误 -> 响应码；未知错误一律 500 且不透出细节
func FromError(err error) *AErr {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, domain.ErrValidation):
		return &AErr{Code: resp.CodeBadRequest, Msg: err.Error(), Err: err}
	case errors.Is(err, domain.ErrNotFound):
		return &AErr{Code: resp.CodeNotFound, Msg: err.Error(), Err: err}
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrEmailTaken):
		return &AErr{Code: resp.CodeConflict, Msg: err.Error(), Err: err}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return &AErr{Code: resp.CodeUnauthorized, Msg: err.Error(), Err: err}
	case errors.Is(err, domain.ErrUnauthenticated):
		return &AErr{Code: resp.CodeUnauthorized, Msg: err.Error(), Err: err, Data: gin.H{"redirect": access.Redirect(err)}}
	case errors.Is(err, domain.ErrForbidden):
		return &AErr{Code: resp.CodeForbidden, Msg: err.Error(), Err: err, Data: gin.H{"redirect": access.Redirect(err)}}
	}
	return &AErr{Code: resp.CodeServerError, Msg: "internal error", Err: err}
}

// Action I 入参，O 出参
type Action[I any, O any] struct {
	Method  string      // "GET" | "POST" | "PUT" | "DELETE"
	Path    string      // 例："/listings/:id/claim"
	Binder  Binder      // 绑定方式
	View    access.View // 非空时按页面权限校验，分组需先挂 AuthJWT
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 页面权限
		if a.View != "" {
			if err := access.Check(mdw.CurrentUser(c), a.View); err != nil {
				e.fail(c, err)
				return
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindJSONOptional:
			if bindErr = c.ShouldBindJSON(&in); errors.Is(bindErr, io.EOF) {
				bindErr = nil
			}
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default:
		}
		if bindErr != nil {
			msg := bindErr.Error()
			if mdw.IsBodyTooLarge(bindErr) {
				msg = "request body too large"
			}
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, msg))
			return
		}

		// 3) 执行
		out, err := a.Handler(c, &in)
		if err != nil {
			e.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

func (e EZ) fail(c *gin.Context, err error) {
	ae := FromError(err)
	if ae.Code >= resp.CodeServerError {
		e.log.Error("action failed",
			zap.String("rid", c.GetString(mdw.KeyRID)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(http.StatusOK, resp.ErrorWith(ae.Code, ae.Error(), ae.Data))
}
