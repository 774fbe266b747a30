package handlers

import (
	"errors"
	"net/http"
	"sociallink/auth"
	"sociallink/models"
	"sociallink/utils"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Response struct {
	Error string `json:"error"`
}

type IDRequest struct {
	ID uint64 `json:"id" form:"id" binding:"required"`
}

type UserIDRequest struct {
	UserID string `json:"user_id" form:"user_id" binding:"required"`
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

var (
	// Predefined errors
	OKResponse         = Response{}
	NopeResponse       = Response{"nope"}
	NotFoundResponse   = Response{"not found"}
	SelfResponse       = Response{"cannot do that to your own account"}
	DBError1Response   = Response{"DB Error 1"}
	DBError2Response   = Response{"DB Error 2"}
	DBError3Response   = Response{"DB Error 3"}
	StorageErrResponse = Response{"storage error"}
)

// statusFor maps known errors to their HTTP status. Unknown errors are
// logged and hidden from the client.
func statusFor(err error) (int, Response) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, NotFoundResponse
	case errors.Is(err, models.ErrInvalid),
		errors.Is(err, models.ErrUsernameInvalid),
		errors.Is(err, models.ErrUsernameReserved),
		errors.Is(err, models.ErrInviteInvalid),
		errors.Is(err, models.ErrInviteUsed),
		errors.Is(err, models.ErrInviteLimit),
		errors.Is(err, models.ErrLimitReached),
		errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest, Response{err.Error()}
	case errors.Is(err, models.ErrUsernameTaken),
		errors.Is(err, models.ErrEmailTaken),
		errors.Is(err, models.ErrBadgeExists),
		errors.Is(err, auth.ErrEmailRegistered):
		return http.StatusConflict, Response{err.Error()}
	case errors.Is(err, models.ErrNotEligible), errors.Is(err, models.ErrSelf):
		return http.StatusForbidden, Response{err.Error()}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, Response{err.Error()}
	}
	utils.Log.Error("request failed", zap.Error(err))
	return http.StatusInternalServerError, Response{"internal error"}
}

func respondError(c *gin.Context, err error) {
	status, response := statusFor(err)
	c.JSON(status, response)
}

// bind accepts JSON and form bodies
func bind(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBind(obj); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return false
	}
	return true
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.Query("offset"))
	limit, _ = strconv.Atoi(c.Query("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return
}
