package handlers

import (
	"errors"
	"net/http"

	"pulsefeed/internal/middleware"
	"pulsefeed/internal/models"
	"pulsefeed/internal/require"
	"pulsefeed/internal/services"
	"pulsefeed/internal/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	hash utils.HashParams
}

func NewAuthHandler(hash utils.HashParams) *AuthHandler {
	return &AuthHandler{hash: hash}
}

// SignIn exchanges form credentials for a fresh token, also set as an
// http-only cookie.
func (h *AuthHandler) SignIn() gin.HandlerFunc {
	type credentials struct {
		Login    string `form:"login" binding:"required"`
		Password string `form:"password" binding:"required"`
	}

	return require.Pipeline{
		Requirements: require.Named{
			"payload": require.Form[credentials](),
		},
	}.Handle(func(c *gin.Context, values require.Values) {
		payload := require.Value[credentials](values, "payload")

		result, err := services.NewAuthService(middleware.Tx(c), h.hash).
			Login(payload.Login, payload.Password)
		if errors.Is(err, services.ErrBadLoginCredentials) {
			abortError(c, http.StatusBadRequest, err)
			return
		}
		if err != nil {
			abortInternal(c, err)
			return
		}

		c.SetCookie(middleware.AuthCookieName, result.Token, 0, "/", "", false, true)
		c.JSON(http.StatusOK, result)
	})
}

// SignOut deletes the caller's token and clears the cookie.
func (h *AuthHandler) SignOut() gin.HandlerFunc {
	return require.Pipeline{
		Checkers: []require.Checker{
			require.Auth(models.RoleAdmin, models.RoleUser),
		},
	}.Handle(func(c *gin.Context, _ require.Values) {
		token, _ := c.Cookie(middleware.AuthCookieName)

		err := services.NewAuthService(middleware.Tx(c), h.hash).Logout(token)
		if errors.Is(err, services.ErrUnknownToken) {
			abortError(c, http.StatusBadRequest, err)
			return
		}
		if err != nil {
			abortInternal(c, err)
			return
		}

		c.SetCookie(middleware.AuthCookieName, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{})
	})
}

// SignUp registers a new user with role "user". Guests only.
func (h *AuthHandler) SignUp() gin.HandlerFunc {
	type registration struct {
		FirstName string `form:"first_name" binding:"required"`
		LastName  string `form:"last_name" binding:"required"`
		Login     string `form:"login" binding:"required"`
		Password  string `form:"password" binding:"required"`
	}

	return require.Pipeline{
		Checkers: []require.Checker{
			require.Auth(models.RoleGuest),
		},
		Requirements: require.Named{
			"payload": require.Form[registration](),
		},
	}.Handle(func(c *gin.Context, values require.Values) {
		payload := require.Value[registration](values, "payload")

		_, err := services.NewUserService(middleware.Tx(c), h.hash).
			RegisterNew(payload.FirstName, payload.LastName, payload.Login, payload.Password)
		if errors.Is(err, services.ErrKnownLogin) {
			abortError(c, http.StatusBadRequest, err)
			return
		}
		if err != nil {
			abortInternal(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{})
	})
}
