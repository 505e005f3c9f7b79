package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/server/models"
	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	UserID  string    `json:"user_id"`
	Email   string    `json:"email"`
	Expires time.Time `json:"expires"`
}

func toSessionResponse(s *models.Session) sessionResponse {
	return sessionResponse{UserID: s.UserID, Email: s.Email, Expires: s.Expires}
}

func (s *Server) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := s.deps.Accounts.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	switch {
	case errors.Is(err, common.ErrorValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, common.ErrorAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	case err != nil:
		s.logger.Error(c.Request.Context(), "register", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	s.setSessionCookie(c, session)
	c.JSON(http.StatusCreated, toSessionResponse(session))
}

func (s *Server) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := s.deps.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrorValidation):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	case err != nil:
		s.logger.Error(c.Request.Context(), "login", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	s.setSessionCookie(c, session)
	c.JSON(http.StatusOK, toSessionResponse(session))
}

func (s *Server) logout(c *gin.Context) {
	if token, err := c.Cookie(common.LegacySessionCookieName); err == nil {
		if err := s.deps.Accounts.Logout(c.Request.Context(), token); err != nil {
			s.logger.Error(c.Request.Context(), "logout", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}
	s.clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) session(c *gin.Context) {
	caller := callerFrom(c)
	if caller.Legacy == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(caller.Legacy))
}

// setSessionCookie issues the legacy session cookie. POST /changePassword has
// no CSRF token: SameSite=Lax keeps the cookie off cross-site POSTs, so it
// must not be relaxed to None.
func (s *Server) setSessionCookie(c *gin.Context, session *models.Session) {
	maxAge := int(time.Until(session.Expires).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.LegacySessionCookieName, session.Token, maxAge, "/", "", s.opts.SecureCookies, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.LegacySessionCookieName, "", -1, "/", "", s.opts.SecureCookies, true)
}
