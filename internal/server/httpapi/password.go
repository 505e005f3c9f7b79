package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/gin-gonic/gin"
)

const changePasswordTemplate = "change_password"

const changePasswordHTML = `<!DOCTYPE html>
<html>
<head><title>Change password</title></head>
<body>
<h1>Change password</h1>
{{if .Email}}<p>Signed in as {{.Email}}</p>{{end}}
{{if .Changed}}<p class="notice">Password updated.</p>{{end}}
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="POST" action="/changePassword">
<input type="password" name="password" autocomplete="new-password" required>
<button type="submit">Change password</button>
</form>
</body>
</html>
`

type changePasswordPage struct {
	Email   string
	Changed bool
	Error   string
}

// changePasswordForm routes the caller by authentication state: provider
// users manage their password on the provider profile page, legacy users
// get a form, everyone else is sent to sign in.
func (s *Server) changePasswordForm(c *gin.Context) {
	caller := callerFrom(c)

	switch {
	case caller.Provider != nil:
		c.Redirect(http.StatusSeeOther, s.opts.ProfileURL)
	case caller.Legacy != nil:
		c.HTML(http.StatusOK, changePasswordTemplate, changePasswordPage{
			Email:   caller.Legacy.Email,
			Changed: c.Query("changed") == "1",
		})
	default:
		c.Redirect(http.StatusSeeOther, s.opts.SignInURL)
	}
}

func (s *Server) changePassword(c *gin.Context) {
	caller := callerFrom(c)

	if caller.Provider != nil {
		c.Redirect(http.StatusSeeOther, s.opts.ProfileURL)
		return
	}
	if caller.Legacy == nil {
		c.String(http.StatusUnauthorized, common.MsgNotAuthenticated)
		return
	}

	err := s.deps.Accounts.ChangePassword(c.Request.Context(), caller.Legacy, c.PostForm("password"))
	switch {
	case errors.Is(err, common.ErrorValidation):
		c.HTML(http.StatusBadRequest, changePasswordTemplate, changePasswordPage{
			Email: caller.Legacy.Email,
			Error: "Password must not be empty.",
		})
	case errors.Is(err, common.ErrorNotFound):
		c.String(http.StatusUnauthorized, common.MsgNotAuthenticated)
	case err != nil:
		s.logger.Error(c.Request.Context(), "change password", "error", err)
		c.String(http.StatusInternalServerError, "internal error")
	default:
		c.Redirect(http.StatusSeeOther, "/changePassword?changed=1")
	}
}
