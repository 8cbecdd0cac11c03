package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/gin-gonic/gin"
)

// setRefreshCookie hands the refresh token to the client. The cookie lives
// exactly as long as the token and is only sent back to the auth routes.
func (s *HTTPServer) setRefreshCookie(c *gin.Context, token *models.RefreshToken) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    token.Token,
		Path:     common.AuthBasePath,
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
