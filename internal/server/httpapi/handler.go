package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type currentUserResponse struct {
	Username string `json:"username"`
}

func (s *HTTPServer) bindCredentials(c *gin.Context) (*credentialsRequest, bool) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: common.MessageBadRequest})
		return nil, false
	}
	return &req, true
}

func (s *HTTPServer) register(c *gin.Context) {
	req, ok := s.bindCredentials(c)
	if !ok {
		return
	}

	identity, err := s.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, identity)
}

func (s *HTTPServer) login(c *gin.Context) {
	req, ok := s.bindCredentials(c)
	if !ok {
		return
	}

	pair, err := s.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	s.writeTokens(c, pair)
}

func (s *HTTPServer) refreshToken(c *gin.Context) {
	presented, err := c.Cookie(common.RefreshTokenCookieName)
	if err != nil || presented == "" {
		s.abortWithError(c, common.ErrInvalidRefreshToken)
		return
	}

	pair, err := s.users.RefreshToken(c.Request.Context(), presented)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	s.writeTokens(c, pair)
}

func (s *HTTPServer) currentUser(c *gin.Context) {
	name, err := s.users.CurrentUser(claimsFrom(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, currentUserResponse{Username: name})
}

func (s *HTTPServer) writeTokens(c *gin.Context, pair *services.TokenPair) {
	s.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, ExpiresAt: pair.AccessExpiresAt})
}
