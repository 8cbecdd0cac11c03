package common

const (
	// RefreshTokenCookieName is the cookie that carries the refresh token
	// between the HTTP adapter and its clients.
	RefreshTokenCookieName = "refreshToken"

	// AuthorizationHeaderName carries the access token as "Bearer <token>".
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix is the scheme prefix expected in AuthorizationHeaderName.
	BearerPrefix = "Bearer "

	// RequestIDHeaderName is echoed back on every HTTP response.
	RequestIDHeaderName = "X-Request-ID"
)

// HTTP API paths shared by the server and the client.
const (
	AuthBasePath     = "/api/auth"
	RegisterPath     = AuthBasePath + "/register"
	LoginPath        = AuthBasePath + "/login"
	RefreshTokenPath = AuthBasePath + "/refresh-token"
)

// Error messages returned in the "error" field of HTTP responses. Clients
// match on MessageAccessTokenExpired to decide whether to refresh.
const (
	MessageUserNotFound        = "User not found"
	MessageWrongPassword       = "Wrong password"
	MessageInvalidRefreshToken = "Invalid refresh token"
	MessageRefreshExpired      = "Token expired"
	MessageAccessTokenExpired  = "access token expired"
	MessageUnauthenticated     = "unauthenticated"
	MessageAlreadyExists       = "user already exists"
	MessageBadRequest          = "bad request"
	MessageInternal            = "internal error"
)
