package common

const (
	// AuthorizationHeaderName carries the bearer token on HTTP requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the only accepted Authorization scheme.
	BearerScheme = "Bearer"

	// TokenType is returned to clients alongside the access token.
	TokenType = "bearer"

	// RequestIDHeaderName is echoed on every response.
	RequestIDHeaderName = "X-Request-ID"
)

// Roles with built-in meaning. Any other string is a valid, unprivileged role.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
