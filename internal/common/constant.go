package common

const (
	// AuthorizationHeader carries the bearer access token.
	AuthorizationHeader = "Authorization"

	// BearerScheme is the only accepted authorization scheme.
	BearerScheme = "Bearer"

	// TokenType is reported to clients alongside a freshly issued token.
	TokenType = "bearer"
)
