package middlewares

// gin context keys shared by the middlewares and handlers
const (
	CtxRequestID = "request_id"
	CtxIdentity  = "auth.identity"
	CtxClaims    = "auth.claims"
)
