package middlewares

// gin context keys
const (
	CtxRequestID = "request_id"
	CtxJobID     = "job_id"
	ctxIdentity  = "auth.identity"
)
