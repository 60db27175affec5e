package middlewares

// gin context keys set by this package
const (
	CtxRequestID = "request_id"
	CtxUserID    = "auth.subjectID"
	CtxIsAdmin   = "auth.isAdmin"
)
