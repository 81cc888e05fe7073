package constants

const (
	// ContextKeyUserID is both the session key and the gin context key for
	// the authenticated user id.
	ContextKeyUserID = "user_id"
	// ContextKeyTaskID holds the parsed :id path parameter of task routes.
	ContextKeyTaskID = "task_id"
	// ContextKeyRequestID holds the request id set by the request id middleware.
	ContextKeyRequestID = "request_id"

	SessionCookieName = "todo_session"

	MinPasswordLength = 3
	MaxUsernameLength = 50
	MaxTitleLength    = 255

	MinPageSize = 1
	MaxPageSize = 100

	// TimestampLayout is the wire format of every timestamp.
	TimestampLayout = "2006-01-02 15:04:05"
	// DateLayout is accepted for due dates in addition to TimestampLayout.
	DateLayout = "2006-01-02"
)
