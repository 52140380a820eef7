package logging

const (
	// ServiceName is the DI/service locator name for the logging service.
	ServiceName = "logging"
	emptyString = ""

	unknownFile = "unknown"

	categoryError    = "error"
	categoryCombined = "combined"

	sinkNameError    = "error-file"
	sinkNameCombined = "combined-file"
	sinkNameConsole  = "console"

	// maxUserTextRunes is the cut-off for inbound message text.
	maxUserTextRunes = 500
	truncateSuffix   = "..."

	defaultAccessLogCaller = "http-access"
	defaultMaxFileSizeMB   = 20
)

// Field names used in every record, besides the zerolog envelope (level, time, message, caller).
const (
	FieldStack       = "stack"
	FieldErrorType   = "error_type"
	FieldUserID      = "user_id"
	FieldUsername    = "username"
	FieldName        = "name"
	FieldText        = "text"
	FieldState       = "state"
	FieldStateData   = "state_data"
	FieldErrorChain  = "error_chain"
	FieldErrorRoot   = "error_root"
	FieldErrorOps    = "error_ops"
	FieldErrorRootOp = "error_root_op"
)

const (
	errMsgNilConfig        = "Logging config is nil."
	errMsgNilService       = "Logger service is nil."
	errMsgWorkingDirNotSet = "Working directory is not set."
	errMsgConfigInvalid    = "Logging configuration is invalid."
	errMsgRelDirAbsolute   = "RelLogFileDir must be a relative path."
	errMsgNoSinks          = "No logging sinks enabled."
	errMsgCreateDir        = "Failed to create logs directory."
	errMsgReadConfig       = "Failed to read logging config file."
	errMsgParseConfig      = "Failed to parse logging config file."
)
