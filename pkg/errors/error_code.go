package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidDateRange     ErrorCode = 102
	ErrCodeInvalidCapital       ErrorCode = 103
	ErrCodeInvalidTicker        ErrorCode = 104
	ErrCodeInsufficientData     ErrorCode = 105
	ErrCodeMissingParameter     ErrorCode = 106

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 203
	ErrCodeDataParseFailed       ErrorCode = 204
	ErrCodeDataFetchFailed       ErrorCode = 205

	// Strategy errors (300-399)
	ErrCodeUnsupportedStrategy   ErrorCode = 300
	ErrCodeStrategyConfigError   ErrorCode = 301
	ErrCodeStrategyRuntimeError  ErrorCode = 302
	ErrCodeStrategyTimeout       ErrorCode = 303
	ErrCodeAdvisorUnavailable    ErrorCode = 304
	ErrCodeAdvisorResponseBroken ErrorCode = 305

	// Order errors (400-499)
	ErrCodeOrderRejected   ErrorCode = 400
	ErrCodeInvalidQuantity ErrorCode = 401
	ErrCodeInvalidPrice    ErrorCode = 402

	// Backtest errors (500-599)
	ErrCodeBacktestFailed       ErrorCode = 500
	ErrCodeBacktestNoStrategies ErrorCode = 501
	ErrCodeResultWriteFailed    ErrorCode = 502
)
