package handlers

const (
	ErrInvalidRequest      = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"
	ErrServiceStarting     = "Service is starting"

	// maxBodyBytes limits JSON request bodies; backups use maxBackupBytes.
	maxBodyBytes   = 1 << 20
	maxBackupBytes = 64 << 20

	// maxOverviewLevels caps the ?level= values of one overview request.
	maxOverviewLevels = 32
)
