package utils

import (
	"io"

	"github.com/MrSnakeDoc/enumlive/internal/logger"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup in defer where error handling is not critical,
// such as draining response bodies.
func Close(c io.Closer) {
	_ = c.Close()
}

// CloseLogged closes c and logs a failure as a warning.
// Use for defer statements on files whose close error we want to see.
func CloseLogged(c io.Closer, log logger.Logger, what string) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close",
			logger.String("resource", what),
			logger.Error(err))
	}
}
