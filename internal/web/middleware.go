package web

import (
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// requestLogger logs one debug line per request once the response is written.
func requestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			logger.WithFields(log.Fields{
				"method": c.Request().Method,
				"route":  c.Path(),
				"status": c.Response().Status,
				"took":   time.Since(start).String(),
			}).Debug("http request")
			return nil
		}
	}
}
