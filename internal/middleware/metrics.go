package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/job-board/backend/internal/metrics"
	"github.com/labstack/echo/v4"
)

// MetricsMiddleware counts handled requests by route template, method and status code
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			code := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					code = he.Code
				} else {
					code = http.StatusInternalServerError
				}
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			metrics.HttpRequestsTotal.WithLabelValues(path, c.Request().Method, strconv.Itoa(code)).Inc()
			return err
		}
	}
}
