package internal

import (
	"errors"

	"github.com/go-orz/orz"
	"github.com/labstack/echo/v4"
	"github.com/yxtlab/tzero/internal/xe"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func WithErrorHandler(logger *zap.Logger) func(next echo.HandlerFunc) echo.HandlerFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					return c.JSON(he.Code, orz.Map{
						"code":    he.Code,
						"message": err.Error(),
					})
				}

				var oe *orz.Error
				if errors.As(err, &oe) {
					var code = 400
					if errors.Is(err, xe.ErrRunNotFound) || errors.Is(err, xe.ErrNoRunYet) {
						code = 404
					}
					return c.JSON(code, orz.Map{
						"code":    oe.Code,
						"message": err.Error(),
					})
				}

				if errors.Is(err, gorm.ErrRecordNotFound) {
					return c.JSON(404, orz.Map{
						"code":    404,
						"message": "记录不存在",
					})
				}

				logger.Sugar().Error("api", zap.Error(err))

				return c.JSON(500, orz.Map{
					"code":    500,
					"message": err.Error(),
				})
			}
			return nil
		}
	}
}
