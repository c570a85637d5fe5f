package nostd

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zhtranslations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/labstack/echo/v4"
)

// CustomValidator 基于 validator/v10 的 echo 请求校验器，错误信息翻译为中文
type CustomValidator struct {
	Validator *validator.Validate
	trans     ut.Translator
}

// TransInit 初始化中文翻译器
func (cv *CustomValidator) TransInit() error {
	zhLocale := zh.New()
	uni := ut.New(zhLocale, zhLocale)

	trans, ok := uni.GetTranslator("zh")
	if !ok {
		return fmt.Errorf("translator not found: zh")
	}
	cv.trans = trans

	return zhtranslations.RegisterDefaultTranslations(cv.Validator, trans)
}

// Validate 实现 echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.Validator.Struct(i); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && cv.trans != nil {
			messages := make([]string, 0, len(errs))
			for _, e := range errs {
				messages = append(messages, e.Translate(cv.trans))
			}
			return echo.NewHTTPError(http.StatusBadRequest, strings.Join(messages, "；"))
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
