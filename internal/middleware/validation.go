package middleware

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/util"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators 注册枚举校验标签 quizcategory、quizdifficulty
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("binding validator is not go-playground/validator")
			return
		}
		if err = v.RegisterValidation("quizcategory", func(fl validator.FieldLevel) bool {
			return model.Category(fl.Field().String()).IsValid()
		}); err != nil {
			return
		}
		err = v.RegisterValidation("quizdifficulty", func(fl validator.FieldLevel) bool {
			return model.Difficulty(fl.Field().String()).IsValid()
		})
	})
	return err
}

var tagMessages = map[string]string{
	"required":       "%s is required",
	"quizcategory":   "Invalid category",
	"quizdifficulty": "Invalid difficulty",
}

// BindingError 把 ShouldBindJSON 的错误转换为字段级校验错误
func BindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return util.NewValidationError("body", "Invalid request body")
	}

	out := &util.ValidationError{}
	for _, fe := range verrs {
		field := jsonPath(fe.Namespace())
		msg, ok := tagMessages[fe.Tag()]
		if !ok {
			msg = "%s is invalid"
		}
		if strings.Contains(msg, "%s") {
			msg = fmt.Sprintf(msg, field)
		}
		out.Add(field, msg)
	}
	return out
}

// jsonPath QuizRequest.Questions[0].Difficulty -> questions[0].difficulty
func jsonPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}
