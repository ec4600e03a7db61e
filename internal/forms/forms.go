// Package forms binds HTML form submissions, validates them and describes their fields for rendering.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Error messages shown next to fields.
const (
	MsgRequired      = "Это обязательное поле."
	MsgInvalidChoice = "Выберите корректный вариант. Вашего варианта нет среди допустимых значений."
	MsgInvalidImage  = "Загрузите правильное изображение. Файл, который вы загрузили, поврежден или не является изображением."
	MsgImageTooLarge = "Файл слишком большой."
	MsgSlug          = "Значение должно состоять только из латинских букв, цифр, знаков подчеркивания или дефиса."
	MsgSlugTaken     = "Группа с таким адресом уже существует."
	MsgUsername      = "Введите правильное имя пользователя. Оно может содержать только буквы, цифры и знаки @/./+/-/_."
	MsgUsernameTaken = "Пользователь с таким именем уже существует."
	MsgPasswordShort = "Введённый пароль слишком короткий. Он должен содержать как минимум 8 символов."
	MsgPasswordMatch = "Введенные пароли не совпадают."
	MsgBadLogin      = "Пожалуйста, введите правильные имя пользователя и пароль. Оба поля могут быть чувствительны к регистру."
)

var (
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}.@+_-]+$`)
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Choice is one option of a select field.
type Choice struct {
	Value    string
	Label    string
	Selected bool
}

// Field describes a form field for the templates.
type Field struct {
	Name     string
	Label    string
	HelpText string
	Widget   string // text, textarea, select, file, password
	Value    string
	Required bool
	Choices  []Choice
	Rows     int
	Cols     int
	// Current is the stored file shown by file widgets.
	Current string
	Errors  []string
}

// Errors collects validation messages per field name.
type Errors map[string][]string

// Add appends a message for field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Get returns the messages of field.
func (e Errors) Get(field string) []string {
	return e[field]
}

// Any reports whether at least one message was recorded.
func (e Errors) Any() bool {
	return len(e) > 0
}

// structErrors validates s with the shared validator and translates failures.
func structErrors(s interface{}, errs Errors) {
	err := validatorInstance().Struct(s)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("__all__", err.Error())
		return
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "max":
		return fmt.Sprintf("Убедитесь, что это значение содержит не более %s символов (сейчас %d).",
			fe.Param(), len([]rune(fmt.Sprint(fe.Value()))))
	case "min":
		if fe.Field() == "password1" {
			return MsgPasswordShort
		}
		return fmt.Sprintf("Убедитесь, что это значение содержит не менее %s символов.", fe.Param())
	case "slug":
		return MsgSlug
	case "username":
		return MsgUsername
	case "eqfield":
		return MsgPasswordMatch
	default:
		return "Введите правильное значение."
	}
}
