package forms

import "strings"

// SignupForm registers a new user.
type SignupForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Username  string `form:"username" validate:"required,max=150,username"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
	Errors    Errors `form:"-" validate:"-"`
}

func NewSignupForm() *SignupForm {
	return &SignupForm{Errors: Errors{}}
}

// Validate checks the fields. usernameTaken may be nil.
func (f *SignupForm) Validate(usernameTaken func(username string) (bool, error)) (bool, error) {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Username = strings.TrimSpace(f.Username)
	structErrors(f, f.Errors)

	if usernameTaken != nil && len(f.Errors.Get("username")) == 0 {
		taken, err := usernameTaken(f.Username)
		if err != nil {
			return false, err
		}
		if taken {
			f.Errors.Add("username", MsgUsernameTaken)
		}
	}
	return !f.Errors.Any(), nil
}

func (f *SignupForm) Fields() []Field {
	return []Field{
		{Name: "first_name", Label: "Имя", Widget: "text", Value: f.FirstName, Errors: f.Errors.Get("first_name")},
		{Name: "last_name", Label: "Фамилия", Widget: "text", Value: f.LastName, Errors: f.Errors.Get("last_name")},
		{
			Name: "username", Label: "Имя пользователя", Widget: "text", Value: f.Username, Required: true,
			HelpText: "Не более 150 символов. Только буквы, цифры и символы @/./+/-/_.",
			Errors:   f.Errors.Get("username"),
		},
		{
			Name: "password1", Label: "Пароль", Widget: "password", Required: true,
			HelpText: "Пароль должен содержать как минимум 8 символов.",
			Errors:   f.Errors.Get("password1"),
		},
		{
			Name: "password2", Label: "Подтверждение пароля", Widget: "password", Required: true,
			Errors: f.Errors.Get("password2"),
		},
	}
}

// LoginForm authenticates an existing user.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Errors   Errors `form:"-" validate:"-"`
}

func NewLoginForm() *LoginForm {
	return &LoginForm{Errors: Errors{}}
}

func (f *LoginForm) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	f.Username = strings.TrimSpace(f.Username)
	structErrors(f, f.Errors)
	return !f.Errors.Any()
}

// Reject records a credentials failure that is not tied to one field.
func (f *LoginForm) Reject() {
	f.Errors.Add("__all__", MsgBadLogin)
}

func (f *LoginForm) Fields() []Field {
	return []Field{
		{Name: "username", Label: "Имя пользователя", Widget: "text", Value: f.Username, Required: true, Errors: f.Errors.Get("username")},
		{Name: "password", Label: "Пароль", Widget: "password", Required: true, Errors: f.Errors.Get("password")},
	}
}
