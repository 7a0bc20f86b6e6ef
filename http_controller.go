package examauth

import (
	"errors"
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
)

// AuthController serves the authentication endpoints: registration, login,
// logout, identity introspection, and token verification.
type AuthController struct {
	Logger Logger
	Repo   Users
	Tokens *TokenService
}

// AuthControllerOption mutates an AuthController during construction.
type AuthControllerOption func(*AuthController) *AuthController

// NewAuthController builds the controller; Repo and Tokens are mandatory.
func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing Users repository in auth controller...")
	}
	if c.Tokens == nil {
		panic("Missing TokenService in auth controller...")
	}

	return c
}

// WithRepo sets the identity store.
func WithRepo(repo Users) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

// WithTokens sets the token service.
func WithTokens(tokens *TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Tokens = tokens
		return c
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

// RegistrationPayload is the registration request body.
type RegistrationPayload struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Name                 string `json:"name"`
}

// Validate runs the identity validation rules for registration.
func (r RegistrationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.PasswordConfirmation,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
		validation.Field(&r.Name, validation.Length(0, 100)),
	)
}

// LoginPayload is the login request body.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a regular account and returns it with a fresh token.
func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := new(RegistrationPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload: %v", err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"errors": []string{"request body must be valid JSON"},
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"errors": FormatValidationErrors(err),
		})
	}

	if _, err := a.Repo.GetByEmail(c.Context(), payload.Email); err == nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"errors": []string{"email has already been taken"},
		})
	} else if !errors.Is(err, ErrIdentityNotFound) {
		return err
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		return err
	}

	user := &User{
		Email:        &payload.Email,
		PasswordHash: hash,
		Role:         RoleRegular,
	}
	if payload.Name != "" {
		user.Name = &payload.Name
	}

	if user, err = a.Repo.Create(c.Context(), user); err != nil {
		a.Logger.Error("register create user: %v", err)
		return err
	}

	token, err := a.Tokens.EncodeForUser(user)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":  userPayload(user),
		"token": token,
	})
}

// Login verifies credentials and returns a fresh token.
func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and password are required",
		})
	}

	if payload.Email == "" || payload.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and password are required",
		})
	}

	user, err := a.Repo.GetByEmail(c.Context(), payload.Email)
	if err != nil {
		if !errors.Is(err, ErrIdentityNotFound) {
			a.Logger.Error("login lookup: %v", err)
		}
		return loginRejected(c)
	}

	if err := ComparePasswordAndHash(payload.Password, user.PasswordHash); err != nil {
		return loginRejected(c)
	}

	token, err := a.Tokens.EncodeForUser(user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user":  userPayload(user),
		"token": token,
	})
}

// Logout is stateless: the bearer token simply stops being presented. The
// endpoint exists so clients get their CSRF cookie cleared and a confirmation.
func (a *AuthController) Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "ログアウトしました",
	})
}

// Me returns the authenticated identity.
func (a *AuthController) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"user": userPayload(CurrentUser(c)),
	})
}

// DeleteMe removes the authenticated account.
func (a *AuthController) DeleteMe(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if err := a.Repo.Delete(c.Context(), user.ID); err != nil {
		a.Logger.Error("delete account: %v", err)
		return err
	}
	return c.JSON(fiber.Map{
		"message": "アカウントを削除しました",
	})
}

// Verify reports whether the presented token resolves to a live identity.
func (a *AuthController) Verify(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"valid": false,
		})
	}

	return c.JSON(fiber.Map{
		"valid": true,
		"user":  userPayload(user),
	})
}

func loginRejected(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Invalid email or password",
	})
}

func userPayload(u *User) fiber.Map {
	if u == nil {
		return nil
	}
	payload := fiber.Map{
		"id":       u.ID,
		"role":     u.Role,
		"is_guest": u.IsGuest,
	}
	if u.Email != nil {
		payload["email"] = *u.Email
	}
	if u.Name != nil {
		payload["name"] = *u.Name
	}
	if u.IsGuest && u.GuestExpiresAt != nil {
		payload["guest_expires_at"] = *u.GuestExpiresAt
	}
	return payload
}

// FormatValidationErrors flattens ozzo validation errors into sorted
// field-level messages.
func FormatValidationErrors(err error) []string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	fields := make([]string, 0, len(verrs))
	for field := range verrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(verrs))
	for _, field := range fields {
		messages = append(messages, fmt.Sprintf("%s %s", field, verrs[field].Error()))
	}
	return messages
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("must match password")
		}
		return nil
	}
}
