package service

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/digkill/wallify/internal/metrics"
	"github.com/digkill/wallify/internal/models"
	"github.com/digkill/wallify/internal/repository"
)

//go:embed assets/default_profile.png
var defaultProfilePicture []byte

// Usernames are letters, digits and @.+-_ with no ".." run.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9@.+_-]+$`)

// ErrUsernameTaken is a persistence error whose message is safe to show.
var ErrUsernameTaken = fmt.Errorf("%w: username already exists", ErrPersistence)

type AuthService struct {
	log      *slog.Logger
	users    UserStore
	validate *validator.Validate
	hashCost int
}

type SignupInput struct {
	Username        string `validate:"required,max=50,username"`
	Password        string `validate:"required"`
	ConfirmPassword string
	Email           string `validate:"omitempty,email,max=254"`
	FirstName       string `validate:"max=50"`
	LastName        string `validate:"max=50"`
}

func NewAuthService(log *slog.Logger, users UserStore) *AuthService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return validUsername(fl.Field().String())
	})
	return &AuthService{
		log:      log,
		users:    users,
		validate: validate,
		hashCost: bcrypt.DefaultCost,
	}
}

// validUsername reports whether name can be used in storage keys.
func validUsername(name string) bool {
	return usernamePattern.MatchString(name) && !strings.Contains(name, "..")
}

// Signup creates a non-premium account with the bundled default picture.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if in.Password != in.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &models.User{
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: string(hash),
		Picture:      defaultProfilePicture,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("%w: create user: %v", ErrPersistence, err)
	}
	s.log.Info("user signed up", "username", user.Username, "user_id", user.ID)
	return user, nil
}

// Signin answers the same error for an unknown user and a wrong password.
func (s *AuthService) Signin(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", ErrPersistence, err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.Signins.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: invalid username or password", ErrAuth)
	}
	metrics.Signins.WithLabelValues("success").Inc()
	return user, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "username":
			msgs = append(msgs, field+" may contain only letters, digits and @ . + - _")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}
