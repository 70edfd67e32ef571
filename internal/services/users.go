package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/models"
)

// ErrBadCredentials is returned by Authenticate for an unknown email or a
// wrong password.
var ErrBadCredentials = errors.New("invalid email or password")

// UserService owns customer and admin accounts.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// SignupInput registers a customer.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

const minPasswordLength = 8

// Signup creates a customer account.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	return s.create(ctx, in, models.RoleCustomer)
}

func (s *UserService) create(ctx context.Context, in SignupInput, role string) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "hash password")
	}
	user := models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: hash,
		Phone:    in.Phone,
		Role:     role,
	}
	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		taken, err := exists(tx, &models.User{}, "email = ?", email)
		if err != nil {
			return apperr.Internal(err, "check email")
		}
		if taken {
			return apperr.Conflict("email already in use")
		}
		return apperr.FromDB(tx.Create(&user).Error, "user")
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate checks an email/password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, apperr.Internal(err, "load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	return &user, nil
}

// EnsureAdmin creates the admin account if no user with email exists. An
// existing account is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	taken, err := exists(s.db.WithContext(ctx), &models.User{}, "email = ?", normalizeEmail(email))
	if err != nil {
		return apperr.Internal(err, "check admin")
	}
	if taken {
		return nil
	}
	user, err := s.create(ctx, SignupInput{Name: "Administrator", Email: email, Password: password}, models.RoleAdmin)
	if err != nil {
		return err
	}
	logrus.WithField("user_id", user.ID).Info("admin account seeded")
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
