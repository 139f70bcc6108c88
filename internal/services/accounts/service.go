package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const DefaultTokenTTL = 24 * time.Hour

type Repository interface {
	CreateUser(ctx context.Context, in models.UserCreateInput) (*models.User, error)
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsersByRole(ctx context.Context, role string) ([]*models.User, error)
	UpdateUser(ctx context.Context, id uint64, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id uint64) error
	ListOnlineEmployees(ctx context.Context) ([]*models.OnlineEmployee, error)
	ListOfflineEmployees(ctx context.Context) ([]*models.User, error)
}

type Claims struct {
	UserID   uint64 `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	repo   Repository
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

func New(repo Repository, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{repo: repo, secret: []byte(secret), ttl: ttl, cost: bcrypt.DefaultCost, now: time.Now}
}

type LoginResult struct {
	Token string
	User  *models.User
}

// Login checks the password and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.Errorf(models.ErrInvalidInput, "Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, models.Errorf(models.ErrInvalidInput, "Invalid credentials")
	}

	token, err := s.signToken(u)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: u}, nil
}

// ParseToken validates a bearer token and returns the actor it was issued to.
func (s *Service) ParseToken(token string) (models.Actor, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return models.Actor{}, models.Errorf(models.ErrUnauthenticated, "Given token not valid for any token type")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == 0 {
		return models.Actor{}, models.Errorf(models.ErrUnauthenticated, "Given token not valid for any token type")
	}
	return models.Actor{ID: claims.UserID, Username: claims.Username, Role: claims.Role}, nil
}

func (s *Service) signToken(u *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(h), nil
}

// Me returns the profile of the caller.
func (s *Service) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	return s.repo.GetUserByID(ctx, actor.ID)
}

// EnsureAdmin creates the bootstrap administrator unless the username is taken.
// Safe to call on every start.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, models.Errorf(models.ErrInvalidInput, "admin username and password are required")
	}
	_, err := s.repo.GetUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return false, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return false, err
	}
	_, err = s.repo.CreateUser(ctx, models.UserCreateInput{
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		FullName:     "System Admin",
		Designation:  "Administrator",
	})
	if errors.Is(err, models.ErrConflict) {
		// another instance got there first
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
