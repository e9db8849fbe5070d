package services

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"petadopt/internal/apperr"
	"petadopt/internal/models"
	"petadopt/internal/repositories"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s_-]{3,30}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern    = regexp.MustCompile(`^(\+?[0-9]{10,15}|[0-9]{10})$`)
	hasLetter       = regexp.MustCompile(`[A-Za-z]`)
	hasDigit        = regexp.MustCompile(`[0-9]`)
)

// RegisterRequest carries everything a new account needs. ShelterName and
// ShelterAddress are required when Role is "shelter".
type RegisterRequest struct {
	Username       string      `json:"username"`
	Email          string      `json:"email"`
	Password       string      `json:"password"`
	Role           models.Role `json:"role"`
	Phone          string      `json:"phone"`
	ShelterName    string      `json:"shelter_name"`
	ShelterAddress string      `json:"shelter_address"`
}

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService handles registration, login and JWT issuing/validation.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register creates a new user account. Registration is open to anonymous
// callers; only the client and shelter roles can be self-assigned. A shelter
// registration creates the user and its shelter record in one transaction.
func (s *AuthService) Register(req *RegisterRequest) (*models.User, error) {
	if req.Role == "" {
		req.Role = models.RoleClient
	}
	if req.Role != models.RoleClient && req.Role != models.RoleShelter {
		return nil, apperr.Validation("role must be 'client' or 'shelter'")
	}

	req.Username = strings.TrimSpace(req.Username)
	if !usernamePattern.MatchString(req.Username) {
		return nil, apperr.Validation("username must be 3-30 characters of letters, digits, spaces, '-' or '_'")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(req.Email) {
		return nil, apperr.Validation("enter a valid email address")
	}
	if req.Phone != "" && !phonePattern.MatchString(req.Phone) {
		return nil, apperr.Validation("phone must be 10 digits or international format (+ followed by 10-15 digits)")
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	if existing, err := s.userRepo.GetByUsername(req.Username); err == nil && existing != nil {
		return nil, apperr.Conflict("username '%s' already taken", req.Username)
	}
	if existing, err := s.userRepo.GetByEmail(req.Email); err == nil && existing != nil {
		return nil, apperr.Conflict("email '%s' already registered", req.Email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		Role:     req.Role,
		Phone:    req.Phone,
	}

	if req.Role == models.RoleShelter {
		name := strings.TrimSpace(req.ShelterName)
		address := strings.TrimSpace(req.ShelterAddress)
		if name == "" {
			return nil, apperr.Validation("shelter_name is required when registering as a shelter")
		}
		if address == "" {
			return nil, apperr.Validation("shelter_address is required when registering as a shelter")
		}
		shelter := &models.Shelter{Name: name, Address: address, Verified: false}
		if err := s.userRepo.CreateWithShelter(user, shelter); err != nil {
			return nil, err
		}
		user.Shelter = shelter
		return user, nil
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates a user and returns an access/refresh token pair.
func (s *AuthService) Login(username, password string) (*TokenPair, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		// Do not reveal whether the username exists.
		return nil, apperr.Authentication("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.Authentication("invalid credentials")
	}

	return s.issueTokens(user)
}

// Refresh validates a refresh token and issues a fresh pair.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if tokenType, _ := claims["token_type"].(string); tokenType != "refresh" {
		return nil, apperr.Authentication("not a refresh token")
	}
	userID, _ := claims["user_id"].(string)
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, apperr.Authentication("invalid token").Wrap(err)
	}
	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *models.User) (*TokenPair, error) {
	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"exp":      now.Add(s.accessTTL).Unix(),
		"iat":      now.Unix(),
	})
	accessString, err := access.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    user.ID,
		"token_type": "refresh",
		"exp":        now.Add(s.refreshTTL).Unix(),
		"iat":        now.Unix(),
	})
	refreshString, err := refresh.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessString, RefreshToken: refreshString}, nil
}

// ValidateToken parses and validates a JWT, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, apperr.Authentication("invalid token").Wrap(err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, apperr.Authentication("invalid token")
}

// UserFromClaims reconstructs the acting user from access token claims.
func UserFromClaims(claims jwt.MapClaims) *models.User {
	id, _ := claims["user_id"].(string)
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if id == "" {
		return nil
	}
	return &models.User{ID: id, Username: username, Role: models.Role(role)}
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return apperr.Validation("password must be at least 8 characters")
	}
	if !hasLetter.MatchString(password) {
		return apperr.Validation("password must contain at least one letter")
	}
	if !hasDigit.MatchString(password) {
		return apperr.Validation("password must contain at least one digit")
	}
	return nil
}
