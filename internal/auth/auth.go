// Package auth exchanges registered API credentials for the JWT bearer
// tokens every trading endpoint requires.
package auth

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Cardboom/cardboomtest-sub000/pkg/response"
)

var (
	ErrInvalidCredentials = errors.New("invalid API credentials")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// tokenTTL is how long an issued token stays valid.
const tokenTTL = 24 * time.Hour

// Test credentials, registered by the server at boot for local use.
var (
	TestAPIKey    = "test-api-key"
	TestAPISecret = "test-api-secret"
)

// Credentials is the key pair a client presents to obtain a token. API keys
// map one-to-one to user IDs: the key becomes the user_id claim, which the
// wallet and ownership layers treat as the account identity.
type Credentials struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

// TokenResponse carries an issued token and its expiry.
type TokenResponse struct {
	Token      string    `json:"jwt_token"`
	Expiration time.Time `json:"expiration"`
}

// Claims is the JWT payload. Permissions gate nothing yet; they are carried
// so tokens do not need reissuing when scopes arrive.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"user_id"`
	Permissions []string `json:"permissions"`
}

// Service issues and validates bearer tokens against an in-memory
// credential store. Credentials are registered at boot; the store has no
// persistence because keys are provisioned out of band.
type Service struct {
	jwtSecret []byte
	store     map[string]string // api key -> api secret
}

// NewService creates an auth service signing with the given secret.
func NewService(jwtSecret string) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		store:     make(map[string]string),
	}
}

// RegisterAPICredentials adds a key pair to the credential store.
func (s *Service) RegisterAPICredentials(apiKey, apiSecret string) {
	s.store[apiKey] = apiSecret
}

// GenerateToken verifies the credentials and issues a signed token whose
// user_id claim is the API key.
func (s *Service) GenerateToken(creds Credentials) (*TokenResponse, error) {
	secret, ok := s.store[creds.APIKey]
	if !ok || secret != creds.APISecret {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	expiration := now.Add(tokenTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		UserID:      creds.APIKey,
		Permissions: []string{"wallet", "trade"},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, ErrTokenGeneration
	}

	return &TokenResponse{
		Token:      signed,
		Expiration: expiration,
	}, nil
}

// ValidateToken parses and verifies a token, returning its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// UserIDFromContext extracts the authenticated user ID set by the JWT
// middleware. Returns empty string when the request is unauthenticated.
func UserIDFromContext(c *gin.Context) string {
	return c.GetString("userID")
}

// GinHandlers contains HTTP handlers for authentication endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for authentication endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GenerateTokenHandler handles POST requests to exchange API credentials
// for a bearer token
func (h *GinHandlers) GenerateTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds Credentials
		if err := c.ShouldBindJSON(&creds); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		token, err := h.service.GenerateToken(creds)
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.Handle(c, token, err)
	}
}
