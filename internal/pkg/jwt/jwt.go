package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Identity is the caller extracted from a verified access token.
type Identity struct {
	UserID   string
	Username string
	Role     user.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == user.RoleAdmin
}

type Service interface {
	GenerateAccessToken(userID string, username string, role user.Role) (token string, expiresAt int64, err error)
	ParseAccessToken(tokenString string) (Identity, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
	now                       func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                       time.Now,
	}
}

func (j *JWTService) GenerateAccessToken(userID string, username string, role user.Role) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = j.now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		"user_id":  userID,
		"username": username,
		"role":     string(role),
		"type":     "access",
		"exp":      expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// ParseAccessToken verifies tokenString and returns its identity
func (j *JWTService) ParseAccessToken(tokenString string) (Identity, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return Identity{}, err
	}

	claims, err := token.AsMap(context.Background())
	if err != nil {
		return Identity{}, err
	}
	return identityFromClaims(claims)
}

// IdentityFromContext reads the identity placed by jwtauth.Verifier.
func IdentityFromContext(ctx context.Context) (Identity, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}
	return identityFromClaims(claims)
}

func identityFromClaims(claims map[string]interface{}) (Identity, error) {
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return Identity{}, jwt.ErrInvalidJWT()
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return Identity{}, fmt.Errorf("user_id claim is missing or invalid")
	}

	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return Identity{}, fmt.Errorf("role claim is missing or invalid")
	}

	username, _ := claims["username"].(string)

	return Identity{UserID: userID, Username: username, Role: user.Role(role)}, nil
}
