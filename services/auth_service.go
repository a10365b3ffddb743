package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"agriaid/errorz"
	"agriaid/models"
)

const revokedChannel = "sessions.revoked"

// AuthService implements SessionGate on JWT bearer tokens. Sessions are
// recorded in Redis with the token TTL so sign-out can revoke a token before
// it expires; revocations are fanned out on a Redis pub/sub channel. With no
// Redis configured tokens are stateless and only expire.
type AuthService struct {
	db     *gorm.DB
	rdb    *redis.Client
	secret []byte
	ttl    time.Duration
}

func NewAuthService(db *gorm.DB, rdb *redis.Client, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{db: db, rdb: rdb, secret: []byte(secret), ttl: ttl}
}

// Register creates a user and signs them in.
func (a *AuthService) Register(username, password, displayName string) (string, models.Identity, error) {
	if username == "" || password == "" {
		return "", models.Identity{}, fmt.Errorf("%w: username and password are required", errorz.ErrValidation)
	}
	if a.db == nil {
		return "", models.Identity{}, fmt.Errorf("%w: user store is not configured", errorz.ErrTransport)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", models.Identity{}, fmt.Errorf("%w: %v", errorz.ErrUnknown, err)
	}
	user := models.User{Username: username, Password: string(hashed), DisplayName: displayName}
	if err := a.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", models.Identity{}, fmt.Errorf("%w: username taken", errorz.ErrValidation)
		}
		return "", models.Identity{}, fmt.Errorf("%w: %v", errorz.ErrUnknown, err)
	}
	return a.signIn(user.Identity())
}

// Login checks credentials and issues a token.
func (a *AuthService) Login(username, password string) (string, models.Identity, error) {
	if a.db == nil {
		return "", models.Identity{}, fmt.Errorf("%w: user store is not configured", errorz.ErrTransport)
	}
	var user models.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", models.Identity{}, errorz.ErrUnauthenticated
		}
		return "", models.Identity{}, fmt.Errorf("%w: %v", errorz.ErrUnknown, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", models.Identity{}, errorz.ErrUnauthenticated
	}
	return a.signIn(user.Identity())
}

func (a *AuthService) signIn(ident models.Identity) (string, models.Identity, error) {
	token, jti, err := a.issueToken(ident)
	if err != nil {
		return "", models.Identity{}, err
	}
	if a.rdb != nil {
		if err := a.rdb.Set("session:"+jti, ident.ID, a.ttl).Err(); err != nil {
			return "", models.Identity{}, fmt.Errorf("%w: record session: %v", errorz.ErrTransport, err)
		}
	}
	return token, ident, nil
}

func (a *AuthService) issueToken(ident models.Identity) (string, string, error) {
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"sub":  ident.ID,
		"name": ident.DisplayName,
		"jti":  jti,
		"exp":  time.Now().Add(a.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", "", fmt.Errorf("%w: sign token: %v", errorz.ErrUnknown, err)
	}
	return token, jti, nil
}

// Identify resolves a bearer token to the identity it was issued for.
func (a *AuthService) Identify(token string) (models.Identity, error) {
	ident, jti, err := a.parseToken(token)
	if err != nil {
		return models.Identity{}, err
	}
	if a.rdb != nil {
		if _, err := a.rdb.Get("session:" + jti).Result(); err == redis.Nil {
			return models.Identity{}, fmt.Errorf("%w: session revoked or expired", errorz.ErrUnauthenticated)
		} else if err != nil {
			return models.Identity{}, fmt.Errorf("%w: check session: %v", errorz.ErrTransport, err)
		}
	}
	return ident, nil
}

// Logout revokes the token's session and broadcasts the revocation.
func (a *AuthService) Logout(token string) error {
	_, jti, err := a.parseToken(token)
	if err != nil {
		return err
	}
	if a.rdb == nil {
		return nil
	}
	if err := a.rdb.Del("session:" + jti).Err(); err != nil {
		return fmt.Errorf("%w: revoke session: %v", errorz.ErrTransport, err)
	}
	if err := a.rdb.Publish(revokedChannel, jti).Err(); err != nil {
		return fmt.Errorf("%w: broadcast revocation: %v", errorz.ErrTransport, err)
	}
	return nil
}

// WatchRevoked closes the returned channel when this token's session is
// revoked. Without Redis there is no revocation path and the channel only
// closes with ctx.
func (a *AuthService) WatchRevoked(ctx context.Context, token string) (<-chan struct{}, error) {
	_, jti, err := a.parseToken(token)
	if err != nil {
		return nil, err
	}
	out := make(chan struct{})
	if a.rdb == nil {
		go func() {
			<-ctx.Done()
			close(out)
		}()
		return out, nil
	}

	pubsub := a.rdb.Subscribe(revokedChannel)
	go func() {
		defer close(out)
		defer func() {
			if err := pubsub.Close(); err != nil {
				log.Printf("close revocation subscription: %v", err)
			}
		}()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if msg.Payload == jti {
					return
				}
			}
		}
	}()
	return out, nil
}

func (a *AuthService) parseToken(token string) (models.Identity, string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return models.Identity{}, "", fmt.Errorf("%w: invalid token", errorz.ErrUnauthenticated)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, "", fmt.Errorf("%w: invalid claims", errorz.ErrUnauthenticated)
	}
	sub, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	jti, _ := claims["jti"].(string)
	if sub == "" {
		return models.Identity{}, "", fmt.Errorf("%w: token has no subject", errorz.ErrUnauthenticated)
	}
	return models.Identity{ID: sub, DisplayName: name}, jti, nil
}
