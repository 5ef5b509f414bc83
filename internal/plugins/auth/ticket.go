package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Reset tickets are HS256 JWTs bound to one account and usable once.
const (
	ticketAudience = "password-reset"
	ticketIssuer   = "inkwell"
	resetKeyPrefix = "auth:reset:"
)

// errInvalidTicket covers every way a ticket can fail to redeem.
var errInvalidTicket = errors.New("reset ticket is invalid or expired")

// resetClaims is the ticket payload.
type resetClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TicketStore records issued ticket IDs so each can be redeemed once.
type TicketStore interface {
	Remember(ctx context.Context, jti string, ttl time.Duration) error

	// Consume atomically removes jti, reporting whether it was present.
	Consume(ctx context.Context, jti string) (bool, error)
}

// redisTicketStore implements TicketStore with SET and GETDEL.
type redisTicketStore struct {
	rdb redis.UniversalClient
}

// NewRedisTicketStore creates a ticket store backed by Redis.
func NewRedisTicketStore(rdb redis.UniversalClient) TicketStore {
	return &redisTicketStore{rdb: rdb}
}

func (s *redisTicketStore) Remember(ctx context.Context, jti string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, resetKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("storing reset ticket: %w", err)
	}
	return nil
}

func (s *redisTicketStore) Consume(ctx context.Context, jti string) (bool, error) {
	err := s.rdb.GetDel(ctx, resetKeyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consuming reset ticket: %w", err)
	}
	return true, nil
}

// ticketSigner signs and redeems reset tickets.
type ticketSigner struct {
	secret []byte
	ttl    time.Duration
	store  TicketStore
	now    func() time.Time
}

// issue signs a ticket for the user and records its ID.
func (t *ticketSigner) issue(ctx context.Context, userID, email string) (string, error) {
	now := t.now()
	jti := uuid.NewString()
	claims := resetClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    ticketIssuer,
			Audience:  jwt.ClaimStrings{ticketAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing reset ticket: %w", err)
	}
	if err := t.store.Remember(ctx, jti, t.ttl); err != nil {
		return "", err
	}
	return signed, nil
}

// redeem validates the ticket for the given account and consumes it.
// Returns errInvalidTicket for any validation failure; other errors come
// from the store.
func (t *ticketSigner) redeem(ctx context.Context, token, userID, email string) error {
	if token == "" {
		return errInvalidTicket
	}

	claims := &resetClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(ticketAudience),
		jwt.WithIssuer(ticketIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return errInvalidTicket
	}
	if claims.Subject != userID || claims.Email != email || claims.ID == "" {
		return errInvalidTicket
	}

	ok, err := t.store.Consume(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !ok {
		return errInvalidTicket
	}
	return nil
}
