// Package auth проверяет bearer-токены операторов календаря. Токены выпускает
// внешний сервис, здесь только подпись, срок и активность сотрудника.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
)

// Ошибки валидации оператора.
var (
	ErrInvalidOperatorID = errors.New("invalid operator id")
	ErrOperatorNotFound  = errors.New("operator not found")
	ErrOperatorInactive  = errors.New("operator is inactive")
)

type operatorKey struct{}

// Operator — сотрудник, от имени которого пришёл запрос.
type Operator struct {
	StaffID uuid.UUID
	Name    string
	Role    string
}

// StaffStore — откуда берём сотрудника. repository.StaffRepository подходит как есть.
type StaffStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Staff, error)
}

// ValidateOperator:
//   - проверяет идентификатор;
//   - достаёт сотрудника из хранилища;
//   - отклоняет неактивных.
func ValidateOperator(ctx context.Context, store StaffStore, staffID uuid.UUID) (*Operator, error) {
	if staffID == uuid.Nil {
		return nil, ErrInvalidOperatorID
	}

	s, err := store.GetByID(ctx, staffID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOperatorNotFound
	}
	if err != nil {
		return nil, err
	}
	if !s.Active {
		return nil, ErrOperatorInactive
	}

	return &Operator{StaffID: s.ID, Name: s.DisplayName(), Role: s.Role}, nil
}

// Middleware пропускает запрос, если подпись верна и sub указывает на
// активного сотрудника. Пустой secret выключает проверку.
func Middleware(secret string, store StaffStore, logger *zap.Logger) fiber.Handler {
	if secret == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c, "Invalid or expired token")
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return unauthorized(c, "Invalid token")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c, "Invalid token claims")
			}

			op, reject := operatorFromClaims(c.UserContext(), store, claims, logger)
			if reject != "" {
				return unauthorized(c, reject)
			}

			c.SetUserContext(WithOperator(c.UserContext(), op))
			return c.Next()
		},
	})
}

// UnaryInterceptor — то же для gRPC: bearer-токен из метаданных authorization.
// Health-проверки проходят без токена. Пустой secret выключает проверку.
func UnaryInterceptor(secret string, store StaffStore, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if secret == "" || strings.HasPrefix(info.FullMethod, "/grpc.health.v1.Health/") {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		raw := bearer(md.Get("authorization"))
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return nil, status.Error(codes.Unauthenticated, "Invalid or expired token")
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "Invalid token claims")
		}

		op, reject := operatorFromClaims(ctx, store, claims, logger)
		if reject != "" {
			return nil, status.Error(codes.Unauthenticated, reject)
		}
		return handler(WithOperator(ctx, op), req)
	}
}

// operatorFromClaims — sub → активный сотрудник, role из токена перекрывает роль в карточке.
// Непустой reject — текст отказа для ответа 401.
func operatorFromClaims(ctx context.Context, store StaffStore, claims jwt.MapClaims, logger *zap.Logger) (op *Operator, reject string) {
	staffID, err := subject(claims)
	if err != nil {
		return nil, "Invalid operator in token"
	}

	op, err = ValidateOperator(ctx, store, staffID)
	if err != nil {
		if !errors.Is(err, ErrOperatorNotFound) && !errors.Is(err, ErrOperatorInactive) {
			logger.Error("validate operator failed", zap.String("staff_id", staffID.String()), zap.Error(err))
		}
		return nil, "Operator is not allowed"
	}
	if role, ok := claims["role"].(string); ok && role != "" {
		op.Role = role
	}
	return op, ""
}

func WithOperator(ctx context.Context, op *Operator) context.Context {
	return context.WithValue(ctx, operatorKey{}, op)
}

// FromContext достаёт оператора, которого положили Middleware или UnaryInterceptor.
func FromContext(ctx context.Context) (*Operator, bool) {
	op, ok := ctx.Value(operatorKey{}).(*Operator)
	return op, ok && op != nil
}

func bearer(values []string) string {
	for _, v := range values {
		if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
			return strings.TrimSpace(v[7:])
		}
	}
	return ""
}

func subject(claims jwt.MapClaims) (uuid.UUID, error) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return uuid.Nil, fmt.Errorf("%w: sub claim is missing", ErrInvalidOperatorID)
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidOperatorID, err)
	}
	return id, nil
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   "Unauthorized",
		"message": message,
	})
}
