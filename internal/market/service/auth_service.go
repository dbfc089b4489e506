package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/autotrade/internal/market/repository"
	"github.com/bitfantasy/autotrade/internal/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// AuthService 演示环境令牌签发服务
// 按买方邮箱签发HS256令牌，供前端与SSE订阅使用
type AuthService struct {
	buyerRepo *repository.BuyerRepository
	secret    string
	expiresIn time.Duration
}

func NewAuthService(buyerRepo *repository.BuyerRepository, secret string, expiresIn time.Duration) *AuthService {
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}
	return &AuthService{buyerRepo: buyerRepo, secret: secret, expiresIn: expiresIn}
}

// TokenRequest 签发令牌请求
type TokenRequest struct {
	Email string `json:"email" binding:"required"`
}

// TokenResult 签发结果
type TokenResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	BuyerID   string    `json:"buyerId"`
}

// IssueToken 为已注册买方签发令牌
func (s *AuthService) IssueToken(ctx context.Context, req *TokenRequest) (*TokenResult, error) {
	if req.Email == "" {
		return nil, fmt.Errorf("%w: email不能为空", ErrValidation)
	}

	buyer, err := s.buyerRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(s.expiresIn)
	claims := &middleware.MarketClaims{
		UserID: buyer.ID,
		Name:   buyer.CompanyName,
		Email:  buyer.Email,
		Party:  "buyer",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "autotrade",
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return nil, fmt.Errorf("签发令牌失败: %w", err)
	}

	return &TokenResult{Token: token, ExpiresAt: expiresAt, BuyerID: buyer.ID}, nil
}
