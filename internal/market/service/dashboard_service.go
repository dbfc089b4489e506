package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bitfantasy/autotrade/internal/market/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	dashboardCacheKey = "autotrade:dashboard:stats"
	dashboardCacheTTL = 30 * time.Second
)

// DashboardStats 仪表盘统计
type DashboardStats struct {
	RequestsByStatus map[string]int64 `json:"requestsByStatus"`
	QuoteCount       int64            `json:"quoteCount"`
	OrderCount       int64            `json:"orderCount"`
	OrderTotalValue  float64          `json:"orderTotalValue"`
	VendorCount      int64            `json:"vendorCount"`
	BuyerCount       int64            `json:"buyerCount"`
	GeneratedAt      time.Time        `json:"generatedAt"`
}

// DashboardService 仪表盘统计服务，结果30秒redis缓存
// redis为nil时退化为直查数据库
type DashboardService struct {
	requestRepo *repository.RequestRepository
	orderRepo   *repository.OrderRepository
	db          *gorm.DB
	rdb         *redis.Client
	logger      *zap.Logger
}

func NewDashboardService(
	requestRepo *repository.RequestRepository,
	orderRepo *repository.OrderRepository,
	db *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		requestRepo: requestRepo,
		orderRepo:   orderRepo,
		db:          db,
		rdb:         rdb,
		logger:      logger,
	}
}

// Stats 汇总统计；缓存命中直接返回，未命中查库并写回
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, dashboardCacheKey).Bytes(); err == nil {
			var stats DashboardStats
			if err := json.Unmarshal(cached, &stats); err == nil {
				return &stats, nil
			}
		}
	}

	stats, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := s.rdb.Set(ctx, dashboardCacheKey, data, dashboardCacheTTL).Err(); err != nil {
				s.logger.Warn("cache dashboard stats failed", zap.Error(err))
			}
		}
	}
	return stats, nil
}

func (s *DashboardService) collect(ctx context.Context) (*DashboardStats, error) {
	requestsByStatus, err := s.requestRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	orderCount, orderTotal, err := s.orderRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		RequestsByStatus: requestsByStatus,
		OrderCount:       orderCount,
		OrderTotalValue:  orderTotal,
		GeneratedAt:      time.Now(),
	}

	db := s.db.WithContext(ctx)
	if err := db.Table("mkt_quotes").Count(&stats.QuoteCount).Error; err != nil {
		return nil, err
	}
	if err := db.Table("mkt_vendors").Count(&stats.VendorCount).Error; err != nil {
		return nil, err
	}
	if err := db.Table("mkt_buyers").Count(&stats.BuyerCount).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
