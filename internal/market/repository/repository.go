package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 市场仓库集合
type Repositories struct {
	Buyer       *BuyerRepository
	Vendor      *VendorRepository
	Request     *RequestRepository
	Quote       *QuoteRepository
	Negotiation *NegotiationRepository
	Order       *OrderRepository
	ActivityLog *ActivityLogRepository
}

// NewRepositories 创建市场仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Buyer:       NewBuyerRepository(db),
		Vendor:      NewVendorRepository(db),
		Request:     NewRequestRepository(db),
		Quote:       NewQuoteRepository(db),
		Negotiation: NewNegotiationRepository(db),
		Order:       NewOrderRepository(db),
		ActivityLog: NewActivityLogRepository(db),
	}
}
