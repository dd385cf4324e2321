package transactions

import (
	"context"

	"deedbook-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// FormattedTx is a sale-history row enriched with the property's address for
// display, and the caller's side of the trade.
type FormattedTx struct {
	TxID      uuid.UUID   `json:"tx_id"`
	RecordID  uuid.UUID   `json:"record_id"`
	SellerID  uuid.UUID   `json:"seller_id"`
	BuyerID   uuid.UUID   `json:"buyer_id"`
	Price     uint64      `json:"price"`
	Side      string      `json:"side"` // "bought" | "sold"
	Address   string      `json:"address"`
	City      string      `json:"city"`
	CreatedAt interface{} `json:"created_at"`
}

// ViewTransactions returns the caller's completed sales, newest first.
func (s *Service) ViewTransactions(ctx context.Context, userID uuid.UUID) ([]FormattedTx, error) {
	var txs []domain.SaleTransaction
	if err := s.DB.WithContext(ctx).
		Where("seller_id = ? OR buyer_id = ?", userID, userID).
		Order(`"createdAt" DESC`).
		Find(&txs).Error; err != nil {
		return nil, err
	}

	if len(txs) == 0 {
		return []FormattedTx{}, nil
	}

	recordIDs := map[uuid.UUID]bool{}
	for _, tx := range txs {
		recordIDs[tx.RecordID] = true
	}
	ids := make([]uuid.UUID, 0, len(recordIDs))
	for id := range recordIDs {
		ids = append(ids, id)
	}

	recordMap := map[uuid.UUID]domain.PropertyRecord{}
	var records []domain.PropertyRecord
	s.DB.WithContext(ctx).Where("record_id IN ?", ids).Find(&records)
	for _, r := range records {
		recordMap[r.RecordID] = r
	}

	out := make([]FormattedTx, len(txs))
	for i, tx := range txs {
		ft := FormattedTx{
			TxID:      tx.TxID,
			RecordID:  tx.RecordID,
			SellerID:  tx.SellerID,
			BuyerID:   tx.BuyerID,
			Price:     tx.Price,
			Side:      "sold",
			CreatedAt: tx.CreatedAt,
		}
		if tx.BuyerID == userID {
			ft.Side = "bought"
		}
		if r, ok := recordMap[tx.RecordID]; ok {
			ft.Address = r.Details.Address
			ft.City = r.Details.City
		}
		out[i] = ft
	}

	return out, nil
}
