package service

import (
	"context"
	"errors"

	"paybridge/internal/models"
	"paybridge/internal/repository"
)

type RewardStore interface {
	AccrueOnce(ctx context.Context, entry *models.RewardEntry) error
}

// RewardService converts paid amounts into loyalty points, at most once per order.
type RewardService struct {
	store              RewardStore
	minorUnitsPerPoint int64
}

func NewRewardService(store RewardStore, minorUnitsPerPoint int64) *RewardService {
	if minorUnitsPerPoint <= 0 {
		minorUnitsPerPoint = 1000
	}
	return &RewardService{store: store, minorUnitsPerPoint: minorUnitsPerPoint}
}

// Points returns the points earned for amountMinor.
func (s *RewardService) Points(amountMinor int64) int64 {
	if amountMinor <= 0 {
		return 0
	}
	return amountMinor / s.minorUnitsPerPoint
}

// Accrue credits the customer for the order and returns the points added.
// A repeated call for the same order adds nothing and is not an error.
func (s *RewardService) Accrue(ctx context.Context, orderID, customerID string, amountMinor int64) (int64, error) {
	if customerID == "" || orderID == "" {
		return 0, nil
	}
	points := s.Points(amountMinor)
	if points == 0 {
		return 0, nil
	}
	err := s.store.AccrueOnce(ctx, &models.RewardEntry{
		CustomerID:  customerID,
		OrderID:     orderID,
		Points:      points,
		AmountMinor: amountMinor,
	})
	if errors.Is(err, repository.ErrAlreadyAccrued) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return points, nil
}
