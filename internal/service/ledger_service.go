package service

import (
	"context"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/repository/repoargs"
	"github.com/aldenshop/alden/pkg/uow"
)

type LedgerService struct {
	uow        uow.UOW
	ledgerRepo LedgerRepository
}

func NewLedgerService(u uow.UOW) (*LedgerService, error) {
	ledgerRepo, err := uow.GetRepositoryAs[LedgerRepository](u, uow.RepositoryName(repoargs.LedgerRepoName))
	if err != nil {
		return nil, err
	}
	return &LedgerService{
		uow:        u,
		ledgerRepo: ledgerRepo,
	}, nil
}

// GetByUserID возвращает записи аудита юзера, новые первыми.
func (s *LedgerService) GetByUserID(ctx context.Context, userID int64) ([]domain.LedgerEntry, error) {
	entries, err := s.ledgerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return entries, nil
}
