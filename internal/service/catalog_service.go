package service

import (
	"context"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/repository/repoargs"
	"github.com/fsdevblog/groph-credits/pkg/uow"
)

// CatalogService только читает справочники, поэтому работает через пул вне транзакций.
type CatalogService struct {
	catalogRepo CatalogRepository
}

func NewCatalogService(u uow.UOW) (*CatalogService, error) {
	catalogRepo, err := uow.GetRepositoryAs[CatalogRepository](u, uow.RepositoryName(repoargs.CatalogRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &CatalogService{catalogRepo: catalogRepo}, nil
}

// ActivePackages возвращает пакеты, доступные для покупки, в порядке отображения.
func (c *CatalogService) ActivePackages(ctx context.Context) ([]domain.CreditPackage, error) {
	packages, err := c.catalogRepo.GetActivePackages(ctx)
	if err != nil {
		return nil, translateStoreErr(err, nil)
	}
	return packages, nil
}

// ActivePackage возвращает активный пакет или domain.ErrPackageNotFound.
func (c *CatalogService) ActivePackage(ctx context.Context, packageID string) (*domain.CreditPackage, error) {
	return activePackage(ctx, c.catalogRepo, packageID)
}

// GameCost возвращает активную стоимость игры или domain.ErrGameCostNotFound.
func (c *CatalogService) GameCost(ctx context.Context, gameID, gameMode string) (*domain.GameCost, error) {
	return activeGameCost(ctx, c.catalogRepo, gameID, gameMode)
}

func activePackage(ctx context.Context, repo CatalogRepository, packageID string) (*domain.CreditPackage, error) {
	pkg, err := repo.GetPackage(ctx, packageID)
	if err != nil {
		return nil, translateStoreErr(err, domain.ErrPackageNotFound)
	}
	if !pkg.IsActive {
		return nil, domain.ErrPackageNotFound
	}
	return pkg, nil
}

func activeGameCost(ctx context.Context, repo CatalogRepository, gameID, gameMode string) (*domain.GameCost, error) {
	if gameMode == "" {
		gameMode = domain.DefaultGameMode
	}
	cost, err := repo.GetGameCost(ctx, gameID, gameMode)
	if err != nil {
		return nil, translateStoreErr(err, domain.ErrGameCostNotFound)
	}
	if !cost.IsActive {
		return nil, domain.ErrGameCostNotFound
	}
	return cost, nil
}
