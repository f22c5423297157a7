package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/pkg/uow"
	"github.com/jackc/pgx/v5"
)

const (
	packageColumns  = "id, name, price, credits, bonus_credits, is_active, sort_order"
	gameCostColumns = "game_id, game_mode, game_name, credits, is_active"
)

// CatalogRepository читает справочники пакетов кредитов и стоимости игр.
type CatalogRepository struct {
	conn uow.DBTX
}

func NewCatalogRepository(conn uow.DBTX) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

// GetActivePackages возвращает активные пакеты в порядке sort_order.
func (c *CatalogRepository) GetActivePackages(ctx context.Context) ([]domain.CreditPackage, error) {
	rows, err := c.conn.Query(ctx,
		`SELECT `+packageColumns+` FROM credit_packages WHERE is_active ORDER BY sort_order, id`)
	if err != nil {
		return nil, convertErr(err, "listing active packages")
	}
	packages, collectErr := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CreditPackage, error) {
		var p domain.CreditPackage
		scanErr := row.Scan(&p.ID, &p.Name, &p.Price, &p.Credits, &p.BonusCredits, &p.IsActive, &p.Order)
		return p, scanErr //nolint:wrapcheck
	})
	if collectErr != nil {
		return nil, convertErr(collectErr, "listing active packages")
	}
	return packages, nil
}

// GetPackage возвращает пакет по id независимо от активности, или domain.ErrRecordNotFound.
func (c *CatalogRepository) GetPackage(ctx context.Context, packageID string) (*domain.CreditPackage, error) {
	var p domain.CreditPackage
	err := c.conn.QueryRow(ctx, `SELECT `+packageColumns+` FROM credit_packages WHERE id = $1`, packageID).
		Scan(&p.ID, &p.Name, &p.Price, &p.Credits, &p.BonusCredits, &p.IsActive, &p.Order)
	if err != nil {
		return nil, convertErr(err, "getting package %s", packageID)
	}
	return &p, nil
}

// GetGameCost возвращает стоимость игры в режиме gameMode, или domain.ErrRecordNotFound.
func (c *CatalogRepository) GetGameCost(ctx context.Context, gameID, gameMode string) (*domain.GameCost, error) {
	var g domain.GameCost
	err := c.conn.QueryRow(ctx,
		`SELECT `+gameCostColumns+` FROM game_costs WHERE game_id = $1 AND game_mode = $2`,
		gameID, gameMode,
	).Scan(&g.GameID, &g.GameMode, &g.GameName, &g.Credits, &g.IsActive)
	if err != nil {
		return nil, convertErr(err, "getting cost of game %s/%s", gameID, gameMode)
	}
	return &g, nil
}
