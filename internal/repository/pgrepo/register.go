package pgrepo

import (
	"fmt"

	"github.com/fsdevblog/groph-credits/internal/repository/repoargs"
	"github.com/fsdevblog/groph-credits/pkg/uow"
)

// RegisterRepositories регистрирует все репозитории пакета в unit of work.
func RegisterRepositories(u uow.UOW) error {
	factories := map[repoargs.RepositoryName]uow.RepositoryFactory{
		repoargs.UserRepoName: func(dbtx uow.DBTX) uow.Repository {
			return NewUserRepository(dbtx)
		},
		repoargs.TransactionRepoName: func(dbtx uow.DBTX) uow.Repository {
			return NewTransactionRepository(dbtx)
		},
		repoargs.CatalogRepoName: func(dbtx uow.DBTX) uow.Repository {
			return NewCatalogRepository(dbtx)
		},
	}
	for name, factory := range factories {
		if regErr := u.Register(uow.RepositoryName(name), factory); regErr != nil {
			return fmt.Errorf("register %s repository: %w", name, regErr)
		}
	}
	return nil
}
