package repoargs

type RepositoryName string

const (
	UserRepoName        RepositoryName = "user"
	TransactionRepoName RepositoryName = "transaction"
	CatalogRepoName     RepositoryName = "catalog"
)
