package repoargs

type RepositoryName string

const (
	UserRepoName    RepositoryName = "user"
	OrderRepoName   RepositoryName = "order"
	WalletRepoName  RepositoryName = "wallet"
	LedgerRepoName  RepositoryName = "ledger"
	PromoRepoName   RepositoryName = "promo"
	ProductRepoName RepositoryName = "product"
)
