package services

import (
	portsrepo "github.com/nvcfund/exchange-platform/internal/core/ports/repositories"
	portssvc "github.com/nvcfund/exchange-platform/internal/core/ports/services"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

// ContainerDeps carries the non-repository collaborators of the service layer.
type ContainerDeps struct {
	Feed          portssvc.RateFeed // nil disables the external feed step
	Fallback      FallbackRateStore // nil disables file-backed routing
	Gateway       portssvc.SettlementGateway
	Reserve       domain.Currency
	FallbackOnly  map[domain.Currency]bool
	UnityFallback bool
	RateStoreOpts []RateStoreOption
	LiquidityOpts []LiquidityOption
}

// NewServiceContainer creates a new service container with properly
// initialized dependencies.
func NewServiceContainer(repos portsrepo.RepositoryProvider, txnRepo portsrepo.TransactionRepositoryWithTx, deps ContainerDeps) *portssvc.ServiceContainer {
	if deps.Reserve == "" {
		deps.Reserve = domain.NVCT
	}
	if deps.FallbackOnly == nil {
		deps.FallbackOnly = domain.FallbackOnlyCurrencies
	}

	store := NewRateStoreService(repos.RateRepo, deps.Fallback, deps.FallbackOnly, deps.RateStoreOpts...)

	resolverOpts := []ResolverOption{WithUnityFallback(deps.UnityFallback)}
	if deps.Feed != nil {
		resolverOpts = append(resolverOpts, WithExternalFeed(deps.Feed))
	}
	if deps.Fallback != nil {
		resolverOpts = append(resolverOpts, WithFallbackTable(deps.Fallback))
	}
	resolver := NewRateResolverService(store, deps.Reserve, resolverOpts...)

	liquidityOpts := deps.LiquidityOpts
	if deps.Gateway != nil {
		liquidityOpts = append(liquidityOpts, WithSettlementGateway(deps.Gateway))
	}

	return &portssvc.ServiceContainer{
		RateStore:    store,
		RateResolver: resolver,
		Conversion:   NewConversionService(repos.AccountRepo, txnRepo, resolver),
		Liquidity:    NewLiquidityService(repos.VolumeRepo, liquidityOpts...),
		Account:      NewAccountService(repos.AccountRepo),
	}
}
