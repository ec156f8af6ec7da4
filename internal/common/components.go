package common

const (
	ComponentSynchronizer = "synchronizer"
	ComponentRPC          = "rpc-client"
	ComponentStore        = "series-store"
	ComponentVerifier     = "verifier"
	ComponentMaintenance  = "maintenance"
	ComponentAPI          = "api"
)

var AllComponents = map[string]struct{}{
	ComponentSynchronizer: {},
	ComponentRPC:          {},
	ComponentStore:        {},
	ComponentVerifier:     {},
	ComponentMaintenance:  {},
	ComponentAPI:          {},
}
