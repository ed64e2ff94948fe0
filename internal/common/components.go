package common

const (
	ComponentStore      = "store"
	ComponentIndex      = "auction-index"
	ComponentClassifier = "classifier"
	ComponentEvents     = "events"
	ComponentNode       = "node"
	ComponentAPI        = "api"
)

var AllComponents = map[string]struct{}{
	ComponentStore:      {},
	ComponentIndex:      {},
	ComponentClassifier: {},
	ComponentEvents:     {},
	ComponentNode:       {},
	ComponentAPI:        {},
}
