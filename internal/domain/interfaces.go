package domain

import "context"

// FeatureSource supplies the latest feature snapshot per symbol. The real
// implementation talks to the feature service over HTTP; a deterministic
// fixture implementation backs tests and dev mode.
type FeatureSource interface {
	// GetLatestFeatures returns nil without error when the source has no
	// snapshot for the symbol.
	GetLatestFeatures(ctx context.Context, symbol string) (*FeatureSnapshot, error)
}

// BrokerClient is the brokerage data collaborator. Implementations must
// tolerate the upstream being unreachable: return empty positions and a
// zeroed summary with IsConnected=false instead of propagating errors to the
// request path.
type BrokerClient interface {
	GetPositions(ctx context.Context) ([]Position, error)
	GetAccountSummary(ctx context.Context) (AccountSummary, error)
}
