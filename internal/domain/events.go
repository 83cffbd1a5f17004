package domain

// DomainEvent is the tagged-variant event type emitted whenever activities,
// holdings, accounts or assets change. Concrete variants
// implement the marker method so a planner can type-switch over a batch;
// modeling this as a small sealed interface (rather than reflection over a
// single "Type" string) keeps the dispatcher in internal/domainevents/planner
// inspectable, matching the tagged-variant style used for ActivityType
// dispatch in internal/holdings.
type DomainEvent interface {
	domainEvent()
}

// ActivitiesChanged is emitted whenever an activity mutation is committed.
type ActivitiesChanged struct {
	AccountIDs []string
	AssetIDs   []string
	Currencies []string
}

func (ActivitiesChanged) domainEvent() {}

// HoldingsChanged is emitted when the snapshot service finishes a rebuild.
type HoldingsChanged struct {
	AccountIDs []string
	AssetIDs   []string
}

func (HoldingsChanged) domainEvent() {}

// CurrencyChange describes one account's ledger-currency change.
type CurrencyChange struct {
	AccountID string
	OldCcy    string
	NewCcy    string
}

// AccountsChanged is emitted when account metadata (including ledger
// currency) changes.
type AccountsChanged struct {
	AccountIDs      []string
	CurrencyChanges []CurrencyChange
}

func (AccountsChanged) domainEvent() {}

// AssetsCreated is emitted when new assets are added to the catalog.
type AssetsCreated struct {
	AssetIDs []string
}

func (AssetsCreated) domainEvent() {}

// AssetsMerged is emitted when two catalog entries are merged into one:
// activities, positions and lots are reassigned from `From` to `Into`.
type AssetsMerged struct {
	From string
	Into string
}

func (AssetsMerged) domainEvent() {}

// TrackingMode enumerates how an account's holdings are kept in sync.
type TrackingMode string

const (
	TrackingNotSet       TrackingMode = "NOT_SET"
	TrackingTransactions TrackingMode = "TRANSACTIONS"
	TrackingHoldings     TrackingMode = "HOLDINGS"
)

// TrackingModeChanged is emitted when an account switches sync strategy.
type TrackingModeChanged struct {
	AccountID   string
	OldMode     TrackingMode
	NewMode     TrackingMode
	IsConnected bool
}

func (TrackingModeChanged) domainEvent() {}

// ManualSnapshotSaved is emitted when a user hand-edits a snapshot.
type ManualSnapshotSaved struct {
	AccountID string
}

func (ManualSnapshotSaved) domainEvent() {}

// DomainEventSink is the port the core publishes events through.
// Publication is fire-and-forget: the core never awaits acknowledgement,
// so Publish must not block on downstream fan-out.
type DomainEventSink interface {
	Publish(event DomainEvent)
}

// NopEventSink discards every event; useful as a default in tests and in
// callers that don't need event fan-out.
type NopEventSink struct{}

func (NopEventSink) Publish(DomainEvent) {}

// MarketSyncMode is part of the public sync-request contract
// and must be preserved verbatim by the HTTP surface.
type MarketSyncMode struct {
	Mode     MarketSyncModeKind
	AssetIDs []string // only meaningful for Incremental
}

// MarketSyncModeKind enumerates the sync strategies a sync request can ask
// for.
type MarketSyncModeKind string

const (
	SyncNone        MarketSyncModeKind = "None"
	SyncIncremental MarketSyncModeKind = "Incremental"
	SyncFull        MarketSyncModeKind = "Full"
)

// PortfolioJobConfig is the recalculation plan produced by the planner
// from a batch of domain events.
type PortfolioJobConfig struct {
	AccountIDs              []string // nil means "all accounts"
	MarketSyncMode          MarketSyncMode
	ForceFullRecalculation  bool
}
