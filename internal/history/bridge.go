package history

import (
	"github.com/rs/zerolog"

	"github.com/breatheroute/planner/internal/state"
	"github.com/breatheroute/planner/internal/store"
	"github.com/breatheroute/planner/internal/urlcodec"
)

// BridgeConfig holds configuration for a Bridge.
type BridgeConfig struct {
	Store       *store.Store
	Environment Environment
	Logger      zerolog.Logger
}

// Bridge keeps the environment's location in step with the store. After
// every dispatch it pushes a new entry if the canonical URL changed; on
// back/forward it restores the snapshot stored with the entry.
type Bridge struct {
	store     *store.Store
	env       Environment
	logger    zerolog.Logger
	restoring bool
	unsub     func()
	unnav     func()
}

// NewBridge wires a store to an environment. It does not touch the
// environment until the next dispatch or Start.
func NewBridge(cfg BridgeConfig) *Bridge {
	b := &Bridge{
		store:  cfg.Store,
		env:    cfg.Environment,
		logger: cfg.Logger,
	}
	b.unnav = b.env.OnNavigate(b.restore)
	b.unsub = b.store.Subscribe(b.sync)
	return b
}

// Start makes the current entry carry the current state under its
// canonical URL, without adding an entry.
func (b *Bridge) Start() {
	s := b.store.State()
	b.env.Replace(s, urlcodec.Serialize(s))
}

// Close detaches the bridge from the store and the environment.
func (b *Bridge) Close() {
	b.unsub()
	b.unnav()
}

func (b *Bridge) sync() {
	if b.restoring {
		return
	}

	s := b.store.State()
	url := urlcodec.Serialize(s)
	if url == b.env.Location() {
		return
	}

	b.env.Push(s, url)
	b.logger.Debug().Str("url", url).Msg("history entry pushed")
}

func (b *Bridge) restore(e Entry) {
	snapshot := urlcodec.Deserialize(e.URL)
	if e.Snapshot != nil {
		snapshot = *e.Snapshot
	}

	b.restoring = true
	defer func() { b.restoring = false }()

	b.store.Dispatch(state.RestoreState{Snapshot: snapshot})
	b.logger.Debug().Str("url", e.URL).Bool("exact", e.Snapshot != nil).Msg("history entry restored")
}
