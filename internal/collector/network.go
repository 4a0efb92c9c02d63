package collector

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"housekeeper/internal/classify"
	"housekeeper/internal/clock"
	"housekeeper/internal/model"
	"housekeeper/internal/rate"
	"housekeeper/internal/source"
)

const netReclassifyInterval = 10 * time.Second

// LinkInfo is what the link inspector learned about one interface.
type LinkInfo struct {
	Facts    classify.LinkFacts
	IsBond   bool
	BondMode string
	Members  []string
	Master   string
}

// LinkInspector reports routing, address and bonding facts per interface.
type LinkInspector interface {
	Links(ctx context.Context) (map[string]LinkInfo, error)
}

type NetworkCollector struct {
	src     source.Source
	links   LinkInspector
	clk     clock.Clock
	store   *rate.Store
	logger  *slog.Logger
	types   map[string]classify.NetType
	info    map[string]LinkInfo
	checked clock.Instant
}

func NewNetworkCollector(src source.Source, links LinkInspector, clk clock.Clock, logger *slog.Logger) *NetworkCollector {
	return &NetworkCollector{
		src:    src,
		links:  links,
		clk:    clk,
		store:  rate.NewStore(),
		logger: logger.With("collector", "network"),
	}
}

func (c *NetworkCollector) Collect(ctx context.Context) []model.NetUsage {
	c.refreshLinks(ctx)

	snap, err := c.src.Read(ctx)
	if err != nil {
		c.logger.Warn("interface counters unavailable", "error", err)
	}
	delete(snap.Values, "lo")
	rec := c.store.ReadAndAdvance(snap)

	out := make([]model.NetUsage, 0, len(rec))
	for _, name := range rec.Keys() {
		info := c.info[name]
		out = append(out, model.NetUsage{
			Name:          name,
			Type:          string(c.typeOf(name)),
			RxBytesPerSec: rec.Get(name, source.FieldRxBytes),
			TxBytesPerSec: rec.Get(name, source.FieldTxBytes),
			IsBond:        info.IsBond,
			BondMode:      info.BondMode,
			Members:       info.Members,
			Master:        info.Master,
		})
	}
	c.order(out)
	return out
}

func (c *NetworkCollector) refreshLinks(ctx context.Context) {
	now := c.clk.Now()
	if c.types != nil && now.Sub(c.checked) < netReclassifyInterval {
		return
	}
	c.checked = now
	info, err := c.links.Links(ctx)
	if err != nil {
		c.logger.Warn("link inspection failed", "error", err)
		if c.types == nil {
			c.types = map[string]classify.NetType{}
		}
		return
	}
	types := make(map[string]classify.NetType, len(info))
	for name, li := range info {
		types[name] = classify.Interface(name, li.Facts)
	}
	c.types = types
	c.info = info
}

func (c *NetworkCollector) typeOf(name string) classify.NetType {
	if t, ok := c.types[name]; ok {
		return t
	}
	return classify.NetUnknown
}

// order sorts by type then name, with bond members placed right after
// their bond.
func (c *NetworkCollector) order(out []model.NetUsage) {
	type sortKey struct {
		group  int
		anchor string
		member int
		name   string
	}
	keyOf := func(u model.NetUsage) sortKey {
		if u.Master != "" && !u.IsBond {
			return sortKey{c.typeOf(u.Master).Order(), u.Master, 1, u.Name}
		}
		return sortKey{classify.NetType(u.Type).Order(), u.Name, 0, ""}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := keyOf(out[i]), keyOf(out[j])
		if a.group != b.group {
			return a.group < b.group
		}
		if a.anchor != b.anchor {
			return a.anchor < b.anchor
		}
		if a.member != b.member {
			return a.member < b.member
		}
		return a.name < b.name
	})
}
