package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/beacons/beacon"
)

// TrackEventType marks if the beacon was newly seen or updated
type TrackEventType int

const (
	EventNew TrackEventType = iota
	EventUpdated
)

func (t TrackEventType) String() string {
	if t == EventNew {
		return "new"
	}
	return "updated"
}

// TrackEvent is reported for every beacon handed to the Tracker
type TrackEvent struct {
	Type   TrackEventType
	Beacon *beacon.Beacon
}

// Tracker keeps the latest record per hardware address, in first-seen order.
// It is safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	beacons *orderedmap.OrderedMap[string, *beacon.Beacon]
	logger  *logrus.Logger
}

// NewTracker creates an empty tracker
func NewTracker(logger *logrus.Logger) *Tracker {
	if logger == nil {
		logger = logrus.New()
	}
	return &Tracker{
		beacons: orderedmap.New[string, *beacon.Beacon](),
		logger:  logger,
	}
}

// Update stores b as the latest record for its address
func (t *Tracker) Update(b *beacon.Beacon) TrackEvent {
	key := b.Address().String()

	t.mu.Lock()
	_, present := t.beacons.Set(key, b)
	t.mu.Unlock()

	if present {
		return TrackEvent{Type: EventUpdated, Beacon: b}
	}

	t.logger.WithFields(logrus.Fields{
		"address":   key,
		"rssi":      b.RSSI(),
		"proximity": b.Proximity().String(),
	}).Info("Discovered new beacon")
	return TrackEvent{Type: EventNew, Beacon: b}
}

// Get returns the latest record for address
func (t *Tracker) Get(address beacon.HardwareAddress) (*beacon.Beacon, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.beacons.Get(address.String())
}

// Len returns the number of tracked beacons
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.beacons.Len()
}

// Snapshot returns the tracked beacons ordered by address
func (t *Tracker) Snapshot() []*beacon.Beacon {
	t.mu.RLock()
	list := make([]*beacon.Beacon, 0, t.beacons.Len())
	for pair := t.beacons.Oldest(); pair != nil; pair = pair.Next() {
		list = append(list, pair.Value)
	}
	t.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].Address().String() < list[j].Address().String()
	})
	return list
}

// Evict drops beacons last seen before cutoff and returns how many were removed
func (t *Tracker) Evict(cutoff time.Time) int {
	t.mu.Lock()
	var stale []string
	for pair := t.beacons.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.SeenAt().Before(cutoff) {
			stale = append(stale, pair.Key)
		}
	}
	for _, key := range stale {
		t.beacons.Delete(key)
	}
	t.mu.Unlock()

	if len(stale) > 0 {
		t.logger.WithField("count", len(stale)).Debug("Evicted stale beacons")
	}
	return len(stale)
}

// Track feeds every record of sub into the tracker until the subscription
// ends or ctx is done. onEvent may be nil.
func (t *Tracker) Track(ctx context.Context, sub *Subscription, onEvent func(TrackEvent)) error {
	return sub.Each(ctx, func(b *beacon.Beacon) error {
		ev := t.Update(b)
		if onEvent != nil {
			onEvent(ev)
		}
		return nil
	})
}
