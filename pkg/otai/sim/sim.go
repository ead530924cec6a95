// Package sim is an in-memory OTAI driver. It stands in for the linecard
// process in tests, benchmarks and the daemon's simulate mode.
package sim

import (
	"context"
	"sync"

	"github.com/otairec/otairec/pkg/otai"
)

type objectKey struct {
	ot otai.ObjectType
	id otai.ObjectID
}

// Linecard keeps created objects and per-object counters in memory.
// Counters advance by one on every read so repeated GetStats calls
// return changing values.
type Linecard struct {
	mu       sync.RWMutex
	objects  map[objectKey]map[otai.AttrID]any
	counters map[objectKey]map[otai.StatID]uint64
}

var _ otai.API = (*Linecard)(nil)

// New returns an empty linecard.
func New() *Linecard {
	return &Linecard{
		objects:  make(map[objectKey]map[otai.AttrID]any),
		counters: make(map[objectKey]map[otai.StatID]uint64),
	}
}

// Len returns the number of live objects.
func (l *Linecard) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.objects)
}

func (l *Linecard) Create(ctx context.Context, ot otai.ObjectType, id otai.ObjectID, attrs []otai.Attribute) otai.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createLocked(objectKey{ot, id}, attrs)
}

func (l *Linecard) createLocked(k objectKey, attrs []otai.Attribute) otai.Status {
	if k.id == 0 {
		return otai.StatusInvalidObjectID
	}
	if _, ok := l.objects[k]; ok {
		return otai.StatusItemAlreadyExists
	}
	m := make(map[otai.AttrID]any, len(attrs))
	for _, a := range attrs {
		m[a.ID] = a.Value
	}
	l.objects[k] = m
	return otai.StatusSuccess
}

func (l *Linecard) Remove(ctx context.Context, ot otai.ObjectType, id otai.ObjectID) otai.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removeLocked(objectKey{ot, id})
}

func (l *Linecard) removeLocked(k objectKey) otai.Status {
	if _, ok := l.objects[k]; !ok {
		return otai.StatusItemNotFound
	}
	delete(l.objects, k)
	delete(l.counters, k)
	return otai.StatusSuccess
}

func (l *Linecard) Set(ctx context.Context, ot otai.ObjectType, id otai.ObjectID, attr otai.Attribute) otai.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.setLocked(objectKey{ot, id}, attr)
}

func (l *Linecard) setLocked(k objectKey, attr otai.Attribute) otai.Status {
	obj, ok := l.objects[k]
	if !ok {
		return otai.StatusItemNotFound
	}
	obj[attr.ID] = attr.Value
	return otai.StatusSuccess
}

// Get fills in the value of every requested attribute. An attribute that
// was never set fails the whole call with StatusItemNotFound.
func (l *Linecard) Get(ctx context.Context, ot otai.ObjectType, id otai.ObjectID, attrs []otai.Attribute) ([]otai.Attribute, otai.Status) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	obj, ok := l.objects[objectKey{ot, id}]
	if !ok {
		return nil, otai.StatusItemNotFound
	}
	out := make([]otai.Attribute, len(attrs))
	for i, a := range attrs {
		v, ok := obj[a.ID]
		if !ok {
			return nil, otai.StatusItemNotFound
		}
		out[i] = otai.Attribute{ID: a.ID, Value: v}
	}
	return out, otai.StatusSuccess
}

func (l *Linecard) GetStats(ctx context.Context, ot otai.ObjectType, id otai.ObjectID, counters []otai.StatID) ([]uint64, otai.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := objectKey{ot, id}
	if _, ok := l.objects[k]; !ok {
		return nil, otai.StatusItemNotFound
	}
	c := l.counters[k]
	if c == nil {
		c = make(map[otai.StatID]uint64)
		l.counters[k] = c
	}
	out := make([]uint64, len(counters))
	for i, s := range counters {
		c[s]++
		out[i] = c[s]
	}
	return out, otai.StatusSuccess
}

func (l *Linecard) ClearStats(ctx context.Context, ot otai.ObjectType, id otai.ObjectID, counters []otai.StatID) otai.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := objectKey{ot, id}
	if _, ok := l.objects[k]; !ok {
		return otai.StatusItemNotFound
	}
	for _, s := range counters {
		delete(l.counters[k], s)
	}
	return otai.StatusSuccess
}

// The bulk calls apply each entry independently. The overall status is
// StatusFailure if any entry failed.

func (l *Linecard) BulkCreate(ctx context.Context, ot otai.ObjectType, ids []otai.ObjectID, attrs [][]otai.Attribute) ([]otai.Status, otai.Status) {
	if len(attrs) != len(ids) {
		return nil, otai.StatusInvalidParameter
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return bulk(ids, func(i int, id otai.ObjectID) otai.Status {
		return l.createLocked(objectKey{ot, id}, attrs[i])
	})
}

func (l *Linecard) BulkRemove(ctx context.Context, ot otai.ObjectType, ids []otai.ObjectID) ([]otai.Status, otai.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return bulk(ids, func(_ int, id otai.ObjectID) otai.Status {
		return l.removeLocked(objectKey{ot, id})
	})
}

func (l *Linecard) BulkSet(ctx context.Context, ot otai.ObjectType, ids []otai.ObjectID, attrs []otai.Attribute) ([]otai.Status, otai.Status) {
	if len(attrs) != len(ids) {
		return nil, otai.StatusInvalidParameter
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return bulk(ids, func(i int, id otai.ObjectID) otai.Status {
		return l.setLocked(objectKey{ot, id}, attrs[i])
	})
}

func bulk(ids []otai.ObjectID, fn func(int, otai.ObjectID) otai.Status) ([]otai.Status, otai.Status) {
	statuses := make([]otai.Status, len(ids))
	overall := otai.StatusSuccess
	for i, id := range ids {
		statuses[i] = fn(i, id)
		if !statuses[i].Success() {
			overall = otai.StatusFailure
		}
	}
	return statuses, overall
}

// ObjectTypeGetAvailability reports a fixed capacity of 64 per type minus
// the objects already created.
func (l *Linecard) ObjectTypeGetAvailability(ctx context.Context, deviceID otai.ObjectID, ot otai.ObjectType, attrs []otai.Attribute) (uint64, otai.Status) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	used := 0
	for k := range l.objects {
		if k.ot == ot {
			used++
		}
	}
	if used >= 64 {
		return 0, otai.StatusSuccess
	}
	return uint64(64 - used), otai.StatusSuccess
}

func (l *Linecard) QueryAttributeCapability(ctx context.Context, deviceID otai.ObjectID, ot otai.ObjectType, attr otai.AttrID) (otai.AttrCapability, otai.Status) {
	return otai.AttrCapability{CreateImplemented: true, SetImplemented: true, GetImplemented: true}, otai.StatusSuccess
}

// QueryAttributeEnumValuesCapability answers with the first Count values
// of 0, 1, 2, ... and StatusBufferOverflow when Count is zero.
func (l *Linecard) QueryAttributeEnumValuesCapability(ctx context.Context, deviceID otai.ObjectID, ot otai.ObjectType, attr otai.AttrID, values otai.S32List) (otai.S32List, otai.Status) {
	const n = 4
	if values.Count == 0 {
		return otai.S32List{Count: n}, otai.StatusBufferOverflow
	}
	count := min(values.Count, n)
	out := otai.S32List{Count: count, List: make([]int32, count)}
	for i := range out.List {
		out.List[i] = int32(i)
	}
	return out, otai.StatusSuccess
}

func (l *Linecard) NotifySyncd(ctx context.Context, deviceID otai.ObjectID, kind otai.NotifySyncd) otai.Status {
	switch kind {
	case otai.NotifySyncdInitView, otai.NotifySyncdApplyView, otai.NotifySyncdInspect:
		return otai.StatusSuccess
	}
	return otai.StatusInvalidParameter
}
