package scheduler

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/origin"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/preimage"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/database"
)

var (
	agendaPrefix  = []byte("sched/agenda/")
	lookupPrefix  = []byte("sched/lookup/")
	incompleteKey = []byte("sched/incomplete")
)

var mh = &codec.MsgpackHandle{WriteExt: true}

type taskRecord struct {
	ID          []byte  `codec:"id,omitempty"`
	Priority    uint8   `codec:"pr"`
	Inline      []byte  `codec:"in,omitempty"`
	Hash        []byte  `codec:"h,omitempty"`
	Len         uint32  `codec:"l,omitempty"`
	Periodic    *Period `codec:"pe,omitempty"`
	Origin      []byte  `codec:"o"`
	SpecVersion uint32  `codec:"v"`
}

type agendaRecord struct {
	Slots []*taskRecord `codec:"s"`
}

// KVStore persists scheduler state in a database.DB. Every Commit is a
// single batch.
type KVStore struct {
	db       database.DB
	backend  string
	capacity uint32
}

// NewKVStore creates a store on db. capacity is applied to decoded agendas.
func NewKVStore(db database.DB, backend string, capacity uint32) *KVStore {
	return &KVStore{db: db, backend: backend, capacity: capacity}
}

func agendaKey(when Tick) []byte {
	k := make([]byte, len(agendaPrefix)+4)
	copy(k, agendaPrefix)
	binary.BigEndian.PutUint32(k[len(agendaPrefix):], when)
	return k
}

func lookupKey(name TaskName) []byte {
	k := make([]byte, 0, len(lookupPrefix)+len(name))
	k = append(k, lookupPrefix...)
	return append(k, name[:]...)
}

func encodeRecord(v any) ([]byte, error) {
	var out []byte
	err := codec.NewEncoderBytes(&out, mh).Encode(v)
	return out, err
}

func decodeRecord(data []byte, v any) error {
	return codec.NewDecoderBytes(data, mh).Decode(v)
}

func toTaskRecord(s *Scheduled) *taskRecord {
	rec := &taskRecord{
		Priority:    s.Priority,
		Periodic:    s.Periodic,
		SpecVersion: s.SpecVersion,
	}
	if s.ID != nil {
		rec.ID = append([]byte(nil), s.ID[:]...)
	}
	if s.Origin != nil {
		rec.Origin = s.Origin.Encode()
	}
	if h, ok := s.Call.Hash(); ok {
		rec.Hash = append([]byte(nil), h[:]...)
		rec.Len = *s.Call.LookupLen()
	} else {
		rec.Inline = s.Call.Encoded()
	}
	return rec
}

func fromTaskRecord(rec *taskRecord) (*Scheduled, error) {
	s := &Scheduled{
		Priority:    rec.Priority,
		Periodic:    rec.Periodic,
		SpecVersion: rec.SpecVersion,
	}
	if len(rec.ID) > 0 {
		var id TaskName
		if len(rec.ID) != len(id) {
			return nil, fmt.Errorf("task id has %d bytes", len(rec.ID))
		}
		copy(id[:], rec.ID)
		s.ID = &id
	}
	o, err := origin.Decode(rec.Origin)
	if err != nil {
		return nil, err
	}
	s.Origin = o
	if len(rec.Hash) > 0 {
		var h preimage.Hash
		if len(rec.Hash) != len(h) {
			return nil, fmt.Errorf("call hash has %d bytes", len(rec.Hash))
		}
		copy(h[:], rec.Hash)
		s.Call = Lookup(h, rec.Len)
	} else {
		s.Call = Inline(rec.Inline)
	}
	return s, nil
}

func (k *KVStore) Agenda(ctx context.Context, when Tick) (*Agenda, error) {
	raw, err := k.db.Read(ctx, agendaKey(when))
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("read agenda", k.backend, err)
	}
	var rec agendaRecord
	if err := decodeRecord(raw, &rec); err != nil {
		return nil, storeError("decode agenda", k.backend, err)
	}
	slots := make([]*Scheduled, len(rec.Slots))
	for i, tr := range rec.Slots {
		if tr == nil {
			continue
		}
		s, err := fromTaskRecord(tr)
		if err != nil {
			return nil, storeError("decode task", k.backend, fmt.Errorf("tick %d slot %d: %w", when, i, err))
		}
		slots[i] = s
	}
	return agendaFromSlots(k.capacity, slots), nil
}

func (k *KVStore) Lookup(ctx context.Context, name TaskName) (TaskAddress, bool, error) {
	raw, err := k.db.Read(ctx, lookupKey(name))
	if errors.Is(err, database.ErrKeyNotFound) {
		return TaskAddress{}, false, nil
	}
	if err != nil {
		return TaskAddress{}, false, storeError("read lookup", k.backend, err)
	}
	var addr TaskAddress
	if err := decodeRecord(raw, &addr); err != nil {
		return TaskAddress{}, false, storeError("decode lookup", k.backend, err)
	}
	return addr, true, nil
}

func (k *KVStore) IncompleteSince(ctx context.Context) (Tick, bool, error) {
	raw, err := k.db.Read(ctx, incompleteKey)
	if errors.Is(err, database.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storeError("read incomplete since", k.backend, err)
	}
	if len(raw) != 4 {
		return 0, false, storeError("decode incomplete since", k.backend, fmt.Errorf("have %d bytes", len(raw)))
	}
	return binary.BigEndian.Uint32(raw), true, nil
}

func (k *KVStore) Ticks(ctx context.Context) ([]Tick, error) {
	it, err := k.db.Iterator(ctx, agendaPrefix, database.PrefixEnd(agendaPrefix))
	if err != nil {
		return nil, storeError("iterate agendas", k.backend, err)
	}
	defer it.Close()

	var out []Tick
	for it.Next() {
		key := it.Key()
		if len(key) != len(agendaPrefix)+4 {
			continue
		}
		out = append(out, binary.BigEndian.Uint32(key[len(agendaPrefix):]))
	}
	if err := it.Error(); err != nil {
		return nil, storeError("iterate agendas", k.backend, err)
	}
	return out, nil
}

func (k *KVStore) Commit(ctx context.Context, cs *Changeset) error {
	if cs.IsEmpty() {
		return nil
	}
	ops := make([]database.BatchOperation, 0, len(cs.Agendas)+len(cs.Lookups)+1)

	for _, t := range cs.SortedTicks() {
		a := cs.Agendas[t]
		if a == nil {
			ops = append(ops, database.Del(agendaKey(t)))
			continue
		}
		rec := agendaRecord{Slots: make([]*taskRecord, a.Len())}
		for i := 0; i < a.Len(); i++ {
			if s, ok := a.Get(uint32(i)); ok {
				rec.Slots[i] = toTaskRecord(s)
			}
		}
		raw, err := encodeRecord(&rec)
		if err != nil {
			return storeError("encode agenda", k.backend, err)
		}
		ops = append(ops, database.Put(agendaKey(t), raw))
	}

	for name, addr := range cs.Lookups {
		if addr == nil {
			ops = append(ops, database.Del(lookupKey(name)))
			continue
		}
		raw, err := encodeRecord(addr)
		if err != nil {
			return storeError("encode lookup", k.backend, err)
		}
		ops = append(ops, database.Put(lookupKey(name), raw))
	}

	if cs.IncompleteSinceSet {
		if cs.IncompleteSince == nil {
			ops = append(ops, database.Del(incompleteKey))
		} else {
			raw := make([]byte, 4)
			binary.BigEndian.PutUint32(raw, *cs.IncompleteSince)
			ops = append(ops, database.Put(incompleteKey, raw))
		}
	}

	return storeError("commit", k.backend, k.db.Batch(ctx, ops))
}
