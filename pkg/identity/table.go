// Package identity maps the identifiers found in canvas logs to compact
// MetaIDIndex values. Persistent identities live in a pebble database;
// session-scoped (unique) identities live only as long as the Table.
package identity

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/codec"
)

var (
	// ErrNoIdentifier is returned when looking up one of the "none" indices.
	ErrNoIdentifier = errors.New("index refers to no identifier")
	// ErrUnknownIndex is returned when no identity was registered under an index.
	ErrUnknownIndex = errors.New("unknown identity index")
	// ErrTableFull is returned when the 31-bit index space is exhausted.
	ErrTableFull = errors.New("identity table is full")
	// ErrCorruptEntry is returned when a stored identity cannot be decoded.
	ErrCorruptEntry = errors.New("corrupt identity entry")
)

var (
	prefixIndex    = []byte("i/")
	prefixIdentity = []byte("k/")
	keyNext        = []byte("m/next")
)

// Table assigns table indices to identities. It is safe for concurrent use.
type Table struct {
	db    *pebble.DB
	codec *codec.RecordCodec
	mutex sync.Mutex
	next  uint32 // Next persistent index

	unique      []canvas.Identifier
	uniqueByKey map[string]uint32
}

// Open opens or creates the identity table stored in dir.
func Open(dir string) (*Table, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open identity table: %w", err)
	}

	t := &Table{
		db:          db,
		codec:       codec.NewRecordCodec(),
		uniqueByKey: make(map[string]uint32),
	}

	value, closer, err := db.Get(keyNext)
	switch {
	case err == nil:
		if len(value) != 4 {
			closer.Close()
			db.Close()
			return nil, fmt.Errorf("%w: next index", ErrCorruptEntry)
		}
		t.next = binary.LittleEndian.Uint32(value)
		closer.Close()
	case errors.Is(err, pebble.ErrNotFound):
	default:
		db.Close()
		return nil, err
	}

	return t, nil
}

// Register returns the index of id, assigning the next free one if id has
// not been seen. Unique identities get indices with the unique bit set and
// are forgotten on Close. Registering the same identity twice returns the
// same index.
func (t *Table) Register(id canvas.Identifier, unique bool) (canvas.MetaIDIndex, error) {
	key, err := t.encode(id)
	if err != nil {
		return canvas.NoMetaID, err
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if unique {
		return t.registerUnique(id, key)
	}

	value, closer, err := t.db.Get(identityKey(key))
	if err == nil {
		defer closer.Close()
		if len(value) != 4 {
			return canvas.NoMetaID, fmt.Errorf("%w: index of %s", ErrCorruptEntry, id.Tag())
		}
		return canvas.NewMetaIDIndex(binary.LittleEndian.Uint32(value), false)
	}
	if !errors.Is(err, pebble.ErrNotFound) {
		return canvas.NoMetaID, err
	}

	index, err := canvas.NewMetaIDIndex(t.next, false)
	if err != nil {
		return canvas.NoMetaID, ErrTableFull
	}

	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], t.next)
	var next [4]byte
	binary.LittleEndian.PutUint32(next[:], t.next+1)

	batch := t.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(indexKey(t.next), key, nil); err != nil {
		return canvas.NoMetaID, err
	}
	if err := batch.Set(identityKey(key), raw[:], nil); err != nil {
		return canvas.NoMetaID, err
	}
	if err := batch.Set(keyNext, next[:], nil); err != nil {
		return canvas.NoMetaID, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return canvas.NoMetaID, err
	}

	t.next++
	return index, nil
}

func (t *Table) registerUnique(id canvas.Identifier, key []byte) (canvas.MetaIDIndex, error) {
	if i, ok := t.uniqueByKey[string(key)]; ok {
		return canvas.NewMetaIDIndex(i, true)
	}

	index, err := canvas.NewMetaIDIndex(uint32(len(t.unique)), true)
	if err != nil {
		return canvas.NoUniqueMetaID, ErrTableFull
	}
	t.uniqueByKey[string(key)] = index.Index()
	t.unique = append(t.unique, id)
	return index, nil
}

// Lookup returns the identity registered under index.
func (t *Table) Lookup(index canvas.MetaIDIndex) (canvas.Identifier, error) {
	if index.IsNone() {
		return nil, ErrNoIdentifier
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if index.IsUnique() {
		if int(index.Index()) >= len(t.unique) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownIndex, index)
		}
		return t.unique[index.Index()], nil
	}

	value, closer, err := t.db.Get(indexKey(index.Index()))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownIndex, index)
		}
		return nil, err
	}
	defer closer.Close()

	return t.decode(value)
}

// Ingest registers rec if it is an identifier record and reports the index
// it was given. Other records are ignored.
func (t *Table) Ingest(rec canvas.Record) (canvas.MetaIDIndex, bool, error) {
	id, ok := rec.(canvas.Identifier)
	if !ok {
		return canvas.NoMetaID, false, nil
	}
	index, err := t.Register(id, false)
	if err != nil {
		return canvas.NoMetaID, false, err
	}
	return index, true, nil
}

// Len returns the number of persistent and unique identities.
func (t *Table) Len() (persistent, unique int) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return int(t.next), len(t.unique)
}

// Close closes the underlying database and drops unique identities.
func (t *Table) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.unique = nil
	t.uniqueByKey = nil
	return t.db.Close()
}

// encode returns the tag followed by the codec payload of id.
func (t *Table) encode(id canvas.Identifier) ([]byte, error) {
	if id == nil {
		return nil, codec.ErrNilRecord
	}
	var tag [2]byte
	binary.LittleEndian.PutUint16(tag[:], uint16(id.Tag()))
	return t.codec.Append(tag[:], id)
}

func (t *Table) decode(value []byte) (canvas.Identifier, error) {
	if len(value) < 2 {
		return nil, ErrCorruptEntry
	}
	rec, err := t.codec.Decode(canvas.Tag(binary.LittleEndian.Uint16(value)), value[2:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	id, ok := rec.(canvas.Identifier)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an identifier", ErrCorruptEntry, rec.Tag())
	}
	return id, nil
}

func indexKey(index uint32) []byte {
	key := make([]byte, len(prefixIndex)+4)
	copy(key, prefixIndex)
	binary.BigEndian.PutUint32(key[len(prefixIndex):], index)
	return key
}

func identityKey(encoded []byte) []byte {
	key := make([]byte, 0, len(prefixIdentity)+len(encoded))
	key = append(key, prefixIdentity...)
	return append(key, encoded...)
}
