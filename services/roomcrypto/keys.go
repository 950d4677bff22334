package roomcrypto

import (
	"Moneta/models/game"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// KeyState is the explicit per-room key lifecycle state.
type KeyState int

const (
	KeysUninitialized KeyState = iota
	KeysReady
	KeysFailed
)

var ErrKeysNotReady = errors.New("room keys not initialized")

// RoomKeys holds one room's session key and its symbol-index bijection. The
// bijection is transmitted once at key exchange so price ticks can be
// compacted into a dense array indexed by position.
type RoomKeys struct {
	Key         []byte
	CreatedAt   time.Time
	SymbolIndex map[string]int
	Symbols     []string // index -> symbol, lexicographically sorted
}

type keyEntry struct {
	state  KeyState
	keys   *RoomKeys
	reason string
}

// KeyRegistry is the single owner of all per-room key material. No other
// component may generate, cache, or log a session key.
type KeyRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*keyEntry
}

func NewKeyRegistry() *KeyRegistry {
	return &KeyRegistry{rooms: make(map[string]*keyEntry)}
}

// InitializeRoomKeys generates a fresh session key for the room and assigns
// sequential indices to the (lexicographically sorted) symbol set.
func (kr *KeyRegistry) InitializeRoomKeys(roomCode string, symbols []string) (*RoomKeys, error) {
	key, err := GenerateSessionKey()
	if err != nil {
		kr.markFailed(roomCode, err.Error())
		return nil, err
	}

	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	index := make(map[string]int, len(sorted))
	for i, s := range sorted {
		index[s] = i
	}

	keys := &RoomKeys{
		Key:         key,
		CreatedAt:   time.Now(),
		SymbolIndex: index,
		Symbols:     sorted,
	}

	kr.mu.Lock()
	kr.rooms[roomCode] = &keyEntry{state: KeysReady, keys: keys}
	kr.mu.Unlock()

	log.Printf("[KEYS] Initialized session keys for room %s (%d symbols)", roomCode, len(sorted))
	return keys, nil
}

func (kr *KeyRegistry) markFailed(roomCode, reason string) {
	kr.mu.Lock()
	kr.rooms[roomCode] = &keyEntry{state: KeysFailed, reason: reason}
	kr.mu.Unlock()
}

// Lookup returns the room's key state and, when ready, its key material.
func (kr *KeyRegistry) Lookup(roomCode string) (KeyState, *RoomKeys) {
	kr.mu.RLock()
	defer kr.mu.RUnlock()
	entry, ok := kr.rooms[roomCode]
	if !ok {
		return KeysUninitialized, nil
	}
	return entry.state, entry.keys
}

// EncryptPriceData compacts a price snapshot into a dense array ordered by
// the room's symbol indices and encrypts it. Symbols absent from the snapshot
// stay 0.0, a sentinel for "no authoritative price this tick", not a real
// price. Returns ErrKeysNotReady when the room has no keys; the caller must
// not broadcast in that case.
func (kr *KeyRegistry) EncryptPriceData(roomCode string, snapshot game.PriceSnapshot) (*EncryptedPayload, error) {
	state, keys := kr.Lookup(roomCode)
	if state != KeysReady {
		return nil, ErrKeysNotReady
	}

	prices := make([]float64, len(keys.Symbols))
	for symbol, price := range snapshot {
		if i, ok := keys.SymbolIndex[symbol]; ok {
			prices[i] = price
		}
	}

	payload, err := Encrypt(prices, keys.Key)
	if err != nil {
		return nil, fmt.Errorf("error encrypting price data for room %s: %v", roomCode, err)
	}
	return payload, nil
}

// CleanupRoomKeys irrecoverably deletes a room's key material. Keys never
// persist or outlive their room.
func (kr *KeyRegistry) CleanupRoomKeys(roomCode string) {
	kr.mu.Lock()
	entry, ok := kr.rooms[roomCode]
	if ok {
		if entry.keys != nil {
			for i := range entry.keys.Key {
				entry.keys.Key[i] = 0
			}
		}
		delete(kr.rooms, roomCode)
	}
	kr.mu.Unlock()

	if ok {
		log.Printf("[KEYS] Destroyed session keys for room %s", roomCode)
	}
}
