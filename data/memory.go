package data

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eskulia/eskulia-api/common"
	"github.com/eskulia/eskulia-api/interfaces"
	"github.com/eskulia/eskulia-api/registryparser/entities"
	"github.com/eskulia/eskulia-api/trigram"
)

var (
	_ interfaces.MedicineStore = (*MemoryStore)(nil)
	_ interfaces.TokenStore    = (*MemoryStore)(nil)
)

// snapshot is an immutable view of the registry. It is replaced wholesale on import.
type snapshot struct {
	medicines    []entities.Medicine // sorted by identifier
	byIdentifier map[string]int
	nameGrams    []trigram.Set
}

// MemoryStore keeps the registry in process memory and device tokens under a mutex.
type MemoryStore struct {
	current atomic.Pointer[snapshot]

	importMu sync.Mutex

	tokensMu sync.RWMutex
	tokens   []entities.DeviceToken
	nextID   int64
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{}
	ms.current.Store(&snapshot{byIdentifier: map[string]int{}})
	return ms
}

func buildSnapshot(medicines []entities.Medicine) *snapshot {
	sorted := slices.Clone(medicines)
	slices.SortStableFunc(sorted, func(a, b entities.Medicine) int {
		return strings.Compare(a.Identifier, b.Identifier)
	})

	snap := &snapshot{
		medicines:    make([]entities.Medicine, 0, len(sorted)),
		byIdentifier: make(map[string]int, len(sorted)),
		nameGrams:    make([]trigram.Set, 0, len(sorted)),
	}
	for _, m := range sorted {
		if _, dup := snap.byIdentifier[m.Identifier]; dup {
			continue
		}
		if m.Packages == nil {
			m.Packages = entities.SplitPackaging(m.Packaging)
		}
		snap.byIdentifier[m.Identifier] = len(snap.medicines)
		snap.medicines = append(snap.medicines, m)
		snap.nameGrams = append(snap.nameGrams, trigram.Trigrams(m.Name))
	}
	return snap
}

// ReplaceAll builds a new snapshot and swaps it in; readers see the old or the new set, never a mix.
func (ms *MemoryStore) ReplaceAll(ctx context.Context, medicines []entities.Medicine) error {
	ms.importMu.Lock()
	defer ms.importMu.Unlock()

	snap := buildSnapshot(medicines)
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.current.Store(snap)
	return nil
}

// SearchByName returns records whose name similarity is strictly above threshold,
// best first, ties by identifier.
func (ms *MemoryStore) SearchByName(ctx context.Context, name string, threshold float64) ([]entities.ScoredMedicine, error) {
	snap := ms.current.Load()
	query := trigram.Trigrams(name)

	var hits []entities.ScoredMedicine
	for i, grams := range snap.nameGrams {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		score := query.Similarity(grams)
		if score > threshold {
			hits = append(hits, entities.ScoredMedicine{Medicine: snap.medicines[i], Similarity: score})
		}
	}

	slices.SortStableFunc(hits, func(a, b entities.ScoredMedicine) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return strings.Compare(a.Identifier, b.Identifier)
	})
	return hits, nil
}

// FindByBarcode scans packaging lines in identifier then line order.
func (ms *MemoryStore) FindByBarcode(ctx context.Context, barcode string) (entities.BarcodeMatch, error) {
	if barcode == "" {
		return entities.BarcodeMatch{}, fmt.Errorf("barcode %w", common.ErrNotFound)
	}
	snap := ms.current.Load()
	for _, m := range snap.medicines {
		for _, p := range m.Packages {
			if strings.Contains(p.Description, barcode) {
				return entities.NewBarcodeMatch(m, p.Description), nil
			}
		}
	}
	return entities.BarcodeMatch{}, fmt.Errorf("barcode %s: %w", barcode, common.ErrNotFound)
}

func (ms *MemoryStore) GetByIdentifier(ctx context.Context, identifier string) (entities.Medicine, error) {
	snap := ms.current.Load()
	if i, ok := snap.byIdentifier[identifier]; ok {
		return snap.medicines[i], nil
	}
	return entities.Medicine{}, fmt.Errorf("medicine %s: %w", identifier, common.ErrNotFound)
}

func (ms *MemoryStore) Count(ctx context.Context) (int, error) {
	return len(ms.current.Load().medicines), nil
}

// Ping always succeeds for the in-memory backend
func (ms *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// UpsertToken registers token for ownerID, reactivating it if it was unregistered.
func (ms *MemoryStore) UpsertToken(ctx context.Context, ownerID int64, token string, platform entities.Platform) (entities.DeviceToken, error) {
	ms.tokensMu.Lock()
	defer ms.tokensMu.Unlock()

	now := time.Now()
	for i := range ms.tokens {
		t := &ms.tokens[i]
		if t.OwnerID == ownerID && t.Token == token {
			t.Platform = platform
			t.Active = true
			t.UpdatedAt = now
			return *t, nil
		}
	}

	ms.nextID++
	t := entities.DeviceToken{
		ID:        ms.nextID,
		OwnerID:   ownerID,
		Token:     token,
		Platform:  platform,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ms.tokens = append(ms.tokens, t)
	return t, nil
}

// DeactivateToken soft-deletes the caller's own active token.
func (ms *MemoryStore) DeactivateToken(ctx context.Context, ownerID int64, token string) error {
	ms.tokensMu.Lock()
	defer ms.tokensMu.Unlock()

	for i := range ms.tokens {
		t := &ms.tokens[i]
		if t.OwnerID == ownerID && t.Token == token && t.Active {
			t.Active = false
			t.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("device token: %w", common.ErrNotFound)
}

// ActiveTokens returns active tokens of the given owners ordered by owner then id.
func (ms *MemoryStore) ActiveTokens(ctx context.Context, ownerIDs []int64) ([]entities.DeviceToken, error) {
	ms.tokensMu.RLock()
	defer ms.tokensMu.RUnlock()

	var out []entities.DeviceToken
	for _, t := range ms.tokens {
		if t.Active && slices.Contains(ownerIDs, t.OwnerID) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b entities.DeviceToken) int {
		if c := cmp.Compare(a.OwnerID, b.OwnerID); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}
