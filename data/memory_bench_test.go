package data

import (
	"context"
	"fmt"
	"testing"

	"github.com/eskulia/eskulia-api/registryparser/entities"
)

func benchmarkStore(b *testing.B, n int) *MemoryStore {
	b.Helper()
	medicines := make([]entities.Medicine, n)
	for i := range n {
		medicines[i] = entities.Medicine{
			Identifier: fmt.Sprintf("1%08d", i),
			Name:       fmt.Sprintf("Preparat %d forte", i),
			Packaging:  fmt.Sprintf("59099900%05d 30 tabl.\n59099901%05d 60 tabl.", i, i),
		}
	}
	store := NewMemoryStore()
	if err := store.ReplaceAll(context.Background(), medicines); err != nil {
		b.Fatal(err)
	}
	return store
}

// BenchmarkSearchByName measures a full trigram scan over a registry-sized set
func BenchmarkSearchByName(b *testing.B) {
	store := benchmarkStore(b, 15000)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.SearchByName(ctx, "preparat forte", 0.3); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFindByBarcode(b *testing.B) {
	store := benchmarkStore(b, 15000)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.FindByBarcode(ctx, "5909990114999")
	}
}

func BenchmarkReplaceAll(b *testing.B) {
	store := benchmarkStore(b, 1)
	medicines := make([]entities.Medicine, 15000)
	for i := range medicines {
		medicines[i] = entities.Medicine{Identifier: fmt.Sprintf("%d", i), Name: "Apap", Packaging: "5909990055710"}
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.ReplaceAll(ctx, medicines); err != nil {
			b.Fatal(err)
		}
	}
}
