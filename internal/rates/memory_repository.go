package rates

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	rates map[string]Rate
}

// NewMemoryRepository builds an in-memory rate store seeded with rates.
func NewMemoryRepository(seed ...Rate) Repository {
	r := &memoryRepository{rates: make(map[string]Rate)}
	for _, rate := range seed {
		r.rates[strings.ToLower(rate.CountryName)] = rate
	}
	return r
}

func (r *memoryRepository) Get(_ context.Context, country string) (Rate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rate, ok := r.rates[strings.ToLower(country)]
	if !ok {
		return Rate{}, ErrNotFound
	}
	return rate, nil
}

func (r *memoryRepository) Upsert(_ context.Context, rate Rate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rates[strings.ToLower(rate.CountryName)] = rate
	return nil
}

func (r *memoryRepository) List(_ context.Context) ([]Rate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Rate, 0, len(r.rates))
	for _, rate := range r.rates {
		out = append(out, rate)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CountryName < out[j].CountryName })
	return out, nil
}
