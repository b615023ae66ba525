package app

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"

	"imagematch/domain"
	"imagematch/pkg/events"
)

var errStoreDown = errors.New("store unavailable")

// memoryRepository keeps images in insertion order. failAfterUpdates makes
// the store fail once that many updates have succeeded (-1 disables it).
type memoryRepository struct {
	mu               sync.Mutex
	images           []domain.Image
	nextID           int64
	updates          int
	failAfterUpdates int
	failReads        bool
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{nextID: 1, failAfterUpdates: -1}
}

func (r *memoryRepository) Close() error { return nil }

func (r *memoryRepository) Ping(ctx context.Context) error {
	if r.failReads {
		return errStoreDown
	}
	return nil
}

func (r *memoryRepository) CreateImage(ctx context.Context, zillowID, url string) (domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	img := domain.Image{ID: r.nextID, ZillowID: zillowID, URL: url}
	r.nextID++
	r.images = append(r.images, img)
	return img, nil
}

func (r *memoryRepository) GetImage(ctx context.Context, id int64) (domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failReads {
		return domain.Image{}, errStoreDown
	}
	for _, img := range r.images {
		if img.ID == id {
			return img, nil
		}
	}
	return domain.Image{}, sql.ErrNoRows
}

func (r *memoryRepository) GetUnlabeledImages(ctx context.Context, limit int) ([]domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failReads {
		return nil, errStoreDown
	}
	out := make([]domain.Image, 0, limit)
	for _, img := range r.images {
		if len(out) == limit {
			break
		}
		if img.Category == nil {
			out = append(out, img)
		}
	}
	return out, nil
}

func (r *memoryRepository) UpdateImageCategory(ctx context.Context, id int64, category domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failAfterUpdates >= 0 && r.updates >= r.failAfterUpdates {
		return errStoreDown
	}
	for i := range r.images {
		if r.images[i].ID == id {
			c := category
			r.images[i].Category = &c
			r.updates++
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *memoryRepository) EachLabeledImage(ctx context.Context, fn func(domain.Image) error) error {
	r.mu.Lock()
	snapshot := append([]domain.Image(nil), r.images...)
	r.mu.Unlock()

	for _, img := range snapshot {
		if img.Category == nil {
			continue
		}
		if err := fn(img); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryRepository) CountUnlabeledImages(ctx context.Context) (int, error) {
	if r.failReads {
		return 0, errStoreDown
	}
	n := 0
	for _, img := range r.images {
		if img.Category == nil {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepository) CountImagesByCategory(ctx context.Context) ([]domain.CategoryCount, error) {
	if r.failReads {
		return nil, errStoreDown
	}
	counts := map[domain.Category]int{}
	for _, img := range r.images {
		if img.Category != nil {
			counts[*img.Category]++
		}
	}
	out := make([]domain.CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, domain.CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (r *memoryRepository) image(id int64) domain.Image {
	img, _ := r.GetImage(context.Background(), id)
	return img
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []*events.Event
	exchanges []string
	err       error
}

func (p *recordingPublisher) Publish(ctx context.Context, exchange string, event *events.Event, headers events.Headers) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	p.exchanges = append(p.exchanges, exchange)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }
