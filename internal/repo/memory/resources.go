package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/amnii/internal/domain/resource"
)

type ResourcesRepo struct {
	mu    sync.RWMutex
	items map[resource.Kind]map[string]resource.Resource
}

func NewResourcesRepo() *ResourcesRepo {
	items := make(map[resource.Kind]map[string]resource.Resource, len(resource.Kinds))
	for _, k := range resource.Kinds {
		items[k] = make(map[string]resource.Resource)
	}
	return &ResourcesRepo{items: items}
}

func (r *ResourcesRepo) Create(_ context.Context, kind resource.Kind, in resource.Input) (resource.Resource, error) {
	res := resource.New(kind, in)

	r.mu.Lock()
	r.items[kind][res.ID] = res
	r.mu.Unlock()

	return res, nil
}

func (r *ResourcesRepo) GetByID(_ context.Context, kind resource.Kind, id string) (resource.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.items[kind][id]
	if !ok {
		return resource.Resource{}, resource.ErrNotFound
	}
	return res, nil
}

// List returns up to f.Limit rows after the (AfterName, AfterID) keyset and
// whether more rows follow.
func (r *ResourcesRepo) List(_ context.Context, kind resource.Kind, f resource.ListFilter) ([]resource.Resource, bool, error) {
	r.mu.RLock()
	all := make([]resource.Resource, 0, len(r.items[kind]))
	for _, res := range r.items[kind] {
		all = append(all, res)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})

	out := make([]resource.Resource, 0, f.Limit)
	hasMore := false
	for _, res := range all {
		if f.AfterID != "" && (res.Name < f.AfterName || (res.Name == f.AfterName && res.ID <= f.AfterID)) {
			continue
		}
		if len(out) == f.Limit {
			hasMore = true
			break
		}
		out = append(out, res)
	}

	return out, hasMore, nil
}

func (r *ResourcesRepo) Update(_ context.Context, kind resource.Kind, id string, in resource.Input) (resource.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.items[kind][id]
	if !ok {
		return resource.Resource{}, resource.ErrNotFound
	}
	res.Name = in.Name
	res.UpdatedAt = time.Now().UTC()
	r.items[kind][id] = res

	return res, nil
}

func (r *ResourcesRepo) Delete(_ context.Context, kind resource.Kind, id string) (resource.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.items[kind][id]
	if !ok {
		return resource.Resource{}, resource.ErrNotFound
	}
	delete(r.items[kind], id)

	return res, nil
}
