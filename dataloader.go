package main

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/ridecircle/backend/commuter"
)

// DataLoaderContextKey is the key used to store dataloaders in context
type DataLoaderContextKey string

const dataLoaderKey DataLoaderContextKey = "dataloader"

// DataLoaders holds the per-request loaders
type DataLoaders struct {
	ProfileLoader *dataloader.Loader[string, *commuter.Profile]
}

// NewDataLoaders creates loaders reading from the directory
func NewDataLoaders(dir commuter.Directory) *DataLoaders {
	return &DataLoaders{
		ProfileLoader: dataloader.NewBatchedLoader(profileBatchFn(dir), dataloader.WithWait[string, *commuter.Profile](16*time.Millisecond)),
	}
}

// GetDataLoadersFromContext retrieves dataloaders from context
func GetDataLoadersFromContext(ctx context.Context) *DataLoaders {
	if dl, ok := ctx.Value(dataLoaderKey).(*DataLoaders); ok {
		return dl
	}
	return nil
}

// WithDataLoaders adds dataloaders to context
func WithDataLoaders(ctx context.Context, dl *DataLoaders) context.Context {
	return context.WithValue(ctx, dataLoaderKey, dl)
}

// profileBatchFn loads a batch of profiles with one directory call.
// Unknown ids resolve to commuter.ErrNotFound.
func profileBatchFn(dir commuter.Directory) dataloader.BatchFunc[string, *commuter.Profile] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[*commuter.Profile] {
		results := make([]*dataloader.Result[*commuter.Profile], len(keys))

		profiles, err := dir.GetMany(ctx, keys)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result[*commuter.Profile]{Error: err}
			}
			return results
		}

		for i, p := range profiles {
			if p == nil {
				results[i] = &dataloader.Result[*commuter.Profile]{Error: commuter.ErrNotFound}
				continue
			}
			results[i] = &dataloader.Result[*commuter.Profile]{Data: p}
		}
		return results
	}
}

// loadProfile goes through the request's loader when there is one.
func loadProfile(ctx context.Context, dir commuter.Directory, id string) (commuter.Profile, error) {
	if dl := GetDataLoadersFromContext(ctx); dl != nil {
		p, err := dl.ProfileLoader.Load(ctx, id)()
		if err != nil {
			return commuter.Profile{}, err
		}
		return *p, nil
	}
	return dir.Get(ctx, id)
}
