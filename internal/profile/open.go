package profile

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/store"
)

// OpenStore opens the profile's own stack store. Remote profiles fail with
// ErrStoreUnavailable: reaching a remote store is an external interface and
// no client is wired into this process.
func (p *Profile) OpenStore() (store.Store, error) {
	switch p.StoreType {
	case StoreTypeLocal:
		return store.NewFileStore(p.StoreURL)
	case StoreTypeRemote:
		return nil, fmt.Errorf("%w: remote store %s requires a remote client", store.ErrStoreUnavailable, p.StoreURL)
	default:
		return nil, fmt.Errorf("%w: unknown store type %q", store.ErrStoreUnavailable, p.StoreType)
	}
}
