package player

import "context"

// Page is the normalized catalog. Skipped counts players dropped for a missing id.
type Page struct {
	Players []Player
	Skipped int
}

// Catalog fetches the public competition catalog. No league context is required.
type Catalog interface {
	FetchCatalog(ctx context.Context) (Page, error)
}
