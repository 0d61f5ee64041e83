package streetview

import (
	"context"
	"os"
	"strconv"

	"exposure-scout/internal/geosample"
)

// RemoteAcquirer serves viewpoint imagery from the static image API, caching
// nothing itself. It satisfies the session acquirer contract.
type RemoteAcquirer struct {
	Client *Client
}

// Available checks image coverage at the building coordinate.
func (a *RemoteAcquirer) Available(ctx context.Context, b geosample.Building) (bool, error) {
	return a.Client.Available(ctx, b.Coordinate())
}

// Fetch downloads the viewpoint image for one heading.
func (a *RemoteAcquirer) Fetch(ctx context.Context, b geosample.Building, viewIndex int, heading float64) ([]byte, error) {
	return a.Client.Fetch(ctx, b.Coordinate(), heading)
}

// Reference returns the direct image URL when coverage exists, otherwise a
// maps deeplink the operator can open to inspect the site manually.
func (a *RemoteAcquirer) Reference(b geosample.Building, viewIndex int, heading float64, available bool) string {
	if available {
		return a.Client.ImageURL(b.Coordinate(), heading)
	}
	return MapsDeeplink(b.Coordinate(), heading)
}

// LocalAcquirer serves imagery from a user-supplied folder of photographs.
// Each view reads the building's own image row for that view index.
type LocalAcquirer struct {
	Store *LocalStore
}

// Available reports whether the building's first photograph exists.
func (a *LocalAcquirer) Available(ctx context.Context, b geosample.Building) (bool, error) {
	_, err := os.Stat(a.Store.SourcePath(b.ID, 0))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Fetch reads the view's source photograph. The heading is ignored for
// local imagery.
func (a *LocalAcquirer) Fetch(ctx context.Context, b geosample.Building, viewIndex int, heading float64) ([]byte, error) {
	return a.Store.Load(b.ID, viewIndex)
}

// Reference names the view's source file stem for the ledger.
func (a *LocalAcquirer) Reference(b geosample.Building, viewIndex int, heading float64, available bool) string {
	return strconv.Itoa(a.Store.ImageID(b.ID, viewIndex))
}
