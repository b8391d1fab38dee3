package client

import (
	"context"
	"net/http"

	"github.com/datalayer/datalayer-go/pkg/dlyerr"
)

// SnapshotsService wraps the runtime snapshot endpoints.
type SnapshotsService struct {
	client *Client
}

// SnapshotSpec describes a snapshot to create from a running runtime.
type SnapshotSpec struct {
	// PodName identifies the runtime to snapshot.
	PodName     string `json:"pod_name"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	// Stop terminates the runtime once the snapshot is taken.
	Stop bool `json:"stop"`
}

// List returns the caller's snapshots.
func (s *SnapshotsService) List(ctx context.Context) ([]Snapshot, error) {
	var resp snapshotsResponse
	if err := s.client.do(ctx, http.MethodGet, s.client.runtimesPath("runtime-snapshots"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Snapshots, nil
}

// Get returns a snapshot by UID.
func (s *SnapshotsService) Get(ctx context.Context, uid string) (*Snapshot, error) {
	if uid == "" {
		return nil, dlyerr.NewInvalidArgumentError("snapshot uid is required", nil)
	}

	var resp snapshotResponse
	if err := s.client.do(ctx, http.MethodGet, s.client.runtimesPath("runtime-snapshots", uid), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Snapshot == nil {
		return nil, notFoundf("snapshot %q not found", uid)
	}
	return resp.Snapshot, nil
}

// Create snapshots a running runtime.
func (s *SnapshotsService) Create(ctx context.Context, spec SnapshotSpec) (*Snapshot, error) {
	if spec.PodName == "" {
		return nil, dlyerr.NewInvalidArgumentError("pod name is required", nil)
	}

	var resp snapshotResponse
	if err := s.client.do(ctx, http.MethodPost, s.client.runtimesPath("runtime-snapshots"), spec, &resp); err != nil {
		return nil, err
	}
	if resp.Snapshot == nil {
		return nil, dlyerr.NewAPIError("create snapshot response is missing the snapshot", nil)
	}
	return resp.Snapshot, nil
}

// Delete removes a snapshot.
func (s *SnapshotsService) Delete(ctx context.Context, uid string) error {
	if uid == "" {
		return dlyerr.NewInvalidArgumentError("snapshot uid is required", nil)
	}
	return s.client.do(ctx, http.MethodDelete, s.client.runtimesPath("runtime-snapshots", uid), nil, nil)
}

// Restore creates a new runtime from a snapshot. The snapshot's environment
// is used unless spec overrides it.
func (s *SnapshotsService) Restore(ctx context.Context, uid string, spec RuntimeSpec) (*Runtime, error) {
	if uid == "" {
		return nil, dlyerr.NewInvalidArgumentError("snapshot uid is required", nil)
	}

	if spec.EnvironmentName == "" {
		snapshot, err := s.Get(ctx, uid)
		if err != nil {
			return nil, err
		}
		spec.EnvironmentName = snapshot.Environment
	}
	spec.FromSnapshot = "snapshot:" + uid

	return s.client.Runtimes.Create(ctx, spec)
}
