package interfaces

import (
	"context"

	"github.com/arrowarc/volumes2arrow/internal/integrations/docker"
)

// VolumeLister is the daemon side of the pipeline.
type VolumeLister interface {
	ListVolumes(ctx context.Context, opts *docker.ListVolumesOptions) ([]docker.Volume, error)
}
