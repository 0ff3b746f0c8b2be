package options

import (
	"github.com/urfave/cli/v3"
)

// StorageFlagCategory is the category of the storage flags.
const StorageFlagCategory = "[Storage]"

// NewStorageOptions returns a new *StorageOptions with default values.
func NewStorageOptions() *StorageOptions {
	return &StorageOptions{
		Root: "registry",
	}
}

// StorageOptions defines the options for the content store.
type StorageOptions struct {
	// Root is the directory blobs, chunks and manifests are stored under.
	Root string

	// DockerSocket is the container runtime socket URL. Recognized for
	// compatibility with existing deployments; the registry core does not
	// use it.
	DockerSocket string
}

// Flags returns the []cli.Flag related to current options.
func (o *StorageOptions) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-root",
			Usage:       "root directory of the content store",
			Sources:     cli.EnvVars("WHARFD_STORAGE_ROOT"),
			Value:       o.Root,
			Destination: &o.Root,
			Category:    StorageFlagCategory,
		},
		&cli.StringFlag{
			Name:        "docker-socket",
			Usage:       "container runtime socket URL (unused by the registry core)",
			Sources:     cli.EnvVars("WHARFD_DOCKER_SOCKET"),
			Value:       o.DockerSocket,
			Destination: &o.DockerSocket,
			Category:    StorageFlagCategory,
		},
	}
}
