package artifact

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/highwayhash"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"vacpac/internal/manifest"
)

// 32-byte key required by highwayhash; digests only need to be stable, not
// secret.
var key = []byte("vacpac-manifest-digest-key-00032")

// Digest returns the 64-bit highwayhash of data.
func Digest(data []byte) (uint64, error) {
	hash, err := highwayhash.New64(key)
	if err != nil {
		return 0, err
	}
	_, err = hash.Write(data)
	return hash.Sum64(), err
}

// WriteManifest stores m at location. The write is skipped when the existing
// file already has the same content, so watchers and bundlers are not
// retriggered; changed reports whether anything was written.
func WriteManifest(ctx context.Context, fs afs.Service, location string, m *manifest.Manifest) (changed bool, err error) {
	data, err := m.JSON()
	if err != nil {
		return false, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return WriteIfChanged(ctx, fs, location, data)
}

// WriteIfChanged uploads data unless location already holds identical bytes.
func WriteIfChanged(ctx context.Context, fs afs.Service, location string, data []byte) (bool, error) {
	exists, err := fs.Exists(ctx, location)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", location, err)
	}
	if exists {
		current, err := fs.DownloadWithURL(ctx, location)
		if err != nil {
			return false, fmt.Errorf("failed to read %s: %w", location, err)
		}
		same, err := sameDigest(current, data)
		if err != nil {
			return false, err
		}
		if same {
			return false, nil
		}
	}
	if err := fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", location, err)
	}
	return true, nil
}

func sameDigest(a, b []byte) (bool, error) {
	if len(a) != len(b) {
		return false, nil
	}
	da, err := Digest(a)
	if err != nil {
		return false, err
	}
	db, err := Digest(b)
	if err != nil {
		return false, err
	}
	return da == db, nil
}
