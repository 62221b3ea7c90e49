// Package snapshot embeds a last-known-good set of registry documents into
// the binary. It is the final fallback tier before a typed error: the
// resolver serves these documents only when the live fetch failed and the
// cache holds nothing for the key.
//
// Documents are keyed identically to the remote store (manifest.json,
// {category}/{id}.json), so the set can be handed straight to
// registry.Config.FallbackSnapshot.
package snapshot

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed data
var dataFS embed.FS

// Documents returns the embedded document set keyed by storage key.
func Documents() (map[string][]byte, error) {
	docs := make(map[string][]byte)
	err := fs.WalkDir(dataFS, "data", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		raw, err := dataFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading embedded document %s: %w", path, err)
		}
		// Strip the "data/" prefix so keys match the remote store layout.
		docs[path[len("data/"):]] = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
