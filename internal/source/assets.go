package source

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/starford/showcase/internal/apperr"
)

// ImageFolders are the repository directories searched for screenshots.
var ImageFolders = []string{"screenshots", "images", "public/images", "public/screenshots", "docs/images", "assets"}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".svg": true,
}

// IsImage reports whether name has an image extension.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// FindImages collects image assets of project id from every image folder.
// Missing folders are skipped.
func FindImages(ctx context.Context, lister AssetLister, id string) ([]Asset, error) {
	var out []Asset
	for _, dir := range ImageFolders {
		assets, err := lister.ListAssets(ctx, id, dir)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, a := range assets {
			if IsImage(a.Name) {
				out = append(out, a)
			}
		}
	}
	return out, nil
}
