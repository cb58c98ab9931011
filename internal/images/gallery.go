package images

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kmetijamarosa/storefront/internal/cache"
)

const (
	MaxGalleryImages   = 6
	DefaultGalleryTTL  = time.Hour
	galleryConcurrency = 4
)

// Gallery is the resolved image set for one product page.
type Gallery struct {
	MainImageURL          string   `json:"mainImageUrl"`
	ValidAdditionalImages []string `json:"validAdditionalImages"`
}

// ProcessProductImages resolves and validates a product's images. Additional images are deduplicated,
// checked concurrently and capped; the result is cached per product and main image.
func (v *Validator) ProcessProductImages(ctx context.Context, productID int64, mainImage string, additional []string) Gallery {
	key := cache.GalleryKey(productID, mainImage)
	if cached, ok := v.cachedGallery(ctx, key); ok {
		return cached
	}

	mainURL := v.resolver.Resolve(mainImage, "")
	seen := map[string]struct{}{mainURL: {}}
	candidates := make([]string, 0, len(additional))
	for _, raw := range additional {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		resolved := v.resolver.Resolve(raw, "")
		if v.resolver.IsPlaceholder(resolved) {
			continue
		}
		if _, dup := seen[resolved]; dup {
			continue
		}
		seen[resolved] = struct{}{}
		candidates = append(candidates, resolved)
	}

	results := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(galleryConcurrency)
	for i, candidate := range candidates {
		g.Go(func() error {
			results[i] = v.Validate(gctx, candidate)
			return nil
		})
	}
	_ = g.Wait()

	gallery := Gallery{MainImageURL: mainURL, ValidAdditionalImages: []string{}}
	for i, candidate := range candidates {
		if !results[i] {
			continue
		}
		gallery.ValidAdditionalImages = append(gallery.ValidAdditionalImages, candidate)
		if len(gallery.ValidAdditionalImages) == MaxGalleryImages {
			break
		}
	}

	v.storeGallery(ctx, key, gallery)
	return gallery
}

// InvalidateGallery drops the cached gallery of a product for the given main image.
func (v *Validator) InvalidateGallery(ctx context.Context, productID int64, mainImage string) {
	if v.cache == nil {
		return
	}
	if err := v.cache.Delete(ctx, cache.GalleryKey(productID, mainImage)); err != nil {
		v.logger.Debug("gallery cache purge failed", "error", err)
	}
}

func (v *Validator) cachedGallery(ctx context.Context, key string) (Gallery, bool) {
	if v.cache == nil {
		return Gallery{}, false
	}
	raw, err := v.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			v.logger.Debug("gallery cache lookup failed", "error", err)
		}
		return Gallery{}, false
	}
	var gallery Gallery
	if err := json.Unmarshal([]byte(raw), &gallery); err != nil {
		return Gallery{}, false
	}
	return gallery, true
}

func (v *Validator) storeGallery(ctx context.Context, key string, gallery Gallery) {
	if v.cache == nil {
		return
	}
	if len(gallery.ValidAdditionalImages) == 0 {
		if err := v.cache.Delete(ctx, key); err != nil {
			v.logger.Debug("gallery cache purge failed", "error", err)
		}
		return
	}
	payload, err := json.Marshal(gallery)
	if err != nil {
		return
	}
	if err := v.cache.Set(ctx, key, string(payload), DefaultGalleryTTL); err != nil {
		v.logger.Debug("gallery cache store failed", "error", err)
	}
}
