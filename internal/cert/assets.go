package cert

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Assets holds the raw certificate resources.
type Assets struct {
	Template []byte
	Font     []byte
}

// LoadAssets fetches the template image and the font. The two loads are
// independent and run concurrently; rendering needs both, so the first
// failure cancels the other and fails the whole load.
func LoadAssets(ctx context.Context, templateRef, fontRef string) (Assets, error) {
	var a Assets
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := loadAsset(ctx, templateRef)
		if err != nil {
			return fmt.Errorf("certificate template: %w", err)
		}
		a.Template = b
		return nil
	})
	g.Go(func() error {
		b, err := loadAsset(ctx, fontRef)
		if err != nil {
			return fmt.Errorf("certificate font: %w", err)
		}
		a.Font = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return Assets{}, err
	}
	return a, nil
}

// loadAsset reads a local path or fetches an http(s) URL.
func loadAsset(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		client := &http.Client{Timeout: 15 * time.Second}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, err
		}
		res, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
		}
		return io.ReadAll(res.Body)
	}
	return os.ReadFile(ref)
}
