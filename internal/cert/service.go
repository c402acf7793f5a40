package cert

import (
	"context"
	"sync"
)

// Service lazily loads the certificate assets and caches the renderer.
// A failed load is not cached: the next request retries, so a transient
// asset failure only kills that one render.
type Service struct {
	mu          sync.Mutex
	templateRef string
	fontRef     string
	renderer    *Renderer
}

func NewService(templateRef, fontRef string) *Service {
	return &Service{templateRef: templateRef, fontRef: fontRef}
}

func (s *Service) Renderer(ctx context.Context) (*Renderer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.renderer != nil {
		return s.renderer, nil
	}
	a, err := LoadAssets(ctx, s.templateRef, s.fontRef)
	if err != nil {
		return nil, err
	}
	r, err := NewRenderer(a.Template, a.Font)
	if err != nil {
		return nil, err
	}
	s.renderer = r
	return r, nil
}
