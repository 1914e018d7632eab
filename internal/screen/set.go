package screen

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/entity"
	"github.com/granme/caprisystem/pkg/types"
)

// Set holds one screen per collection and resolves references between
// them.
type Set struct {
	screens map[string]Screen
	log     *zap.SugaredLogger
}

// New builds the screens of every collection over c.
func New(c *apiclient.Client, opts Options) *Set {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	s := &Set{screens: make(map[string]Screen), log: opts.Logger}
	s.add(bind(entity.Goats(), c, s, opts))
	s.add(bind(entity.Staff(), c, s, opts))
	s.add(bind(entity.Sales(), c, s, opts))
	s.add(bind(entity.Suppliers(), c, s, opts))
	s.add(bind(entity.Products(), c, s, opts))
	s.add(bind(entity.ProductOutputs(), c, s, opts))
	s.add(bind(entity.Vaccines(), c, s, opts))
	s.add(bind(entity.Users(), c, s, opts))
	return s
}

func (s *Set) add(sc Screen) { s.screens[sc.Name()] = sc }

// Names lists the collections in menu order.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.screens))
	for _, n := range types.StandardResourceNames {
		if _, ok := s.screens[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Get returns the screen of resource.
func (s *Set) Get(resource string) (Screen, error) {
	sc, ok := s.screens[resource]
	if !ok {
		return nil, fmt.Errorf("%q: %w", resource, types.ErrUnknownResource)
	}
	return sc, nil
}

// Label implements entity.Relations over the loaded screens.
func (s *Set) Label(resource string, id int64) (string, bool) {
	sc, ok := s.screens[resource]
	if !ok {
		return "", false
	}
	return sc.Label(id)
}

// LoadAll loads the named collections in parallel and returns the first
// failure. Remaining loads are cancelled once one fails.
func (s *Set) LoadAll(ctx context.Context, resources ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range resources {
		sc, err := s.Get(r)
		if err != nil {
			return err
		}
		g.Go(func() error { return sc.Load(ctx) })
	}
	return g.Wait()
}

// Open loads resource together with the collections its columns refer to.
// Lookups load in parallel with the main collection; a failed lookup only
// leaves raw IDs in the table.
func (s *Set) Open(ctx context.Context, resource string) (Screen, error) {
	sc, err := s.Get(resource)
	if err != nil {
		return nil, err
	}
	var g errgroup.Group
	g.Go(func() error { return sc.Load(ctx) })
	for _, name := range sc.Related() {
		if name == resource {
			continue
		}
		rel, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			if err := rel.Load(ctx); err != nil {
				s.log.Warnw("lookup collection not loaded", "collection", name, "for", resource, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Close closes every screen. Loads still in flight are discarded.
func (s *Set) Close() {
	for _, sc := range s.screens {
		sc.Close()
	}
}
