// Package service implements document dispatch: requested URIs are
// classified and fanned out into leaf item commands
package service

import (
	"context"

	"sportsource/internal/adapters/provider/espn"
	"sportsource/internal/core/resource"
	"sportsource/internal/eventing"
	"sportsource/internal/platform/config"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/platform/logger"
	"sportsource/internal/services/documents/domain"
)

const defaultMaxPages = 500

// Config holds dispatch tuning
type Config struct {
	// MaxPages caps a single index crawl; <=0 falls back to the default
	MaxPages int
}

// FromConfig reads CORE_DISPATCH_* settings
func FromConfig(cfg config.Conf) Config {
	d := cfg.Prefix("CORE_DISPATCH_")
	return Config{MaxPages: d.MayInt("MAX_PAGES", defaultMaxPages)}
}

// Service dispatches requested documents into leaf item commands
type Service struct {
	Classifier resource.Classifier
	Fetch      domain.Fetcher
	Items      domain.ItemSink
	Books      domain.Bookkeeper // optional crawl progress sink
	Cfg        Config
	Log        *logger.Logger
}

// New constructs the dispatch service
func New(f domain.Fetcher, items domain.ItemSink, cfg Config) *Service {
	if f == nil {
		panic("documents.Service requires a non nil Fetcher")
	}
	if items == nil {
		panic("documents.Service requires a non nil ItemSink")
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	return &Service{
		Classifier: resource.NewClassifier(),
		Fetch:      f,
		Items:      items,
		Cfg:        cfg,
		Log:        logger.Named("documents"),
	}
}

// WithBookkeeper wires an optional crawl progress sink
func (s *Service) WithBookkeeper(b domain.Bookkeeper) *Service {
	s.Books = b
	return s
}

// HandleRequested classifies the requested URI. A leaf becomes exactly one
// item command with the cache bypassed; an index is crawled page by page.
func (s *Service) HandleRequested(ctx context.Context, req eventing.DocumentRequested) (domain.DispatchResult, error) {
	if req.URI == "" {
		return domain.DispatchResult{}, perr.New(perr.ErrorCodeInvalidArgument, "document request missing uri")
	}
	shape := s.Classifier.Classify(req.URI)
	if shape == resource.ShapeLeaf {
		cmd := itemCommand(req, req.URI)
		// a directly requested leaf is always sourced live; the request
		// itself is evidence the cached copy is suspect
		cmd.BypassCache = true
		if err := s.Items.EnqueueItem(ctx, cmd); err != nil {
			return domain.DispatchResult{}, err
		}
		return domain.DispatchResult{Shape: shape.String(), Items: 1}, nil
	}
	return s.crawl(ctx, req)
}

// crawl walks a paginated collection. Index pages always bypass the cache:
// a stale index silently hides new leaf resources.
func (s *Service) crawl(ctx context.Context, req eventing.DocumentRequested) (domain.DispatchResult, error) {
	res := domain.DispatchResult{Shape: resource.ShapeIndex.String()}
	visited := make(map[string]struct{})
	enqueued := make(map[string]struct{})
	uri := req.URI
	completed := false

	for res.Pages < s.Cfg.MaxPages {
		key := resource.Identity(uri, false)
		if _, ok := visited[key]; ok {
			s.log(req).Warn().Str("uri", uri).Msg("crawl revisited a page, stopping")
			break
		}
		visited[key] = struct{}{}

		body, found, err := s.Fetch.Fetch(ctx, uri, true)
		if err != nil {
			return res, perr.Wrapf(err, perr.ErrorCodeUnavailable, "crawl fetch %s", uri)
		}
		if !found {
			s.log(req).Warn().Str("uri", uri).Msg("index page absent, aborting crawl")
			break
		}
		page, err := espn.ParseIndex(body)
		if err != nil {
			return res, err
		}
		if len(page.Items) == 0 {
			s.log(req).Warn().Str("uri", uri).Int("page_index", page.PageIndex).Msg("empty index page, aborting crawl")
			break
		}

		added := 0
		for _, it := range page.Items {
			if it.Ref == "" {
				continue
			}
			cmd := itemCommand(req, it.Ref)
			if _, ok := enqueued[cmd.ID]; ok {
				continue
			}
			if err := s.Items.EnqueueItem(ctx, cmd); err != nil {
				return res, err
			}
			enqueued[cmd.ID] = struct{}{}
			added++
		}
		res.Pages++
		res.Items += added

		if err := s.recordPage(ctx, req, page, added); err != nil {
			return res, err
		}
		if page.PageIndex >= page.PageCount {
			completed = true
			break
		}
		next, err := resource.NextPage(uri, page.PageIndex+1, page.PageSize)
		if err != nil {
			return res, err
		}
		uri = next
	}

	// an aborted crawl (absent page, cycle, page cap) keeps its last
	// completion stamp so the gap stays visible in the bookkeeping row
	if completed {
		if err := s.markCompleted(ctx, req); err != nil {
			return res, err
		}
	}
	s.log(req).Info().
		Str("uri", req.URI).
		Int("pages", res.Pages).
		Int("items", res.Items).
		Msg("index crawl finished")
	return res, nil
}

func (s *Service) recordPage(ctx context.Context, req eventing.DocumentRequested, page espn.IndexPage, items int) error {
	if s.Books == nil || req.ResourceIndexJobID == "" {
		return nil
	}
	return s.Books.RecordPage(ctx, req.ResourceIndexJobID, page.PageIndex, page.PageCount, items)
}

func (s *Service) markCompleted(ctx context.Context, req eventing.DocumentRequested) error {
	if s.Books == nil || req.ResourceIndexJobID == "" {
		return nil
	}
	return s.Books.MarkCompleted(ctx, req.ResourceIndexJobID)
}

func (s *Service) log(req eventing.DocumentRequested) *logger.Logger {
	lg := s.Log
	if lg == nil {
		lg = logger.Named("documents")
	}
	l := lg.With().Str("correlation_id", req.CorrelationID).Logger()
	return &l
}

// itemCommand keys the leaf by the hash of its querystring-stripped URI, so
// the same resource reached with different paging params stays one item
func itemCommand(req eventing.DocumentRequested, uri string) eventing.ProcessResourceIndexItemCommand {
	return eventing.ProcessResourceIndexItemCommand{
		CorrelationID: req.CorrelationID,
		ID:            resource.Hash(uri, true),
		URI:           uri,
		Provider:      req.Provider,
		Sport:         req.Sport,
		DocumentType:  req.DocumentType,
		ParentID:      req.ParentID,
		SeasonYear:    req.SeasonYear,
		BypassCache:   req.BypassCache,
	}
}
