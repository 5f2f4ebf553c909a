// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator coordinates federated archive searches: it fans a
// query out to every configured source under a per-source batching policy,
// merges and deduplicates the normalized results, reports progress after
// every batch, and caches completed result sets. Fast sources answer one
// immediate capped page so the first results arrive quickly; slow sources
// are drained in sequential batches sized from their own reported totals.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/curio/internal/cache"
	"github.com/pdiddy/curio/internal/source"
	"github.com/pdiddy/curio/pkg/types"
)

// Orchestrator owns search sessions and their supersession. One logical
// caller drives it; sessions for the same identity replace each other.
type Orchestrator struct {
	sources  []source.Repository
	store    *cache.Store
	cfg      types.SearchConfig
	reporter Reporter
	log      logrus.FieldLogger

	mu     sync.Mutex
	active map[string]*Session
}

// New builds an orchestrator over the given repositories. store may be nil
// to run uncached; reporter may be nil when only channel subscribers are
// interested.
func New(sources []source.Repository, store *cache.Store, cfg types.SearchConfig, reporter Reporter, log logrus.FieldLogger) *Orchestrator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{
		sources:  sources,
		store:    store,
		cfg:      cfg,
		reporter: reporter,
		log:      log,
		active:   make(map[string]*Session),
	}
}

// Search starts a session for query under the given session identity. Any
// in-flight session for the same identity is superseded first: its
// repository calls are canceled and its partial results dropped. The
// returned session is live; subscribe to it or poll Items until Done.
//
// A fresh cache entry for the normalized query completes the session
// immediately with no network access.
func (o *Orchestrator) Search(ctx context.Context, sessionID, query string) (*Session, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if len(o.sources) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}

	sctx, cancel := context.WithCancel(ctx)
	sess := newSession(uuid.NewString(), query, cancel, o.reporter)

	o.mu.Lock()
	if prev := o.active[sessionID]; prev != nil {
		prev.supersede()
	}
	o.active[sessionID] = sess
	o.mu.Unlock()

	key := searchKey(query)
	var cached Result
	if o.store != nil && o.store.Get(sctx, key, &cached) {
		sess.completeFromCache(cached)
		cancel()
		return sess, nil
	}

	sess.dispatch()

	var wg sync.WaitGroup
	for _, repo := range o.sources {
		wg.Add(1)
		go func(repo source.Repository) {
			defer wg.Done()
			switch repo.Tier() {
			case source.TierFast:
				o.fetchFast(sctx, sess, repo)
			default:
				o.fetchSlow(sctx, sess, repo)
			}
		}(repo)
	}

	go func() {
		wg.Wait()
		res, ok := sess.finish()
		if ok && o.store != nil {
			if err := o.store.Set(context.WithoutCancel(sctx), key, res, 0); err != nil {
				o.log.WithError(err).Warn("caching search result failed")
			}
		}
		cancel()
	}()

	return sess, nil
}

// ClearSearch cancels the in-flight session for the given identity, if any.
func (o *Orchestrator) ClearSearch(sessionID string) {
	o.mu.Lock()
	sess := o.active[sessionID]
	delete(o.active, sessionID)
	o.mu.Unlock()

	if sess != nil {
		sess.supersede()
	}
}

// FetchItemDetails loads one record: cache first, then the source, then
// back into the cache. The record passes the same normalization and
// renderability rules as search results.
func (o *Orchestrator) FetchItemDetails(ctx context.Context, sourceName, id string) (*types.Item, error) {
	key := recordKey(sourceName, id)
	if o.store != nil {
		var cached types.Item
		if o.store.Get(ctx, key, &cached) {
			return &cached, nil
		}
	}

	repo := o.repository(sourceName)
	if repo == nil {
		return nil, fmt.Errorf("unknown source %q", sourceName)
	}

	item, err := repo.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.store != nil {
		if err := o.store.Set(ctx, key, item, 0); err != nil {
			o.log.WithError(err).Warn("caching item record failed")
		}
	}
	return item, nil
}

func (o *Orchestrator) repository(name string) source.Repository {
	for _, r := range o.sources {
		if r.Name() == name {
			return r
		}
	}
	return nil
}

// fetchFast issues the one immediate capped page a fast source gets.
func (o *Orchestrator) fetchFast(ctx context.Context, sess *Session, repo source.Repository) {
	limit := o.cfg.FastPageSize
	if limit <= 0 {
		limit = 12
	}

	batch, err := o.searchOnce(ctx, repo, sess.Query(), source.Page{Limit: limit})
	if err != nil {
		if source.IsCancellation(err) {
			return
		}
		o.log.WithError(err).WithField("source", repo.Name()).Debug("fast source failed")
		sess.warn(sess.Token(), fmt.Sprintf("results unavailable: %s is unreachable", repo.Name()))
		return
	}
	sess.merge(sess.Token(), repo.Name(), batch.Items, batch.Total)
}

// fetchSlow drains a slow source in sequential batches. The first batch
// uses the policy's upper-bound size; once the source reports its total,
// the remaining budget is spread over the remaining batches. Progress is
// reported after every batch, so partial results reach the caller while
// later batches are still in flight.
func (o *Orchestrator) fetchSlow(ctx context.Context, sess *Session, repo source.Repository) {
	maxItems := o.cfg.MaxItemsPerSource
	if maxItems <= 0 {
		maxItems = 200
	}
	maxBatches := o.cfg.MaxBatches
	if maxBatches <= 0 {
		maxBatches = 4
	}

	limit := maxItems
	size := o.cfg.BatchSize(maxItems)
	offset := 0

	for n := 0; n < maxBatches && offset < limit; n++ {
		if size > limit-offset {
			size = limit - offset
		}

		batch, err := o.searchOnce(ctx, repo, sess.Query(), source.Page{Limit: size, Offset: offset})
		if err != nil {
			if source.IsCancellation(err) {
				return
			}
			o.log.WithError(err).WithField("source", repo.Name()).Debug("slow source failed")
			if n == 0 {
				sess.warn(sess.Token(), fmt.Sprintf("results unavailable: %s is unreachable", repo.Name()))
			} else {
				sess.warn(sess.Token(), fmt.Sprintf("%s results incomplete", repo.Name()))
			}
			return
		}

		if !sess.merge(sess.Token(), repo.Name(), batch.Items, batch.Total) {
			return
		}

		if batch.Total < limit {
			limit = batch.Total
		}
		offset += size
		if n == 0 && maxBatches > 1 && limit > offset {
			// Spread the remaining budget over the remaining batches.
			size = (limit - offset + maxBatches - 2) / (maxBatches - 1)
			if size < 1 {
				size = 1
			}
		}
	}
}

// searchOnce runs one repository search, retrying a transient failure a
// single time. Upstream rejections and parse failures go straight back to
// the caller as warnings-to-be.
func (o *Orchestrator) searchOnce(ctx context.Context, repo source.Repository, query string, page source.Page) (*source.Batch, error) {
	batch, err := repo.Search(ctx, query, page)
	if err == nil {
		return batch, nil
	}

	var se *source.SourceError
	if errors.As(err, &se) && se.Retryable() && ctx.Err() == nil {
		return repo.Search(ctx, query, page)
	}
	return nil, err
}

// searchKey normalizes a query into the cache key for its result set.
func searchKey(query string) string {
	return "search:" + strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// recordKey is the cache key for one item record.
func recordKey(sourceName, id string) string {
	return "item:" + sourceName + ":" + id
}
