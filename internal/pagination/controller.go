// Package pagination drives incremental, searchable item loading for one
// category view.
package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/catalog"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/logging"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/metrics"
)

// Defaults matching the backend's paging contract.
const (
	DefaultPageSize        = 60
	DefaultDebounceDelay   = 300 * time.Millisecond
	DefaultScrollThreshold = 0.8

	// orderByDefault is the backend's default sort indicator.
	orderByDefault = -1
)

// ErrFetchInFlight is returned when a fetch is requested for a context that
// already has one outstanding. Callers treat it as a no-op.
var ErrFetchInFlight = errors.New("fetch already in flight for this context")

// Status is the controller's observable state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusErrored:
		return "errored"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Params are the query parameters of one page fetch.
type Params struct {
	CategoryID string // "" means the synthetic All scope
	PageIndex  int
	PageSize   int
	OrderBy    int
	Keyword    string
	DataType   int // 1 public, 2 private
}

// FetchFunc executes one page fetch. The explorer binds it to the gateway
// with the right URL template for the active asset type and login state.
type FetchFunc func(ctx context.Context, p Params) (*catalog.ItemPage, error)

// Config configures a controller. Zero values take the package defaults.
type Config struct {
	PageSize        int
	DebounceDelay   time.Duration
	ScrollThreshold float64
	IsAdmin         func() bool
}

// Controller is the per-view fetch state machine: one (category, keyword)
// context at a time, page cursor and total bookkeeping, a single in-flight
// fetch, debounced search, and scroll-triggered continuation.
type Controller struct {
	fetch     FetchFunc
	pageSize  int
	debounce  time.Duration
	threshold float64
	isAdmin   func() bool

	mu         sync.Mutex
	categoryID string
	keyword    string
	scope      catalog.Scope
	generation uint64

	page       int
	totalPages int
	totalCount int
	noMore     bool
	inFlight   bool
	status     Status
	lastErr    string
	items      []catalog.AssetItem

	timer *time.Timer
}

// NewController creates a controller bound to fetch.
func NewController(fetch FetchFunc, cfg Config) *Controller {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	if cfg.ScrollThreshold <= 0 {
		cfg.ScrollThreshold = DefaultScrollThreshold
	}
	if cfg.IsAdmin == nil {
		cfg.IsAdmin = func() bool { return false }
	}
	return &Controller{
		fetch:     fetch,
		pageSize:  cfg.PageSize,
		debounce:  cfg.DebounceDelay,
		threshold: cfg.ScrollThreshold,
		isAdmin:   cfg.IsAdmin,
		scope:     catalog.ScopePublic,
		page:      1,
		status:    StatusIdle,
	}
}

// SelectCategory enters a new category context: the cache and cursor reset,
// the keyword clears, and any in-flight fetch for the old context is
// disowned. The caller follows up with FetchPage(ctx, 1).
func (c *Controller) SelectCategory(categoryID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categoryID = categoryID
	c.keyword = ""
	c.resetLocked()
}

// SetScope switches the Public/Private visibility tab, resetting the context.
func (c *Controller) SetScope(scope catalog.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scope = scope
	c.resetLocked()
}

// resetLocked starts a fresh fetch context. Bumping the generation disowns
// any response still in flight for the previous context.
func (c *Controller) resetLocked() {
	c.generation++
	c.page = 1
	c.totalPages = 1
	c.totalCount = 0
	c.noMore = false
	c.inFlight = false
	c.status = StatusIdle
	c.lastErr = ""
	c.items = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// SetKeyword (re)schedules a debounced page-1 fetch with the new keyword.
// Each call cancels the previous schedule, so a burst of keystrokes produces
// exactly one fetch, with the last keyword, after input settles.
func (c *Controller) SetKeyword(ctx context.Context, keyword string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		c.keyword = keyword
		c.resetLocked()
		c.mu.Unlock()

		if err := c.FetchPage(ctx, 1); err != nil && !errors.Is(err, ErrFetchInFlight) {
			logging.Warn("debounced search fetch failed", zap.String("keyword", keyword), zap.Error(err))
		}
	})
}

// SetKeywordNow applies a keyword immediately, skipping the debounce. The
// caller follows up with FetchPage(ctx, 1).
func (c *Controller) SetKeywordNow(keyword string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keyword = keyword
	c.resetLocked()
}

// OnScroll reacts to a scroll-position fraction (0..1). Crossing the
// threshold triggers the next page, level-triggered: repeated signals above
// the threshold while a fetch is pending are ignored, not queued.
func (c *Controller) OnScroll(ctx context.Context, fraction float64) error {
	c.mu.Lock()
	if fraction < c.threshold || c.inFlight || c.noMore || c.page >= c.totalPages {
		c.mu.Unlock()
		return nil
	}
	next := c.page + 1
	c.mu.Unlock()

	err := c.FetchPage(ctx, next)
	if errors.Is(err, ErrFetchInFlight) {
		return nil
	}
	return err
}

// FetchPage loads one page for the current context. Page 1 replaces the item
// cache; later pages append. At most one fetch per context is outstanding;
// a second call while loading returns ErrFetchInFlight. The in-flight guard
// is released on every exit path.
func (c *Controller) FetchPage(ctx context.Context, pageIndex int) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		logging.Debug("fetch rejected, already loading",
			zap.String("category", c.categoryID), zap.Int("page", pageIndex))
		return ErrFetchInFlight
	}
	c.inFlight = true
	c.status = StatusLoading
	gen := c.generation
	params := Params{
		CategoryID: c.categoryID,
		PageIndex:  pageIndex,
		PageSize:   c.pageSize,
		OrderBy:    orderByDefault,
		Keyword:    c.keyword,
		DataType:   c.dataTypeLocked(),
	}
	if params.CategoryID == catalog.AllCategoryID {
		params.CategoryID = ""
	}
	c.mu.Unlock()

	logging.Debug("loading page",
		zap.String("category", params.CategoryID),
		zap.Int("page", pageIndex),
		zap.String("keyword", params.Keyword),
	)

	page, err := c.fetch(ctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		// The context was superseded while this request was on the wire.
		// Last request wins: drop the result without touching state.
		metrics.RecordStaleResponse()
		logging.Debug("discarding stale page response",
			zap.String("category", params.CategoryID), zap.Int("page", pageIndex))
		return nil
	}

	c.inFlight = false

	if err != nil {
		c.status = StatusErrored
		c.lastErr = err.Error()
		metrics.RecordPageLoad(false, 0)
		return err
	}

	if pageIndex == 1 {
		c.items = append([]catalog.AssetItem(nil), page.List...)
	} else {
		c.items = append(c.items, page.List...)
	}
	c.page = pageIndex
	c.totalPages = page.PageCount
	c.totalCount = page.Count
	c.noMore = pageIndex >= page.PageCount || page.Count <= 0
	c.status = StatusLoaded
	c.lastErr = ""
	metrics.RecordPageLoad(true, len(page.List))

	logging.Debug("page loaded",
		zap.Int("page", pageIndex),
		zap.Int("total_pages", c.totalPages),
		zap.Int("items", len(page.List)),
		zap.Int("cached", len(c.items)),
		zap.Bool("no_more", c.noMore),
	)
	return nil
}

// dataTypeLocked derives the visibility discriminator: elevated accounts
// always browse public data; others follow the active tab.
func (c *Controller) dataTypeLocked() int {
	if c.isAdmin() || c.scope == catalog.ScopePublic {
		return 1
	}
	return 2
}

// Items returns a copy of the cached items.
func (c *Controller) Items() []catalog.AssetItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]catalog.AssetItem(nil), c.items...)
}

// Status returns the current state and, for StatusErrored, the message.
func (c *Controller) Status() (Status, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.lastErr
}

// PageInfo returns the cursor and totals bookkeeping.
func (c *Controller) PageInfo() (page, totalPages, totalCount int, noMore bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page, c.totalPages, c.totalCount, c.noMore
}

// InFlight reports whether a fetch is outstanding for the current context.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}
