// Package explorer composes the session, gateway, catalog, and pagination
// layers into the operations the UI layer consumes.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/api"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/auth"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/catalog"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/config"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/logging"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/pagination"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/session"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/settings"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/thumbs"
)

// ErrNoUsdFile is returned when an asset has no loadable USD content.
var ErrNoUsdFile = errors.New("asset has no USD file available")

// ErrNoThumbnail is returned when an asset has no thumbnail to fetch.
var ErrNoThumbnail = errors.New("asset has no thumbnail")

// recordUserFallback is the username reported on usage records when nobody is
// logged in.
const recordUserFallback = "Free Extension User"

// Explorer is the facade over the catalog backend.
type Explorer struct {
	cfg      *config.Config
	types    *catalog.Registry
	sessions *session.Manager
	state    *auth.State
	gateway  *api.Gateway
	store    *settings.Store
	thumbs   *thumbs.Cache

	mu          sync.Mutex
	controllers map[string]*pagination.Controller
}

// New wires up an explorer. The settings store and thumbnail cache are
// optional; a nil store disables credential persistence and the USD server
// override, a nil cache disables thumbnail fetching.
func New(cfg *config.Config, store *settings.Store, cache *thumbs.Cache) *Explorer {
	sessions := session.NewManager(cfg.RequestTimeout)
	state := auth.NewState()
	return &Explorer{
		cfg:         cfg,
		types:       catalog.NewRegistry(cfg),
		sessions:    sessions,
		state:       state,
		gateway:     api.NewGateway(sessions, state),
		store:       store,
		thumbs:      cache,
		controllers: make(map[string]*pagination.Controller),
	}
}

// AttachThumbCache installs a thumbnail cache after construction. The cache
// needs the explorer's session manager, so it is built second.
func (e *Explorer) AttachThumbCache(cache *thumbs.Cache) {
	e.thumbs = cache
}

// Close releases the shared network session.
func (e *Explorer) Close() {
	e.sessions.Close()
}

// Auth exposes the auth state for read-only inspection.
func (e *Explorer) Auth() *auth.State {
	return e.state
}

// Types returns the asset type registry.
func (e *Explorer) Types() *catalog.Registry {
	return e.types
}

// Sessions returns the shared session manager.
func (e *Explorer) Sessions() *session.Manager {
	return e.sessions
}

// Login authenticates and, when remember is set, persists the credentials
// through the vault.
func (e *Explorer) Login(ctx context.Context, account, password string, remember bool) (*auth.UserInfo, error) {
	user, err := auth.Login(ctx, e.state, e.gateway, catalog.LoginURL(e.cfg), account, password)
	if err != nil {
		return nil, err
	}

	if e.store != nil {
		creds := auth.Credentials{Username: account, Password: password, Remember: remember}
		if err := auth.SaveCredentials(e.store, creds); err != nil {
			logging.Warn("saving credentials failed", zap.Error(err))
		}
	}
	return user, nil
}

// LoginSaved logs in with persisted credentials.
func (e *Explorer) LoginSaved(ctx context.Context) (*auth.UserInfo, error) {
	if e.store == nil {
		return nil, errors.New("no settings store configured")
	}
	creds, err := auth.LoadCredentials(e.store)
	if err != nil {
		return nil, err
	}
	if creds.Username == "" || creds.Password == "" {
		return nil, errors.New("no saved credentials")
	}
	return e.Login(ctx, creds.Username, creds.Password, creds.Remember)
}

// Logout clears the session and, unless remember is set, the saved
// credentials.
func (e *Explorer) Logout() {
	e.state.Logout()
	if e.store != nil {
		if err := auth.ClearCredentials(e.store); err != nil {
			logging.Warn("clearing credentials failed", zap.Error(err))
		}
	}
}

// CategoryTree fetches and builds the category tree for an asset type. The
// flat top-level list is filtered by the IsSystem flag against the requested
// scope before tree assembly; elevated accounts always browse the public
// partition. A non-empty tree gets the synthetic "All" root prepended.
func (e *Explorer) CategoryTree(ctx context.Context, assetTypeID string, scope catalog.Scope) (*catalog.Tree, error) {
	t, err := e.types.Lookup(assetTypeID)
	if err != nil {
		return nil, err
	}

	target := t.CategoryListURLFree
	if e.state.IsLoggedIn() {
		target = t.CategoryListURL
	}
	if e.state.IsAdmin() {
		scope = catalog.ScopePublic
	}

	raw, err := e.gateway.Get(ctx, target, nil)
	if err != nil {
		return nil, err
	}

	records, err := catalog.DecodeCategoryList(raw)
	if err != nil {
		return nil, &api.ParsingError{Body: string(raw), Err: err}
	}

	tree := catalog.BuildTree(catalog.FilterScope(records, scope))
	if tree.Len() > 0 {
		tree.PrependRoot(catalog.Category{ID: catalog.AllCategoryID, Name: "All"})
	}
	return tree, nil
}

// Controller returns the pagination controller for an asset type, creating it
// on first use.
func (e *Explorer) Controller(assetTypeID string) (*pagination.Controller, error) {
	t, err := e.types.Lookup(assetTypeID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.controllers[assetTypeID]; ok {
		return c, nil
	}
	c := pagination.NewController(e.fetchFunc(t), pagination.Config{
		PageSize:        e.cfg.PageSize,
		DebounceDelay:   e.cfg.DebounceDelay,
		ScrollThreshold: e.cfg.ScrollThreshold,
		IsAdmin:         e.state.IsAdmin,
	})
	e.controllers[assetTypeID] = c
	return c, nil
}

// fetchFunc binds a pagination fetch to the gateway, choosing the item-list
// URL template by login state at call time so an expired token falls back to
// the free endpoint on the next page.
func (e *Explorer) fetchFunc(t *catalog.AssetType) pagination.FetchFunc {
	return func(ctx context.Context, p pagination.Params) (*catalog.ItemPage, error) {
		target := t.ItemListURLFree
		if e.state.IsLoggedIn() {
			target = t.ItemListURL
		}

		query := url.Values{}
		query.Set("CategoryId", p.CategoryID)
		query.Set("PageIndex", strconv.Itoa(p.PageIndex))
		query.Set("PageSize", strconv.Itoa(p.PageSize))
		query.Set("OrderByType", strconv.Itoa(p.OrderBy))
		query.Set("Key", p.Keyword)
		query.Set("DataType", strconv.Itoa(p.DataType))

		raw, err := e.gateway.Get(ctx, target, query)
		if err != nil {
			return nil, err
		}
		page, err := catalog.DecodeItemPage(raw)
		if err != nil {
			return nil, &api.ParsingError{Body: string(raw), Err: err}
		}
		return page, nil
	}
}

// RecordLoad fires a best-effort usage record for a loaded asset. It never
// blocks the caller and never surfaces failures.
func (e *Explorer) RecordLoad(assetTypeID string, item catalog.AssetItem) {
	t, err := e.types.Lookup(assetTypeID)
	if err != nil {
		logging.Warn("usage record skipped", zap.Error(err))
		return
	}

	username := recordUserFallback
	if user := e.state.User(); user != nil && user.UserName != "" {
		username = user.UserName
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err := e.gateway.Post(ctx, catalog.RecordURL(e.cfg), map[string]interface{}{
			"RelationObjectId":  item.ID,
			"UserName":          username,
			"ModelBusinessType": t.BusinessType,
		})
		if err != nil {
			logging.Warn("usage record failed", zap.String("asset", item.ID), zap.Error(err))
		}
	}()
}

// UsdBaseURL returns the USD content server, honoring the persisted override.
func (e *Explorer) UsdBaseURL() string {
	if e.store != nil {
		if override, err := e.store.Get(settings.KeyUsdServer); err == nil && override != "" {
			return override
		}
	}
	return e.cfg.UsdBaseURL
}

// SetUsdBaseURL persists a USD content server override.
func (e *Explorer) SetUsdBaseURL(base string) error {
	if e.store == nil {
		return errors.New("no settings store configured")
	}
	return e.store.Set(settings.KeyUsdServer, base)
}

// ResolveUsdPath builds the loadable USD URL for an asset and fires a usage
// record. Gauss-splatting assets resolve to a packaged usdz on the API
// server; everything else uses the first USD path variant on the USD server.
func (e *Explorer) ResolveUsdPath(assetTypeID string, item catalog.AssetItem) (string, error) {
	if assetTypeID == "_3dGS" {
		if item.ID == "" {
			return "", ErrNoUsdFile
		}
		e.RecordLoad(assetTypeID, item)
		return fmt.Sprintf("%s/api/Usd/UsdzFile/%s.usdz", e.cfg.APIBaseURL, item.ID), nil
	}

	if !item.IsHasUsdFile || len(item.UsdCurrentPath) == 0 {
		return "", ErrNoUsdFile
	}

	e.RecordLoad(assetTypeID, item)
	part := strings.TrimPrefix(strings.ReplaceAll(item.UsdCurrentPath[0], "//", "/"), "/")
	return e.UsdBaseURL() + "/" + part, nil
}

// SceneURL builds the stage URL for a scene asset, cache-busted so a
// republished scene is not served stale.
func (e *Explorer) SceneURL(sceneID string) string {
	return fmt.Sprintf("%s/Scene/%s/main_ov.usd?t=%d", e.UsdBaseURL(), sceneID, time.Now().Unix())
}

// ThumbnailURL builds the thumbnail URL for an item, or "" when the backend
// reported no thumbnail.
func (e *Explorer) ThumbnailURL(assetTypeID string, item catalog.AssetItem) (string, error) {
	t, err := e.types.Lookup(assetTypeID)
	if err != nil {
		return "", err
	}
	if item.MiniLogo == "" {
		return "", nil
	}
	return fmt.Sprintf("%s/%s.png?t=%d", t.ThumbnailURL, item.ID, time.Now().Unix()), nil
}

// FetchThumbnail downloads (or reuses) the cached thumbnail for an item and
// returns its local path.
func (e *Explorer) FetchThumbnail(ctx context.Context, assetTypeID string, item catalog.AssetItem) (string, error) {
	if e.thumbs == nil {
		return "", errors.New("no thumbnail cache configured")
	}
	target, err := e.ThumbnailURL(assetTypeID, item)
	if err != nil {
		return "", err
	}
	if target == "" {
		return "", ErrNoThumbnail
	}
	return e.thumbs.Fetch(ctx, target, item.ID)
}

// BrowserURL builds the web frontend deep link for an asset.
func (e *Explorer) BrowserURL(assetTypeID string, item catalog.AssetItem) (string, error) {
	t, err := e.types.Lookup(assetTypeID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/#/home?id=%s&t=%s", e.cfg.WebBaseURL, item.ID, t.BrowserType), nil
}
