package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/catalog"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/config"
)

// backend fakes the catalog API: a login endpoint, per-path category and item
// payloads, and a usage-record sink.
type backend struct {
	mu      sync.Mutex
	paths   []string
	records []map[string]interface{}

	categoryPayload string
	itemPayload     string
	loginPayload    string
}

func (b *backend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.paths = append(b.paths, r.URL.Path)
		b.mu.Unlock()

		switch {
		case r.URL.Path == "/api/User/Login":
			w.Write([]byte(b.loginPayload))
		case r.URL.Path == "/api/Global/AddLoadRecord":
			var rec map[string]interface{}
			if err := jsonDecode(r, &rec); err == nil {
				b.mu.Lock()
				b.records = append(b.records, rec)
				b.mu.Unlock()
			}
			w.Write([]byte(`{"ErrorCode":200,"StatusCode":200,"Result":null}`))
		case strings.Contains(r.URL.Path, "CategoryList"):
			w.Write([]byte(b.categoryPayload))
		default:
			w.Write([]byte(b.itemPayload))
		}
	})
}

func jsonDecode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func (b *backend) sawPath(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.paths {
		if p == path {
			return true
		}
	}
	return false
}

func newTestExplorer(t *testing.T, b *backend) (*Explorer, *config.Config) {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		APIBaseURL:      srv.URL,
		UsdBaseURL:      "https://usd.example.com",
		WebBaseURL:      "https://web.example.com",
		PageSize:        2,
		DebounceDelay:   20 * time.Millisecond,
		ScrollThreshold: 0.8,
		RequestTimeout:  10 * time.Second,
	}
	ex := New(cfg, nil, nil)
	t.Cleanup(ex.Close)
	return ex, cfg
}

const okEnvelope = `{"ErrorCode":200,"StatusCode":200,"Result":%s}`

func envelope(result string) string {
	return strings.Replace(okEnvelope, "%s", result, 1)
}

func TestCategoryTreeFreeEndpointWhenLoggedOut(t *testing.T) {
	b := &backend{
		categoryPayload: envelope(`[
			{"CategoryId":"c1","CategoryName":"Public Cat","IsSystem":true,"CategoryLists":[]},
			{"CategoryId":"c2","CategoryName":"Private Cat","IsSystem":false,"CategoryLists":[]}
		]`),
	}
	ex, _ := newTestExplorer(t, b)

	tree, err := ex.CategoryTree(context.Background(), "SimReady", catalog.ScopePublic)
	if err != nil {
		t.Fatalf("CategoryTree: %v", err)
	}

	if !b.sawPath("/api/Global/GetCategoryList") {
		t.Errorf("paths = %v, want the free category endpoint", b.paths)
	}

	// Synthetic All root first, then only the public partition.
	roots := tree.Roots()
	if len(roots) != 2 || roots[0] != catalog.AllCategoryID || roots[1] != "c1" {
		t.Errorf("roots = %v", roots)
	}
	if tree.Node("c2") != nil {
		t.Error("private category leaked into the public tree")
	}
}

func TestCategoryTreeAuthenticatedEndpointWhenLoggedIn(t *testing.T) {
	b := &backend{
		loginPayload: envelope(`{"Token":"tok","LoginUserInfo":{"UserType":5,"UserName":"u"}}`),
		categoryPayload: envelope(`[
			{"CategoryId":"c1","CategoryName":"Cat","IsSystem":true,"CategoryLists":[]}
		]`),
	}
	ex, _ := newTestExplorer(t, b)

	if _, err := ex.Login(context.Background(), "u", "pw", false); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := ex.CategoryTree(context.Background(), "SimReady", catalog.ScopePublic); err != nil {
		t.Fatalf("CategoryTree: %v", err)
	}
	if !b.sawPath("/api/SimReady/GetCategoryList") {
		t.Errorf("paths = %v, want the authenticated category endpoint", b.paths)
	}
}

func TestCategoryTreeAdminForcesPublic(t *testing.T) {
	b := &backend{
		loginPayload: envelope(`{"Token":"tok","LoginUserInfo":{"UserType":1,"UserName":"root"}}`),
		categoryPayload: envelope(`[
			{"CategoryId":"pub","CategoryName":"Pub","IsSystem":true,"CategoryLists":[]},
			{"CategoryId":"priv","CategoryName":"Priv","IsSystem":false,"CategoryLists":[]}
		]`),
	}
	ex, _ := newTestExplorer(t, b)

	if _, err := ex.Login(context.Background(), "root", "pw", false); err != nil {
		t.Fatalf("Login: %v", err)
	}

	tree, err := ex.CategoryTree(context.Background(), "Model", catalog.ScopePrivate)
	if err != nil {
		t.Fatalf("CategoryTree: %v", err)
	}
	if tree.Node("priv") != nil {
		t.Error("admin request honored the private scope")
	}
	if tree.Node("pub") == nil {
		t.Error("public partition missing")
	}
}

func TestCategoryTreeEmptySkipsAllRoot(t *testing.T) {
	b := &backend{categoryPayload: envelope(`[]`)}
	ex, _ := newTestExplorer(t, b)

	tree, err := ex.CategoryTree(context.Background(), "Scene", catalog.ScopePublic)
	if err != nil {
		t.Fatalf("CategoryTree: %v", err)
	}
	if tree.Len() != 0 {
		t.Errorf("Len = %d, want 0 with no All root", tree.Len())
	}
}

func TestCategoryTreeUnknownType(t *testing.T) {
	ex, _ := newTestExplorer(t, &backend{})
	if _, err := ex.CategoryTree(context.Background(), "Nope", catalog.ScopePublic); err == nil {
		t.Fatal("CategoryTree succeeded for an unknown asset type")
	}
}

func TestControllerFetchesItems(t *testing.T) {
	b := &backend{
		itemPayload: envelope(`{
			"List":[{"Id":"a1","Name":"Chair"},{"Id":"a2","Name":"Table"}],
			"PageCount":1,"Count":2
		}`),
	}
	ex, _ := newTestExplorer(t, b)

	ctrl, err := ex.Controller("SimReady")
	if err != nil {
		t.Fatalf("Controller: %v", err)
	}
	ctrl.SelectCategory(catalog.AllCategoryID)
	if err := ctrl.FetchPage(context.Background(), 1); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}

	items := ctrl.Items()
	if len(items) != 2 || items[0].ID != "a1" {
		t.Errorf("items = %+v", items)
	}
	if !b.sawPath("/api/Global/GetSimReadyList") {
		t.Errorf("paths = %v, want the free item endpoint", b.paths)
	}

	// The controller is cached per asset type.
	again, err := ex.Controller("SimReady")
	if err != nil {
		t.Fatalf("Controller: %v", err)
	}
	if again != ctrl {
		t.Error("Controller returned a second instance for the same type")
	}
}

func TestResolveUsdPathNormalizes(t *testing.T) {
	b := &backend{}
	ex, _ := newTestExplorer(t, b)

	item := catalog.AssetItem{
		ID:             "a1",
		IsHasUsdFile:   true,
		UsdCurrentPath: catalog.UsdPaths{"//Model//a1/main.usd"},
	}
	got, err := ex.ResolveUsdPath("Model", item)
	if err != nil {
		t.Fatalf("ResolveUsdPath: %v", err)
	}
	if got != "https://usd.example.com/Model/a1/main.usd" {
		t.Errorf("path = %q", got)
	}
}

func TestResolveUsdPathNoFile(t *testing.T) {
	ex, _ := newTestExplorer(t, &backend{})

	_, err := ex.ResolveUsdPath("Model", catalog.AssetItem{ID: "a1", IsHasUsdFile: false})
	if !errors.Is(err, ErrNoUsdFile) {
		t.Fatalf("error = %v, want ErrNoUsdFile", err)
	}

	_, err = ex.ResolveUsdPath("Model", catalog.AssetItem{ID: "a1", IsHasUsdFile: true})
	if !errors.Is(err, ErrNoUsdFile) {
		t.Fatalf("error = %v, want ErrNoUsdFile for empty path list", err)
	}
}

func TestResolveUsdPathGaussSplatting(t *testing.T) {
	ex, cfg := newTestExplorer(t, &backend{})

	got, err := ex.ResolveUsdPath("_3dGS", catalog.AssetItem{ID: "g1"})
	if err != nil {
		t.Fatalf("ResolveUsdPath: %v", err)
	}
	want := cfg.APIBaseURL + "/api/Usd/UsdzFile/g1.usdz"
	if got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestResolveUsdPathFiresUsageRecord(t *testing.T) {
	b := &backend{}
	ex, _ := newTestExplorer(t, b)

	item := catalog.AssetItem{ID: "a1", IsHasUsdFile: true, UsdCurrentPath: catalog.UsdPaths{"/Model/a1/main.usd"}}
	if _, err := ex.ResolveUsdPath("Model", item); err != nil {
		t.Fatalf("ResolveUsdPath: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		b.mu.Lock()
		n := len(b.records)
		b.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("usage record never arrived")
		case <-time.After(5 * time.Millisecond):
		}
	}

	b.mu.Lock()
	rec := b.records[0]
	b.mu.Unlock()
	if rec["RelationObjectId"] != "a1" {
		t.Errorf("RelationObjectId = %v", rec["RelationObjectId"])
	}
	if rec["UserName"] != recordUserFallback {
		t.Errorf("UserName = %v, want the free-user fallback", rec["UserName"])
	}
	if rec["ModelBusinessType"] != float64(2) {
		t.Errorf("ModelBusinessType = %v, want 2 for Model", rec["ModelBusinessType"])
	}
}

func TestSceneURL(t *testing.T) {
	ex, _ := newTestExplorer(t, &backend{})

	got := ex.SceneURL("s1")
	if !strings.HasPrefix(got, "https://usd.example.com/Scene/s1/main_ov.usd?t=") {
		t.Errorf("SceneURL = %q", got)
	}
}

func TestThumbnailURL(t *testing.T) {
	ex, cfg := newTestExplorer(t, &backend{})

	got, err := ex.ThumbnailURL("SimReady", catalog.AssetItem{ID: "a1", MiniLogo: "x"})
	if err != nil {
		t.Fatalf("ThumbnailURL: %v", err)
	}
	if !strings.HasPrefix(got, cfg.APIBaseURL+"/api/Usd/SimReady/Image/a1.png?t=") {
		t.Errorf("ThumbnailURL = %q", got)
	}

	// No MiniLogo means no thumbnail, not an error.
	got, err = ex.ThumbnailURL("SimReady", catalog.AssetItem{ID: "a1"})
	if err != nil || got != "" {
		t.Errorf("ThumbnailURL = %q, %v, want empty and nil", got, err)
	}
}

func TestBrowserURL(t *testing.T) {
	ex, _ := newTestExplorer(t, &backend{})

	got, err := ex.BrowserURL("Robot", catalog.AssetItem{ID: "r1"})
	if err != nil {
		t.Fatalf("BrowserURL: %v", err)
	}
	if got != "https://web.example.com/#/home?id=r1&t=assets-ontology" {
		t.Errorf("BrowserURL = %q", got)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	b := &backend{
		loginPayload: envelope(`{"Token":"tok","LoginUserInfo":{"UserType":5,"UserName":"u"}}`),
	}
	ex, _ := newTestExplorer(t, b)

	if _, err := ex.Login(context.Background(), "u", "pw", false); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !ex.Auth().IsLoggedIn() {
		t.Fatal("not logged in after Login")
	}

	ex.Logout()
	if ex.Auth().IsLoggedIn() {
		t.Error("still logged in after Logout")
	}
}
