package catalog

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/api"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/config"
)

func testRegistry() *Registry {
	return NewRegistry(&config.Config{APIBaseURL: "https://api.example.com"})
}

func TestRegistryLookup(t *testing.T) {
	r := testRegistry()

	for _, id := range []string{"SimReady", "Model", "_3dGS", "Robot", "Scene"} {
		at, err := r.Lookup(id)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", id, err)
		}
		if at.ID != id {
			t.Errorf("Lookup(%q).ID = %q", id, at.ID)
		}
		if at.CategoryListURL == "" || at.ItemListURL == "" || at.ItemListURLFree == "" {
			t.Errorf("%s has empty endpoint URLs: %+v", id, at)
		}
	}

	if len(r.All()) != 5 {
		t.Errorf("All() returned %d types, want 5", len(r.All()))
	}
}

func TestRegistryLookupUnknown(t *testing.T) {
	_, err := testRegistry().Lookup("Texture")
	ce, ok := api.AsConfig(err)
	if !ok {
		t.Fatalf("error = %v, want ConfigError", err)
	}
	if ce.AssetTypeID != "Texture" {
		t.Errorf("AssetTypeID = %q", ce.AssetTypeID)
	}
}

func TestRegistryEndpoints(t *testing.T) {
	r := testRegistry()

	sim, _ := r.Lookup("SimReady")
	if sim.ItemListURL != "https://api.example.com/api/SimReady/GetSimReadyList" {
		t.Errorf("SimReady ItemListURL = %q", sim.ItemListURL)
	}
	if sim.ItemListURLFree != "https://api.example.com/api/Global/GetSimReadyList" {
		t.Errorf("SimReady ItemListURLFree = %q", sim.ItemListURLFree)
	}

	// Robot categories live under the Noumen service.
	robot, _ := r.Lookup("Robot")
	if robot.CategoryListURL != "https://api.example.com/api/Noumen/GetCategoryList" {
		t.Errorf("Robot CategoryListURL = %q", robot.CategoryListURL)
	}
}

func TestUsdPathsStringEncodedArray(t *testing.T) {
	var item AssetItem
	payload := `{"Id":"a1","UsdCurrentPath":"[\"/Model/a1/v1.usd\",\"/Model/a1/v2.usd\"]"}`
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := UsdPaths{"/Model/a1/v1.usd", "/Model/a1/v2.usd"}
	if !reflect.DeepEqual(item.UsdCurrentPath, want) {
		t.Errorf("UsdCurrentPath = %v, want %v", item.UsdCurrentPath, want)
	}
}

func TestUsdPathsPlainArray(t *testing.T) {
	var item AssetItem
	payload := `{"Id":"a1","UsdCurrentPath":["/Model/a1/v1.usd"]}`
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(item.UsdCurrentPath) != 1 || item.UsdCurrentPath[0] != "/Model/a1/v1.usd" {
		t.Errorf("UsdCurrentPath = %v", item.UsdCurrentPath)
	}
}

func TestUsdPathsGarbageYieldsEmpty(t *testing.T) {
	for _, payload := range []string{
		`{"Id":"a1","UsdCurrentPath":"not an array"}`,
		`{"Id":"a1","UsdCurrentPath":42}`,
		`{"Id":"a1","UsdCurrentPath":null}`,
		`{"Id":"a1"}`,
	} {
		var item AssetItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			t.Errorf("unmarshal %s: %v", payload, err)
			continue
		}
		if len(item.UsdCurrentPath) != 0 {
			t.Errorf("UsdCurrentPath for %s = %v, want empty", payload, item.UsdCurrentPath)
		}
	}
}

func TestDecodeItemPage(t *testing.T) {
	raw := json.RawMessage(`{
		"List": [
			{"Id":"a1","Name":"Chair","MiniLogo":"logo","IsHasUsdFile":true},
			{"Id":"a2","Name":"Table"}
		],
		"PageCount": 3,
		"Count": 125
	}`)

	page, err := DecodeItemPage(raw)
	if err != nil {
		t.Fatalf("DecodeItemPage: %v", err)
	}
	if len(page.List) != 2 || page.PageCount != 3 || page.Count != 125 {
		t.Errorf("page = %+v", page)
	}
	if page.List[0].ID != "a1" || !page.List[0].IsHasUsdFile {
		t.Errorf("first item = %+v", page.List[0])
	}
}
