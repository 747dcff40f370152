// Package catalog holds the catalog data model: asset type descriptors,
// category trees, and asset items.
package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/api"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/config"
)

// AllCategoryID is the synthetic root category covering every category. It is
// never present in backend data; the explorer prepends it, and the item-list
// API expresses it as an empty CategoryId.
const AllCategoryID = "All"

// Scope selects the Public/Private partition of categories and items.
type Scope string

const (
	ScopePublic  Scope = "Public"
	ScopePrivate Scope = "Private"
)

// AssetType describes one browsable asset family. Descriptors are built once
// at startup from configuration and never mutated.
type AssetType struct {
	ID   string
	Name string

	// Authenticated endpoints and their unauthenticated (free) variants.
	CategoryListURL     string
	CategoryListURLFree string
	ItemListURL         string
	ItemListURLFree     string

	ThumbnailURL string

	// BrowserType is the type discriminator in web deep links.
	BrowserType string

	// BusinessType tags usage records.
	BusinessType int
}

// Registry is the fixed set of asset types, in display order.
type Registry struct {
	types []AssetType
}

// NewRegistry builds the fixed asset-type descriptors against the configured
// API base URL.
func NewRegistry(cfg *config.Config) *Registry {
	base := cfg.APIBaseURL
	return &Registry{types: []AssetType{
		{
			ID:                  "SimReady",
			Name:                "Sim Ready",
			CategoryListURL:     base + "/api/SimReady/GetCategoryList",
			CategoryListURLFree: base + "/api/Global/GetCategoryList",
			ItemListURL:         base + "/api/SimReady/GetSimReadyList",
			ItemListURLFree:     base + "/api/Global/GetSimReadyList",
			ThumbnailURL:        base + "/api/Usd/SimReady/Image",
			BrowserType:         "assets-simready",
			BusinessType:        1,
		},
		{
			ID:                  "Model",
			Name:                "Model",
			CategoryListURL:     base + "/api/Model/GetCategoryList",
			CategoryListURLFree: base + "/api/Global/GetModelCategoryList",
			ItemListURL:         base + "/api/Model/GetModelList",
			ItemListURLFree:     base + "/api/Global/GetModelList",
			ThumbnailURL:        base + "/api/Usd/Model/Image",
			BrowserType:         "assets-model",
			BusinessType:        2,
		},
		{
			ID:                  "_3dGS",
			Name:                "3D Gauss Splatting",
			CategoryListURL:     base + "/api/Gs/GetCategoryList",
			CategoryListURLFree: base + "/api/Global/GetGsCategoryList",
			ItemListURL:         base + "/api/Gs/GetGsList",
			ItemListURLFree:     base + "/api/Global/GetGsList",
			ThumbnailURL:        base + "/api/Usd/Gs/Image",
			BrowserType:         "assets-gs",
			BusinessType:        3,
		},
		{
			ID:                  "Robot",
			Name:                "Robot",
			CategoryListURL:     base + "/api/Noumen/GetCategoryList",
			CategoryListURLFree: base + "/api/Global/GetRobotCategoryList",
			ItemListURL:         base + "/api/Robot/GetRobotList",
			ItemListURLFree:     base + "/api/Global/GetRobotList",
			ThumbnailURL:        base + "/api/Usd/Robot/Image",
			BrowserType:         "assets-ontology",
			BusinessType:        5,
		},
		{
			ID:                  "Scene",
			Name:                "Scene",
			CategoryListURL:     base + "/api/Scene/GetCategoryList",
			CategoryListURLFree: base + "/api/Global/GetSceneCategoryList",
			ItemListURL:         base + "/api/Scene/GetSceneList",
			ItemListURLFree:     base + "/api/Global/GetSceneList",
			ThumbnailURL:        base + "/api/Usd/Scene/Image",
			BrowserType:         "assets-scene",
			BusinessType:        6,
		},
	}}
}

// All returns the descriptors in display order.
func (r *Registry) All() []AssetType {
	return r.types
}

// Lookup returns the descriptor for id.
func (r *Registry) Lookup(id string) (*AssetType, error) {
	for i := range r.types {
		if r.types[i].ID == id {
			return &r.types[i], nil
		}
	}
	return nil, &api.ConfigError{AssetTypeID: id}
}

// LoginURL returns the login endpoint for the configured backend.
func LoginURL(cfg *config.Config) string {
	return cfg.APIBaseURL + "/api/User/Login"
}

// RecordURL returns the usage-record endpoint for the configured backend.
func RecordURL(cfg *config.Config) string {
	return cfg.APIBaseURL + "/api/Global/AddLoadRecord"
}

// UsdPaths is a list of USD path variants. On the wire it is a JSON-encoded
// string holding a JSON array; anything undecodable yields an empty list
// rather than an error, since many asset families never carry the field.
type UsdPaths []string

// UnmarshalJSON accepts either a JSON string containing an encoded array or a
// plain array.
func (p *UsdPaths) UnmarshalJSON(data []byte) error {
	*p = nil

	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		var paths []string
		if err := json.Unmarshal([]byte(encoded), &paths); err == nil {
			*p = paths
		}
		return nil
	}

	var paths []string
	if err := json.Unmarshal(data, &paths); err == nil {
		*p = paths
	}
	return nil
}

// AssetItem is one catalog entry. Immutable once received; Id is the
// deduplication key.
type AssetItem struct {
	ID             string   `json:"Id"`
	Name           string   `json:"Name"`
	MiniLogo       string   `json:"MiniLogo"`
	UsdCurrentPath UsdPaths `json:"UsdCurrentPath"`
	Comment        string   `json:"Comment"`
	IsHasArticulus bool     `json:"IsHasArticulus"`
	IsHasUsdFile   bool     `json:"IsHasUsdFile"`
}

// ItemPage is the Result block of an item-list response.
type ItemPage struct {
	List      []AssetItem `json:"List"`
	PageCount int         `json:"PageCount"`
	Count     int         `json:"Count"`
}

// DecodeItemPage decodes an item-list Result.
func DecodeItemPage(raw json.RawMessage) (*ItemPage, error) {
	var page ItemPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode item page: %w", err)
	}
	return &page, nil
}
