package sidecar

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/airbusgeo/pds-reader/service"
	"github.com/araddon/dateparse"
)

// STACItem is the subset of a STAC item used by the readers
type STACItem struct {
	StacVersion string                 `json:"stac_version"`
	ID          string                 `json:"id"`
	BBox        []float64              `json:"bbox"`
	Geometry    json.RawMessage        `json:"geometry"`
	Properties  map[string]interface{} `json:"properties"`
	Assets      map[string]STACAsset   `json:"assets"`
}

// STACAsset is one asset entry of a STAC item
type STACAsset struct {
	Href  string   `json:"href"`
	Title string   `json:"title"`
	Roles []string `json:"roles"`
}

// Bounds returns the bbox of the item, falling back on the geometry extent
func (item STACItem) Bounds() ([4]float64, error) {
	if len(item.BBox) >= 4 {
		return [4]float64{item.BBox[0], item.BBox[1], item.BBox[2], item.BBox[3]}, nil
	}
	if len(item.Geometry) == 0 {
		return [4]float64{}, fmt.Errorf("STACItem.Bounds: item %s has no bbox nor geometry", item.ID)
	}
	g, err := service.UnmarshalGeometry(item.Geometry)
	if err != nil {
		return [4]float64{}, fmt.Errorf("STACItem.Bounds: %w", err)
	}
	return service.Bounds(g)
}

// Datetime returns the acquisition date-time of the item
func (item STACItem) Datetime() (time.Time, error) {
	raw, ok := item.Properties["datetime"].(string)
	if !ok {
		return time.Time{}, fmt.Errorf("STACItem.Datetime: item %s has no datetime", item.ID)
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("STACItem.Datetime: %w", err)
	}
	return t, nil
}

// HasAsset returns whether the item carries the named asset
func (item STACItem) HasAsset(name string) bool {
	_, ok := item.Assets[name]
	return ok
}

// TileInfo is the subset of the Sentinel-2 tileInfo.json side-car used by
// the readers. The tile data geometry is expressed in the UTM grid of the
// tile, not in lon/lat.
type TileInfo struct {
	Path                string          `json:"path"`
	TimeStamp           string          `json:"timestamp"`
	TileGeometry        json.RawMessage `json:"tileGeometry"`
	TileDataGeometry    json.RawMessage `json:"tileDataGeometry"`
	CloudyPixelPercent  float64         `json:"cloudyPixelPercentage"`
	ProductName         string          `json:"productName"`
	ProductPath         string          `json:"productPath"`
	DataCoveragePercent float64         `json:"dataCoveragePercentage"`
}

// DataBounds returns the extent of the tile data geometry, in the native
// grid of the tile
func (info TileInfo) DataBounds() ([4]float64, error) {
	if len(info.TileDataGeometry) == 0 {
		return [4]float64{}, fmt.Errorf("TileInfo.DataBounds: no tileDataGeometry")
	}
	g, err := service.UnmarshalGeometry(info.TileDataGeometry)
	if err != nil {
		return [4]float64{}, fmt.Errorf("TileInfo.DataBounds: %w", err)
	}
	return service.Bounds(g)
}

// ProductInfo is the subset of the Sentinel-1 productInfo.json side-car used
// by the readers
type ProductInfo struct {
	ID        string          `json:"id"`
	Timestamp string          `json:"timestamp"`
	Footprint json.RawMessage `json:"footprint"`
}

// FootprintBounds returns the lon/lat extent of the product footprint
func (info ProductInfo) FootprintBounds() ([4]float64, error) {
	if len(info.Footprint) == 0 {
		return [4]float64{}, fmt.Errorf("ProductInfo.FootprintBounds: no footprint")
	}
	g, err := service.UnmarshalGeometry(info.Footprint)
	if err != nil {
		return [4]float64{}, fmt.Errorf("ProductInfo.FootprintBounds: %w", err)
	}
	return service.Bounds(g)
}
