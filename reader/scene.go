package reader

import (
	"context"
	"fmt"

	"github.com/airbusgeo/pds-reader/catalog"
	"github.com/airbusgeo/pds-reader/common"
	"github.com/airbusgeo/pds-reader/interface/raster"
	"github.com/airbusgeo/pds-reader/interface/resolver"
	"github.com/airbusgeo/pds-reader/interface/sidecar"
	"github.com/airbusgeo/pds-reader/service/log"
	"go.uber.org/zap"
)

// Scene resolves the bands of one scene of a supported mission. A Scene is
// immutable once built: the band list and the geometry are settled at open
// time, by the mission constructor.
type Scene interface {
	SceneID() string
	Bands() []string
	// Normalize maps a user-supplied band name to its catalog form
	Normalize(band string) string
	AssetURL(band string) (resolver.AssetLocation, error)
}

// staticScene is the common implementation: a settled band list and a
// per-mission url builder
type staticScene struct {
	sceneID   string
	bands     []string
	normalize func(string) string
	assetURL  func(band string) (resolver.AssetLocation, error)
}

func (s *staticScene) SceneID() string { return s.sceneID }
func (s *staticScene) Bands() []string { return s.bands }

func (s *staticScene) Normalize(band string) string {
	if s.normalize == nil {
		return band
	}
	return s.normalize(band)
}

func (s *staticScene) AssetURL(band string) (resolver.AssetLocation, error) {
	return s.assetURL(band)
}

// OpenLandsat opens a Landsat collection-2 scene. The geometry comes from
// the STAC item stored next to the assets.
func OpenLandsat(ctx context.Context, sceneID string, opener raster.Opener, opts ...Option) (*Reader, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("OpenLandsat: %w", err)
	}
	token, err := common.ParseLandsatID(sceneID)
	if err != nil {
		return nil, fmt.Errorf("OpenLandsat: %w", err)
	}
	bands, err := catalog.Landsat(token)
	if err != nil {
		return nil, fmt.Errorf("OpenLandsat: %w", err)
	}
	res := resolver.NewLandsat(o.cfg)

	fetcher, err := o.getFetcher(ctx)
	if err != nil {
		return nil, fmt.Errorf("OpenLandsat: %w", err)
	}
	var item sidecar.STACItem
	if err := fetcher.FetchJSON(ctx, res.STACItemURL(token), true, &item); err != nil {
		return nil, fmt.Errorf("OpenLandsat: %w", err)
	}
	bounds, err := item.Bounds()
	if err != nil {
		return nil, fmt.Errorf("OpenLandsat: %w", err)
	}

	scene := &staticScene{
		sceneID: token.SceneID(),
		bands:   bands,
		assetURL: func(band string) (resolver.AssetLocation, error) {
			return res.AssetURL(token, band)
		},
	}
	return newReader(ctx, scene, opener, bounds, 5, 12), nil
}

// OpenSentinel1 opens a Sentinel-1 GRD product. The geometry comes from the
// productInfo.json footprint.
func OpenSentinel1(ctx context.Context, sceneID string, opener raster.Opener, opts ...Option) (*Reader, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("OpenSentinel1: %w", err)
	}
	token, err := common.ParseSentinel1ID(sceneID)
	if err != nil {
		return nil, fmt.Errorf("OpenSentinel1: %w", err)
	}
	res := resolver.NewSentinel1(o.cfg)

	fetcher, err := o.getFetcher(ctx)
	if err != nil {
		return nil, fmt.Errorf("OpenSentinel1: %w", err)
	}
	var info sidecar.ProductInfo
	if err := fetcher.FetchJSON(ctx, res.ProductInfoURL(token), true, &info); err != nil {
		return nil, fmt.Errorf("OpenSentinel1: %w", err)
	}
	bounds, err := info.FootprintBounds()
	if err != nil {
		return nil, fmt.Errorf("OpenSentinel1: %w", err)
	}

	scene := &staticScene{
		sceneID: token.SceneID(),
		bands:   catalog.Sentinel1(token),
		assetURL: func(band string) (resolver.AssetLocation, error) {
			return res.AssetURL(token, band)
		},
	}
	return newReader(ctx, scene, opener, bounds, 8, 14), nil
}

// OpenSentinel2JP2 opens a Sentinel-2 scene from the JPEG2000 archives
// (L1C or L2A). The geometry comes from the tileInfo.json side-car and is
// expressed in the native UTM grid of the tile.
func OpenSentinel2JP2(ctx context.Context, sceneID string, opener raster.Opener, opts ...Option) (*Reader, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("OpenSentinel2JP2: %w", err)
	}
	token, err := common.ParseSentinel2ID(sceneID)
	if err != nil {
		return nil, fmt.Errorf("OpenSentinel2JP2: %w", err)
	}
	bands, err := catalog.Sentinel2(token)
	if err != nil {
		return nil, fmt.Errorf("OpenSentinel2JP2: %w", err)
	}
	res := resolver.NewSentinel2(o.cfg)

	tileInfoURL, err := res.TileInfoURL(token)
	if err != nil {
		return nil, fmt.Errorf("OpenSentinel2JP2: %w", err)
	}
	fetcher, err := o.getFetcher(ctx)
	if err != nil {
		return nil, fmt.Errorf("OpenSentinel2JP2: %w", err)
	}
	var info sidecar.TileInfo
	if err := fetcher.FetchJSON(ctx, tileInfoURL, true, &info); err != nil {
		return nil, fmt.Errorf("OpenSentinel2JP2: %w", err)
	}
	bounds, err := info.DataBounds()
	if err != nil {
		return nil, fmt.Errorf("OpenSentinel2JP2: %w", err)
	}

	scene := &staticScene{
		sceneID:   token.SceneID(),
		bands:     bands,
		normalize: catalog.Normalize,
		assetURL: func(band string) (resolver.AssetLocation, error) {
			return res.AssetURL(token, band)
		},
	}
	return newReader(ctx, scene, opener, bounds, 8, 14), nil
}

// sentinel2COGBandNames maps the band names to the asset keys of the 1.0
// STAC items of the COG archive
var sentinel2COGBandNames = map[string]string{
	"B01": "coastal",
	"B02": "blue",
	"B03": "green",
	"B04": "red",
	"B05": "rededge1",
	"B06": "rededge2",
	"B07": "rededge3",
	"B08": "nir",
	"B8A": "nir08",
	"B09": "nir09",
	"B11": "swir16",
	"B12": "swir22",
}

// OpenSentinel2COG opens a Sentinel-2 L2A scene from the public COG mirror.
// The band list comes from the assets of the STAC item: the item of a scene
// produced before STAC 1.0 keys its assets by band name, a 1.0 item by
// common name.
func OpenSentinel2COG(ctx context.Context, sceneID string, opener raster.Opener, opts ...Option) (*Reader, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("OpenSentinel2COG: %w", err)
	}
	token, err := common.ParseSentinel2ID(sceneID)
	if err != nil {
		return nil, fmt.Errorf("OpenSentinel2COG: %w", err)
	}
	if token.ProcessingLevel != "L2A" {
		return nil, fmt.Errorf("OpenSentinel2COG: %s is not available as COG", token.ProcessingLevel)
	}
	res := resolver.NewSentinel2COG(o.cfg)

	fetcher, err := o.getFetcher(ctx)
	if err != nil {
		return nil, fmt.Errorf("OpenSentinel2COG: %w", err)
	}
	var item sidecar.STACItem
	itemErr := fmt.Errorf("OpenSentinel2COG: no stac item url")
	for _, url := range res.STACItemURLs(token) {
		if itemErr = fetcher.FetchJSON(ctx, url, false, &item); itemErr == nil {
			break
		}
		log.Logger(ctx).Debug("stac item fetch failed", zap.String("url", url), zap.Error(itemErr))
	}
	if itemErr != nil {
		return nil, fmt.Errorf("OpenSentinel2COG: %w", itemErr)
	}
	bounds, err := item.Bounds()
	if err != nil {
		return nil, fmt.Errorf("OpenSentinel2COG: %w", err)
	}

	allBands, _ := catalog.Sentinel2(token)
	var bands []string
	for _, band := range allBands {
		key := band
		if item.StacVersion != "1.0.0-beta.2" {
			key = sentinel2COGBandNames[band]
		}
		if item.HasAsset(key) {
			bands = append(bands, band)
		}
	}

	scene := &staticScene{
		sceneID:   token.SceneID(),
		bands:     bands,
		normalize: catalog.Normalize,
		assetURL: func(band string) (resolver.AssetLocation, error) {
			if err := catalog.CheckBand(band, bands); err != nil {
				return resolver.AssetLocation{}, err
			}
			return res.AssetURL(token, band), nil
		},
	}
	return newReader(ctx, scene, opener, bounds, 8, 14), nil
}

// OpenCBERS opens a CBERS-4 scene. The archive has no side-car document, so
// the geometry is probed from the reference band of the instrument.
func OpenCBERS(ctx context.Context, sceneID string, opener raster.Opener, opts ...Option) (*Reader, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("OpenCBERS: %w", err)
	}
	token, err := common.ParseCBERSID(sceneID)
	if err != nil {
		return nil, fmt.Errorf("OpenCBERS: %w", err)
	}
	bands, err := catalog.CBERS(token)
	if err != nil {
		return nil, fmt.Errorf("OpenCBERS: %w", err)
	}
	res := resolver.NewCBERS(o.cfg)

	ref, err := res.ReferenceAssetURL(token)
	if err != nil {
		return nil, fmt.Errorf("OpenCBERS: %w", err)
	}
	ds, err := opener.Open(ctx, ref.URL, ref.RequesterPays)
	if err != nil {
		return nil, fmt.Errorf("OpenCBERS: %w", err)
	}
	info, err := ds.Info(ctx)
	if cerr := ds.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("OpenCBERS: %w", err)
	}

	scene := &staticScene{
		sceneID: token.SceneID(),
		bands:   bands,
		assetURL: func(band string) (resolver.AssetLocation, error) {
			return res.AssetURL(token, band)
		},
	}
	return newReader(ctx, scene, opener, info.Bounds, 8, 12), nil
}

// OpenMODIS opens a MODIS granule from the given archive. The geometry is
// the 10-degree modland grid cell of the granule.
func OpenMODIS(ctx context.Context, sceneID string, source catalog.MODISSource, opener raster.Opener, opts ...Option) (*Reader, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("OpenMODIS: %w", err)
	}
	token, err := common.ParseMODISID(sceneID)
	if err != nil {
		return nil, fmt.Errorf("OpenMODIS: %w", err)
	}
	bands, err := catalog.MODIS(source, token.Product)
	if err != nil {
		return nil, fmt.Errorf("OpenMODIS: %w", err)
	}
	bounds, err := resolver.GridBounds(token)
	if err != nil {
		return nil, fmt.Errorf("OpenMODIS: %w", err)
	}
	res := resolver.NewMODIS(o.cfg, source)

	scene := &staticScene{
		sceneID:   token.SceneID(),
		bands:     bands,
		normalize: catalog.Normalize,
		assetURL: func(band string) (resolver.AssetLocation, error) {
			return res.AssetURL(token, band)
		},
	}
	return newReader(ctx, scene, opener, bounds, 4, 9), nil
}
