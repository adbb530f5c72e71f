package resolver

import (
	"fmt"

	"github.com/airbusgeo/pds-reader/catalog"
	"github.com/airbusgeo/pds-reader/common"
)

// MODIS resolves the assets of a MODIS granule. The same granule may exist in
// several archives with different product coverage and file naming, so the
// source is part of the resolver.
type MODIS struct {
	Source catalog.MODISSource
	Bucket string
}

// NewMODIS returns a resolver on the configured archive for the given source
func NewMODIS(cfg Config, source catalog.MODISSource) MODIS {
	bucket := cfg.MODISPDSBucket
	if source == catalog.SourceAstraea {
		bucket = cfg.MODISAstraeaBucket
	}
	return MODIS{Source: source, Bucket: bucket}
}

// Prefix returns the storage prefix of the granule (identical in both archives)
func (r MODIS) Prefix(token common.MODISToken) string {
	return fmt.Sprintf("%s.%s/%s/%s/%s",
		token.Product, token.Version, token.HorizontalGrid, token.VerticalGrid, token.DateDOY())
}

// AssetURL returns the location of one band of the granule
func (r MODIS) AssetURL(token common.MODISToken, band string) (AssetLocation, error) {
	bands, err := catalog.MODIS(r.Source, token.Product)
	if err != nil {
		return AssetLocation{}, fmt.Errorf("MODIS.AssetURL: %w", err)
	}
	if err := catalog.CheckBand(band, bands); err != nil {
		return AssetLocation{}, fmt.Errorf("MODIS.AssetURL: %w", err)
	}
	prefix := catalog.MODISBandPrefix(r.Source, token.Product, band)
	return AssetLocation{
		Band: band,
		URL:  fmt.Sprintf("s3://%s/%s/%s_%s%s.TIF", r.Bucket, r.Prefix(token), token.SceneID(), prefix, band),
	}, nil
}

// GridBounds returns the lon/lat bounds of the 10-degree modland grid cell of
// the granule. The sinusoidal tiles are not rectangular in lon/lat, these
// bounds cover the whole cell.
func GridBounds(token common.MODISToken) ([4]float64, error) {
	var h, v int
	if _, err := fmt.Sscanf(token.HorizontalGrid, "%d", &h); err != nil || h < 0 || h > 35 {
		return [4]float64{}, fmt.Errorf("GridBounds: invalid horizontal grid %q", token.HorizontalGrid)
	}
	if _, err := fmt.Sscanf(token.VerticalGrid, "%d", &v); err != nil || v < 0 || v > 17 {
		return [4]float64{}, fmt.Errorf("GridBounds: invalid vertical grid %q", token.VerticalGrid)
	}
	west := -180 + float64(h)*10
	north := 90 - float64(v)*10
	return [4]float64{west, north - 10, west + 10, north}, nil
}
