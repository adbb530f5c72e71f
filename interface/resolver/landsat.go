package resolver

import (
	"fmt"

	"github.com/airbusgeo/pds-reader/catalog"
	"github.com/airbusgeo/pds-reader/common"
)

// Landsat resolves the assets of a Landsat collection-2 scene. The usgs
// archive is requester-pays.
type Landsat struct {
	Bucket string
}

// NewLandsat returns a resolver on the configured Landsat archive
func NewLandsat(cfg Config) Landsat {
	return Landsat{Bucket: cfg.LandsatBucket}
}

// Prefix returns the storage prefix of the scene
func (r Landsat) Prefix(token common.LandsatToken) string {
	return fmt.Sprintf("collection02/level-%s/%s/%s/%d/%s/%s/%s",
		token.LevelNumber(), token.Category(), token.SensorFamily(),
		token.AcquisitionDate.Year(), token.Path, token.Row, token.SceneID())
}

// AssetURL returns the location of one band of the scene
func (r Landsat) AssetURL(token common.LandsatToken, band string) (AssetLocation, error) {
	bands, err := catalog.Landsat(token)
	if err != nil {
		return AssetLocation{}, fmt.Errorf("Landsat.AssetURL: %w", err)
	}
	if err := catalog.CheckBand(band, bands); err != nil {
		return AssetLocation{}, fmt.Errorf("Landsat.AssetURL: %w", err)
	}
	return AssetLocation{
		Band:          band,
		URL:           fmt.Sprintf("s3://%s/%s/%s_%s.TIF", r.Bucket, r.Prefix(token), token.SceneID(), band),
		RequesterPays: true,
	}, nil
}

// STACItemURL returns the location of the STAC item describing the scene.
// Level-2 scenes are described by the surface-reflectance item.
func (r Landsat) STACItemURL(token common.LandsatToken) string {
	suffix := "_stac.json"
	if token.LevelNumber() == "2" {
		suffix = "_SR_stac.json"
	}
	return fmt.Sprintf("s3://%s/%s/%s%s", r.Bucket, r.Prefix(token), token.SceneID(), suffix)
}
