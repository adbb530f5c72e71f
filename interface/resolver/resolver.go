// Package resolver builds the storage locations of the assets of a scene.
// One resolver per archive, each owning the bucket layout of its mission.
// No I/O happens here, except for the side-car documents fetched by the
// readers through interface/sidecar.
package resolver

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// AssetLocation is the resolved location of one band of a scene
type AssetLocation struct {
	Band          string
	URL           string
	RequesterPays bool
}

// Config holds the bucket names of the supported archives. The defaults are
// the public AWS open-data buckets, overridable through the environment for
// mirrored archives.
type Config struct {
	LandsatBucket      string `env:"PDS_LANDSAT_BUCKET" envDefault:"usgs-landsat"`
	Sentinel1Bucket    string `env:"PDS_SENTINEL1_BUCKET" envDefault:"sentinel-s1-l1c"`
	Sentinel2L1CBucket string `env:"PDS_SENTINEL2_L1C_BUCKET" envDefault:"sentinel-s2-l1c"`
	Sentinel2L2ABucket string `env:"PDS_SENTINEL2_L2A_BUCKET" envDefault:"sentinel-s2-l2a"`
	Sentinel2COGBucket string `env:"PDS_SENTINEL2_COG_BUCKET" envDefault:"sentinel-cogs"`
	CBERSBucket        string `env:"PDS_CBERS_BUCKET" envDefault:"cbers-pds"`
	MODISPDSBucket     string `env:"PDS_MODIS_BUCKET" envDefault:"modis-pds"`
	MODISAstraeaBucket string `env:"PDS_MODIS_ASTRAEA_BUCKET" envDefault:"astraea-opendata"`
	DEM30Bucket        string `env:"PDS_DEM_30M_BUCKET" envDefault:"copernicus-dem-30m"`
	DEM90Bucket        string `env:"PDS_DEM_90M_BUCKET" envDefault:"copernicus-dem-90m"`
}

// LoadConfig reads the archive configuration from the environment
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("LoadConfig: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns the configuration of the public AWS archives
func DefaultConfig() Config {
	return Config{
		LandsatBucket:      "usgs-landsat",
		Sentinel1Bucket:    "sentinel-s1-l1c",
		Sentinel2L1CBucket: "sentinel-s2-l1c",
		Sentinel2L2ABucket: "sentinel-s2-l2a",
		Sentinel2COGBucket: "sentinel-cogs",
		CBERSBucket:        "cbers-pds",
		MODISPDSBucket:     "modis-pds",
		MODISAstraeaBucket: "astraea-opendata",
		DEM30Bucket:        "copernicus-dem-30m",
		DEM90Bucket:        "copernicus-dem-90m",
	}
}
