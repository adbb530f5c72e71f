package resolver

import (
	"fmt"
	"math"
)

// DEMResolution selects one of the two Copernicus DEM archives
type DEMResolution int

const (
	DEM30 DEMResolution = iota
	DEM90
)

func (r DEMResolution) String() string {
	if r == DEM90 {
		return "90m"
	}
	return "30m"
}

// DEM resolves the 1x1 degree cells of the Copernicus DEM mosaic. Both
// archives are public.
type DEM struct {
	Bucket string
	// resolution code used in the object names: 10 for the 30m archive,
	// 30 for the 90m archive
	Code string

	resolution DEMResolution
}

// NewDEM returns a resolver on the configured archive for the given resolution
func NewDEM(cfg Config, resolution DEMResolution) DEM {
	if resolution == DEM90 {
		return DEM{Bucket: cfg.DEM90Bucket, Code: "30", resolution: DEM90}
	}
	return DEM{Bucket: cfg.DEM30Bucket, Code: "10", resolution: DEM30}
}

func (r DEM) cellName(lon, lat float64) string {
	northsouth, eastwest := "N", "E"
	if lat < 0 {
		northsouth = "S"
	}
	if lon < 0 {
		eastwest = "W"
	}
	latCell := int(math.Abs(math.Floor(lat)))
	lonCell := int(math.Abs(math.Floor(lon)))
	return fmt.Sprintf("Copernicus_DSM_COG_%s_%s%02d_00_%s%03d_00_DEM", r.Code, northsouth, latCell, eastwest, lonCell)
}

// AssetURL returns the location of the cell covering the given point
func (r DEM) AssetURL(lon, lat float64) string {
	name := r.cellName(lon, lat)
	return fmt.Sprintf("s3://%s/%s/%s.tif", r.Bucket, name, name)
}

// AssetsForBounds enumerates the cells intersecting the lon/lat bounds
// [west, south, east, north], westmost column first
func (r DEM) AssetsForBounds(bounds [4]float64) []string {
	xmin, xmax := int(bounds[0]+360), int(bounds[2]+360)
	ymin, ymax := int(bounds[1]+180), int(bounds[3]+180)

	var urls []string
	for x := xmin; x <= xmax; x++ {
		for y := ymin; y <= ymax; y++ {
			urls = append(urls, r.AssetURL(float64(x-360), float64(y-180)))
		}
	}
	return urls
}

// StatisticsAssetURL returns the representative cell whose statistics stand
// in for the whole mosaic
func (r DEM) StatisticsAssetURL() string {
	if r.resolution == DEM90 {
		name := fmt.Sprintf("Copernicus_DSM_COG_%s_S90_00_W164_00_DEM", r.Code)
		return fmt.Sprintf("s3://%s/%s/%s.tif", r.Bucket, name, name)
	}
	name := fmt.Sprintf("Copernicus_DSM_COG_%s_N00_00_E006_00_DEM", r.Code)
	return fmt.Sprintf("s3://%s/%s/%s.tif", r.Bucket, name, name)
}
