// Package raster defines the contract with the raster backend that decodes
// pixels from cloud-optimized assets. The readers of this module resolve
// asset locations and orchestrate the calls, the backend does the I/O.
package raster

import (
	"context"
	"fmt"

	"github.com/go-spatial/geom"
)

// ErrAssetNotFound is returned when the asset does not exist in the archive
type ErrAssetNotFound struct {
	URL string
}

func (e ErrAssetNotFound) Error() string {
	return fmt.Sprintf("asset not found: %s", e.URL)
}

// ErrAssetAccessDenied is returned when the archive refuses access to the
// asset (e.g. missing requester-pays opt-in)
type ErrAssetAccessDenied struct {
	URL string
}

func (e ErrAssetAccessDenied) Error() string {
	return fmt.Sprintf("access denied: %s", e.URL)
}

// Band is a single-band pixel array read from one asset. Mask flags the
// valid pixels (len(Mask) == len(Data) == Width*Height, row-major).
type Band struct {
	Data   []float64
	Mask   []bool
	Width  int
	Height int
}

// NewBand returns an all-invalid band of the given shape
func NewBand(width, height int) *Band {
	return &Band{
		Data:   make([]float64, width*height),
		Mask:   make([]bool, width*height),
		Width:  width,
		Height: height,
	}
}

// Image stacks several bands of identical shape, in the order they were
// requested. Mask flags the pixels that are valid in every band.
type Image struct {
	Bands  []string
	Data   [][]float64
	Mask   []bool
	Width  int
	Height int
}

// NewImage assembles the bands into an image. All bands must have the same
// shape.
func NewImage(names []string, bands []*Band) (*Image, error) {
	if len(names) != len(bands) || len(bands) == 0 {
		return nil, fmt.Errorf("NewImage: expected %d bands, got %d", len(names), len(bands))
	}
	img := Image{
		Bands:  names,
		Data:   make([][]float64, len(bands)),
		Width:  bands[0].Width,
		Height: bands[0].Height,
	}
	img.Mask = make([]bool, img.Width*img.Height)
	copy(img.Mask, bands[0].Mask)
	for i, b := range bands {
		if b.Width != img.Width || b.Height != img.Height {
			return nil, fmt.Errorf("NewImage: band %s is %dx%d, expected %dx%d", names[i], b.Width, b.Height, img.Width, img.Height)
		}
		img.Data[i] = b.Data
		for j, valid := range b.Mask {
			img.Mask[j] = img.Mask[j] && valid
		}
	}
	return &img, nil
}

// Info describes one asset
type Info struct {
	Bounds      [4]float64 `json:"bounds"` // lon/lat, [west, south, east, north]
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	DataType    string     `json:"dtype"`
	NodataType  string     `json:"nodata_type"`
	ColorInterp []string   `json:"colorinterp,omitempty"`
	Overviews   []int      `json:"overviews,omitempty"`
}

// BandInfo pairs a band name with the metadata of its asset. Slices of
// BandInfo keep the order the bands were requested in.
type BandInfo struct {
	Band string `json:"band"`
	Info
}

// Statistics summarizes the pixel values of one asset
type Statistics struct {
	Min          float64            `json:"min"`
	Max          float64            `json:"max"`
	Mean         float64            `json:"mean"`
	Std          float64            `json:"std"`
	ValidPercent float64            `json:"valid_percent"`
	Histogram    [][2]float64       `json:"histogram,omitempty"`
	Percentiles  map[string]float64 `json:"percentiles,omitempty"`
}

// BandStatistics pairs a band name with the statistics of its asset
type BandStatistics struct {
	Band string `json:"band"`
	Statistics
}

// Dataset is an open handle on one asset
type Dataset interface {
	Info(ctx context.Context) (Info, error)
	Statistics(ctx context.Context) (Statistics, error)
	// Tile reads the asset over the given slippy-map tile
	Tile(ctx context.Context, x, y, z int) (*Band, error)
	// Region reads the asset over the given geometry (a *geom.Extent for a
	// plain bounding-box read) at the given shape
	Region(ctx context.Context, g geom.Geometry, width, height int) (*Band, error)
	// Preview reads a downsampled rendition of the whole asset
	Preview(ctx context.Context, width, height int) (*Band, error)
	// Point reads the value under the given lon/lat
	Point(ctx context.Context, lon, lat float64) (float64, bool, error)
	Close() error
}

// Opener opens an asset. Implementations are expected to honor requester-pays
// process-wide; the readers pass the flag for information.
type Opener interface {
	Open(ctx context.Context, url string, requesterPays bool) (Dataset, error)
}

// TileGrid maps slippy-map tile coordinates to geographic bounds. It is used
// by the mosaic reader to know which cells a tile intersects.
type TileGrid interface {
	// TileBounds returns the lon/lat bounds [west, south, east, north] of the tile
	TileBounds(x, y, z int) [4]float64
}
