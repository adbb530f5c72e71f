package reader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/airbusgeo/pds-reader/interface/raster"
	"github.com/airbusgeo/pds-reader/interface/resolver"
	"github.com/airbusgeo/pds-reader/service/log"
	"github.com/go-spatial/geom"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoCells is returned when none of the cells covering the requested area
// exists in the archive
var ErrNoCells = errors.New("no cell covers the requested area")

// Mosaic reads the global Copernicus DEM as a single dataset. The archive
// stores one cog per 1x1 degree cell; a tile read opens every intersecting
// cell and keeps, per pixel, the first valid value. Cells over open water do
// not exist in the archive, so a missing cell is not an error.
type Mosaic struct {
	id     string
	dem    resolver.DEM
	grid   raster.TileGrid
	opener raster.Opener

	minzoom int
	maxzoom int

	mu     sync.Mutex
	closed bool
}

// OpenDEM opens the Copernicus DEM mosaic at the given resolution. grid maps
// tile coordinates to lon/lat bounds.
func OpenDEM(ctx context.Context, resolution resolver.DEMResolution, grid raster.TileGrid, opener raster.Opener, opts ...Option) (*Mosaic, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("OpenDEM: %w", err)
	}
	m := &Mosaic{
		id:      uuid.New().String(),
		dem:     resolver.NewDEM(o.cfg, resolution),
		grid:    grid,
		opener:  opener,
		minzoom: 7,
		maxzoom: 8,
	}
	if resolution == resolver.DEM90 {
		m.minzoom, m.maxzoom = 6, 7
	}
	log.Logger(ctx).Debug("dem mosaic opened",
		zap.String("reader", m.id),
		zap.String("resolution", resolution.String()))
	return m, nil
}

// Bounds returns the whole globe: the mosaic has no footprint of its own
func (m *Mosaic) Bounds() [4]float64 { return [4]float64{-180, -90, 180, 90} }

// MinZoom returns the smallest zoom level the mosaic is expected to be
// rendered at
func (m *Mosaic) MinZoom() int { return m.minzoom }

// MaxZoom returns the largest useful zoom level of the mosaic
func (m *Mosaic) MaxZoom() int { return m.maxzoom }

// Close makes the mosaic unusable. Closing twice is an error.
func (m *Mosaic) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosedReader
	}
	m.closed = true
	return nil
}

func (m *Mosaic) checkOpen() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosedReader
	}
	return nil
}

// Tile reads the mosaic over a slippy-map tile
func (m *Mosaic) Tile(ctx context.Context, x, y, z int) (*raster.Image, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	urls := m.dem.AssetsForBounds(m.grid.TileBounds(x, y, z))
	band, err := m.mosaic(ctx, urls, func(ctx context.Context, ds raster.Dataset) (*raster.Band, error) {
		return ds.Tile(ctx, x, y, z)
	})
	if err != nil {
		return nil, fmt.Errorf("Mosaic.Tile: %w", err)
	}
	return raster.NewImage([]string{"b1"}, []*raster.Band{band})
}

// Part reads the mosaic over the bounds [west, south, east, north] at the
// given shape
func (m *Mosaic) Part(ctx context.Context, bounds [4]float64, width, height int) (*raster.Image, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	extent := geom.Extent{bounds[0], bounds[1], bounds[2], bounds[3]}
	band, err := m.mosaic(ctx, m.dem.AssetsForBounds(bounds), func(ctx context.Context, ds raster.Dataset) (*raster.Band, error) {
		return ds.Region(ctx, &extent, width, height)
	})
	if err != nil {
		return nil, fmt.Errorf("Mosaic.Part: %w", err)
	}
	return raster.NewImage([]string{"b1"}, []*raster.Band{band})
}

// Point reads the elevation under the given lon/lat
func (m *Mosaic) Point(ctx context.Context, lon, lat float64) (float64, bool, error) {
	if err := m.checkOpen(); err != nil {
		return 0, false, err
	}
	url := m.dem.AssetURL(lon, lat)
	ds, err := m.opener.Open(ctx, url, false)
	if err != nil {
		if isMissingAsset(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("Mosaic.Point: %w", err)
	}
	defer ds.Close()
	v, valid, err := ds.Point(ctx, lon, lat)
	if err != nil {
		return 0, false, fmt.Errorf("Mosaic.Point: %w", err)
	}
	return v, valid, nil
}

// Info describes the mosaic without touching the archive
func (m *Mosaic) Info() raster.Info {
	return raster.Info{
		Bounds:      m.Bounds(),
		DataType:    "float32",
		NodataType:  "None",
		ColorInterp: []string{"grey"},
	}
}

// Statistics reads the statistics of a representative cell. Statistics over
// the whole mosaic would need to open every cell of the globe.
func (m *Mosaic) Statistics(ctx context.Context) (raster.Statistics, error) {
	if err := m.checkOpen(); err != nil {
		return raster.Statistics{}, err
	}
	ds, err := m.opener.Open(ctx, m.dem.StatisticsAssetURL(), false)
	if err != nil {
		return raster.Statistics{}, fmt.Errorf("Mosaic.Statistics: %w", err)
	}
	defer ds.Close()
	stats, err := ds.Statistics(ctx)
	if err != nil {
		return raster.Statistics{}, fmt.Errorf("Mosaic.Statistics: %w", err)
	}
	return stats, nil
}

// mosaic reads every cell concurrently and merges them first-valid-wins, in
// the order the resolver enumerates the cells
func (m *Mosaic) mosaic(ctx context.Context, urls []string, read func(context.Context, raster.Dataset) (*raster.Band, error)) (*raster.Band, error) {
	ctx = log.With(ctx, "reader", m.id)
	cells := make([]*raster.Band, len(urls))
	wg, ctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		i, url := i, url
		wg.Go(func() error {
			ds, err := m.opener.Open(ctx, url, false)
			if err != nil {
				if isMissingAsset(err) {
					return nil
				}
				return fmt.Errorf("open %s: %w", url, err)
			}
			defer ds.Close()
			band, err := read(ctx, ds)
			if err != nil {
				if isMissingAsset(err) {
					return nil
				}
				return fmt.Errorf("read %s: %w", url, err)
			}
			cells[i] = band
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, err
	}

	var out *raster.Band
	for _, cell := range cells {
		if cell == nil {
			continue
		}
		if out == nil {
			out = raster.NewBand(cell.Width, cell.Height)
		}
		if cell.Width != out.Width || cell.Height != out.Height {
			return nil, fmt.Errorf("inconsistent cell shape %dx%d, expected %dx%d", cell.Width, cell.Height, out.Width, out.Height)
		}
		for i, valid := range cell.Mask {
			if valid && !out.Mask[i] {
				out.Data[i] = cell.Data[i]
				out.Mask[i] = true
			}
		}
	}
	if out == nil {
		return nil, ErrNoCells
	}
	return out, nil
}

func isMissingAsset(err error) bool {
	var notFound raster.ErrAssetNotFound
	return errors.As(err, &notFound)
}
