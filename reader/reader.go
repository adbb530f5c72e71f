// Package reader orchestrates multi-band reads over the scenes of the
// supported archives. One Reader per scene: the constructor settles the band
// list and the geometry, the operations fan out one raster access per band
// and merge the results in the requested order.
package reader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/airbusgeo/pds-reader/interface/raster"
	"github.com/airbusgeo/pds-reader/interface/resolver"
	"github.com/airbusgeo/pds-reader/interface/sidecar"
	"github.com/airbusgeo/pds-reader/service/log"
	"github.com/go-spatial/geom"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrClosedReader is returned by every operation after Close
var ErrClosedReader = errors.New("reader is closed")

// ErrInvalidRequest is returned when a request is rejected before any asset
// is accessed
type ErrInvalidRequest struct {
	Reason string
}

func (e ErrInvalidRequest) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

type options struct {
	cfg     resolver.Config
	cfgSet  bool
	fetcher *sidecar.Fetcher
}

// Option configures the opening of a Reader
type Option func(*options)

// WithConfig overrides the archive configuration (default: from the environment)
func WithConfig(cfg resolver.Config) Option {
	return func(o *options) { o.cfg = cfg; o.cfgSet = true }
}

// WithFetcher sets the side-car fetcher (default: ambient AWS credentials)
func WithFetcher(f *sidecar.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

func newOptions(opts []Option) (options, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !o.cfgSet {
		cfg, err := resolver.LoadConfig()
		if err != nil {
			return options{}, err
		}
		o.cfg = cfg
	}
	return o, nil
}

// getFetcher builds the default side-car fetcher on first use, so that the
// missions without side-car documents never need AWS credentials
func (o *options) getFetcher(ctx context.Context) (*sidecar.Fetcher, error) {
	if o.fetcher == nil {
		f, err := sidecar.NewFetcher(ctx)
		if err != nil {
			return nil, err
		}
		o.fetcher = f
	}
	return o.fetcher, nil
}

// Query selects the output of a pixel operation: either a list of bands or a
// band-algebra expression, never both
type Query struct {
	Bands      []string
	Expression string
}

// Reader reads the bands of one scene. It is unusable after Close.
type Reader struct {
	id      string
	scene   Scene
	opener  raster.Opener
	bounds  [4]float64
	minzoom int
	maxzoom int

	mu     sync.Mutex
	closed bool
}

func newReader(ctx context.Context, scene Scene, opener raster.Opener, bounds [4]float64, minzoom, maxzoom int) *Reader {
	r := &Reader{
		id:      uuid.New().String(),
		scene:   scene,
		opener:  opener,
		bounds:  bounds,
		minzoom: minzoom,
		maxzoom: maxzoom,
	}
	log.Logger(ctx).Debug("scene opened",
		zap.String("reader", r.id),
		zap.String("scene", scene.SceneID()),
		zap.Int("bands", len(scene.Bands())))
	return r
}

// SceneID returns the canonical identifier of the scene
func (r *Reader) SceneID() string { return r.scene.SceneID() }

// Bands returns the bands available for the scene
func (r *Reader) Bands() []string { return append([]string(nil), r.scene.Bands()...) }

// Bounds returns the geometry settled at open time, [west, south, east,
// north] (native grid for the Sentinel-2 JPEG2000 archives, lon/lat
// elsewhere)
func (r *Reader) Bounds() [4]float64 { return r.bounds }

// MinZoom returns the smallest zoom level the scene is expected to be
// rendered at
func (r *Reader) MinZoom() int { return r.minzoom }

// MaxZoom returns the largest useful zoom level of the scene
func (r *Reader) MaxZoom() int { return r.maxzoom }

// Close makes the reader unusable. Closing twice is an error.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosedReader
	}
	r.closed = true
	return nil
}

func (r *Reader) checkOpen() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosedReader
	}
	return nil
}

// resolveQuery validates the query and returns the bands to read and, for an
// expression query, the parsed expression. All validation happens here,
// before any asset is accessed.
func (r *Reader) resolveQuery(q Query) ([]string, *Expression, error) {
	if len(q.Bands) > 0 && q.Expression != "" {
		return nil, nil, ErrInvalidRequest{"bands and expression are mutually exclusive"}
	}
	if len(q.Bands) == 0 && q.Expression == "" {
		return nil, nil, ErrInvalidRequest{"either bands or expression is required"}
	}

	if q.Expression != "" {
		expr, err := ParseExpression(q.Expression)
		if err != nil {
			return nil, nil, err
		}
		bands := make([]string, len(expr.RequiredBands()))
		for i, band := range expr.RequiredBands() {
			bands[i] = r.scene.Normalize(band)
			if _, err := r.scene.AssetURL(bands[i]); err != nil {
				return nil, nil, ErrExpression{Expression: q.Expression, Reason: err.Error()}
			}
		}
		return bands, expr, nil
	}

	bands := make([]string, len(q.Bands))
	for i, band := range q.Bands {
		bands[i] = r.scene.Normalize(band)
		if _, err := r.scene.AssetURL(bands[i]); err != nil {
			return nil, nil, err
		}
	}
	return bands, nil, nil
}

// readBands opens every band concurrently and applies read on each dataset.
// Results come back in band order. A single failure cancels the others and
// fails the whole call.
func (r *Reader) readBands(ctx context.Context, bands []string, read func(context.Context, raster.Dataset) (*raster.Band, error)) ([]*raster.Band, error) {
	ctx = log.With(ctx, "reader", r.id)
	out := make([]*raster.Band, len(bands))
	wg, ctx := errgroup.WithContext(ctx)
	for i, band := range bands {
		i, band := i, band
		wg.Go(func() error {
			loc, err := r.scene.AssetURL(band)
			if err != nil {
				return err
			}
			ds, err := r.opener.Open(ctx, loc.URL, loc.RequesterPays)
			if err != nil {
				return fmt.Errorf("open %s: %w", loc.URL, err)
			}
			defer ds.Close()
			b, err := read(ctx, ds)
			if err != nil {
				return fmt.Errorf("read %s: %w", loc.URL, err)
			}
			out[i] = b
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// merge assembles the bands into the output image, evaluating the expression
// when the query carries one
func merge(bands []string, data []*raster.Band, expr *Expression) (*raster.Image, error) {
	img, err := raster.NewImage(bands, data)
	if err != nil {
		return nil, err
	}
	if expr == nil {
		return img, nil
	}

	env := make(map[string][]float64, len(bands))
	for i, band := range bands {
		env[band] = img.Data[i]
	}
	// expressions refer to bands by their source spelling
	for i, band := range expr.RequiredBands() {
		if band != bands[i] {
			env[band] = img.Data[i]
		}
	}
	values, err := expr.Evaluate(env, img.Mask, img.Width*img.Height)
	if err != nil {
		return nil, err
	}
	return &raster.Image{
		Bands:  expr.Labels(),
		Data:   values,
		Mask:   img.Mask,
		Width:  img.Width,
		Height: img.Height,
	}, nil
}

func (r *Reader) readImage(ctx context.Context, q Query, read func(context.Context, raster.Dataset) (*raster.Band, error)) (*raster.Image, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	bands, expr, err := r.resolveQuery(q)
	if err != nil {
		return nil, err
	}
	data, err := r.readBands(ctx, bands, read)
	if err != nil {
		return nil, err
	}
	return merge(bands, data, expr)
}

// Tile reads the scene over a slippy-map tile
func (r *Reader) Tile(ctx context.Context, x, y, z int, q Query) (*raster.Image, error) {
	return r.readImage(ctx, q, func(ctx context.Context, ds raster.Dataset) (*raster.Band, error) {
		return ds.Tile(ctx, x, y, z)
	})
}

// Part reads the scene over the bounds [west, south, east, north] at the
// given shape
func (r *Reader) Part(ctx context.Context, bounds [4]float64, width, height int, q Query) (*raster.Image, error) {
	extent := geom.Extent{bounds[0], bounds[1], bounds[2], bounds[3]}
	return r.readImage(ctx, q, func(ctx context.Context, ds raster.Dataset) (*raster.Band, error) {
		return ds.Region(ctx, &extent, width, height)
	})
}

// Preview reads a downsampled rendition of the scene
func (r *Reader) Preview(ctx context.Context, width, height int, q Query) (*raster.Image, error) {
	return r.readImage(ctx, q, func(ctx context.Context, ds raster.Dataset) (*raster.Band, error) {
		return ds.Preview(ctx, width, height)
	})
}

// Feature reads the scene over a geojson-like geometry at the given shape
func (r *Reader) Feature(ctx context.Context, g geom.Geometry, width, height int, q Query) (*raster.Image, error) {
	return r.readImage(ctx, q, func(ctx context.Context, ds raster.Dataset) (*raster.Band, error) {
		return ds.Region(ctx, g, width, height)
	})
}

// Point reads the values under the given lon/lat. It returns the output
// band names and one value per band (or per expression term).
func (r *Reader) Point(ctx context.Context, lon, lat float64, q Query) ([]string, []float64, error) {
	if err := r.checkOpen(); err != nil {
		return nil, nil, err
	}
	bands, expr, err := r.resolveQuery(q)
	if err != nil {
		return nil, nil, err
	}
	data, err := r.readBands(ctx, bands, func(ctx context.Context, ds raster.Dataset) (*raster.Band, error) {
		v, valid, err := ds.Point(ctx, lon, lat)
		if err != nil {
			return nil, err
		}
		return &raster.Band{Data: []float64{v}, Mask: []bool{valid}, Width: 1, Height: 1}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	img, err := merge(bands, data, expr)
	if err != nil {
		return nil, nil, err
	}
	values := make([]float64, len(img.Data))
	for i := range img.Data {
		values[i] = img.Data[i][0]
	}
	return img.Bands, values, nil
}

// Info returns the metadata of each band (all the bands of the scene if none
// is given), in the requested order
func (r *Reader) Info(ctx context.Context, bands ...string) ([]raster.BandInfo, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	bands, err := r.allOrNormalized(bands)
	if err != nil {
		return nil, err
	}

	ctx = log.With(ctx, "reader", r.id)
	out := make([]raster.BandInfo, len(bands))
	wg, ctx := errgroup.WithContext(ctx)
	for i, band := range bands {
		i, band := i, band
		wg.Go(func() error {
			loc, err := r.scene.AssetURL(band)
			if err != nil {
				return err
			}
			ds, err := r.opener.Open(ctx, loc.URL, loc.RequesterPays)
			if err != nil {
				return fmt.Errorf("open %s: %w", loc.URL, err)
			}
			defer ds.Close()
			info, err := ds.Info(ctx)
			if err != nil {
				return fmt.Errorf("info %s: %w", loc.URL, err)
			}
			out[i] = raster.BandInfo{Band: band, Info: info}
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Statistics returns the pixel statistics of each band (all the bands of the
// scene if none is given), in the requested order
func (r *Reader) Statistics(ctx context.Context, bands ...string) ([]raster.BandStatistics, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	bands, err := r.allOrNormalized(bands)
	if err != nil {
		return nil, err
	}

	ctx = log.With(ctx, "reader", r.id)
	out := make([]raster.BandStatistics, len(bands))
	wg, ctx := errgroup.WithContext(ctx)
	for i, band := range bands {
		i, band := i, band
		wg.Go(func() error {
			loc, err := r.scene.AssetURL(band)
			if err != nil {
				return err
			}
			ds, err := r.opener.Open(ctx, loc.URL, loc.RequesterPays)
			if err != nil {
				return fmt.Errorf("open %s: %w", loc.URL, err)
			}
			defer ds.Close()
			stats, err := ds.Statistics(ctx)
			if err != nil {
				return fmt.Errorf("statistics %s: %w", loc.URL, err)
			}
			out[i] = raster.BandStatistics{Band: band, Statistics: stats}
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reader) allOrNormalized(bands []string) ([]string, error) {
	if len(bands) == 0 {
		return r.scene.Bands(), nil
	}
	normalized := make([]string, len(bands))
	for i, band := range bands {
		normalized[i] = r.scene.Normalize(band)
		if _, err := r.scene.AssetURL(normalized[i]); err != nil {
			return nil, err
		}
	}
	return normalized, nil
}
