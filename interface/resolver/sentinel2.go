package resolver

import (
	"fmt"
	"strings"

	"github.com/airbusgeo/pds-reader/catalog"
	"github.com/airbusgeo/pds-reader/common"
)

// Sentinel2 resolves the assets of a Sentinel-2 scene stored as JPEG2000 in
// the per-level requester-pays archives
type Sentinel2 struct {
	L1CBucket string
	L2ABucket string
}

// NewSentinel2 returns a resolver on the configured Sentinel-2 JPEG2000 archives
func NewSentinel2(cfg Config) Sentinel2 {
	return Sentinel2{L1CBucket: cfg.Sentinel2L1CBucket, L2ABucket: cfg.Sentinel2L2ABucket}
}

func (r Sentinel2) bucket(token common.Sentinel2Token) (string, error) {
	switch token.ProcessingLevel {
	case "L1C":
		return r.L1CBucket, nil
	case "L2A":
		return r.L2ABucket, nil
	}
	return "", fmt.Errorf("unsupported level %q", token.ProcessingLevel)
}

// Prefix returns the storage prefix of the scene. The utm zone, month and
// day parts carry no leading zero in these archives.
func (r Sentinel2) Prefix(token common.Sentinel2Token) string {
	date := token.AcquisitionDate
	return fmt.Sprintf("tiles/%s/%s/%s/%d/%d/%d/%s",
		token.UTMZoneUnpadded(), token.LatitudeBand, token.GridSquare,
		date.Year(), int(date.Month()), date.Day(), token.Num)
}

// AssetURL returns the location of one band of the scene. L2A bands live
// under the directory of the resolution they are produced at.
func (r Sentinel2) AssetURL(token common.Sentinel2Token, band string) (AssetLocation, error) {
	bucket, err := r.bucket(token)
	if err != nil {
		return AssetLocation{}, fmt.Errorf("Sentinel2.AssetURL: %w", err)
	}
	bands, err := catalog.Sentinel2(token)
	if err != nil {
		return AssetLocation{}, fmt.Errorf("Sentinel2.AssetURL: %w", err)
	}
	if token.ProcessingLevel == "L1C" {
		if err := catalog.CheckBand(band, bands); err != nil {
			return AssetLocation{}, fmt.Errorf("Sentinel2.AssetURL: %w", err)
		}
		return AssetLocation{
			Band:          band,
			URL:           fmt.Sprintf("s3://%s/%s/%s.jp2", bucket, r.Prefix(token), band),
			RequesterPays: true,
		}, nil
	}

	res, err := catalog.Sentinel2Resolution(band)
	if err != nil {
		return AssetLocation{}, fmt.Errorf("Sentinel2.AssetURL: %w", err)
	}
	return AssetLocation{
		Band:          band,
		URL:           fmt.Sprintf("s3://%s/%s/R%sm/%s.jp2", bucket, r.Prefix(token), res, band),
		RequesterPays: true,
	}, nil
}

// TileInfoURL returns the location of the tileInfo.json side-car holding the
// tile data geometry
func (r Sentinel2) TileInfoURL(token common.Sentinel2Token) (string, error) {
	bucket, err := r.bucket(token)
	if err != nil {
		return "", fmt.Errorf("Sentinel2.TileInfoURL: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s/tileInfo.json", bucket, r.Prefix(token)), nil
}

// Sentinel2COG resolves the assets of a Sentinel-2 L2A scene from the public
// cloud-optimized mirror
type Sentinel2COG struct {
	Bucket string
}

// NewSentinel2COG returns a resolver on the configured Sentinel-2 COG archive
func NewSentinel2COG(cfg Config) Sentinel2COG {
	return Sentinel2COG{Bucket: cfg.Sentinel2COGBucket}
}

// SceneName returns the scene directory name of the COG archive. It differs
// from the canonical identifier on single-digit utm zones: the archive keeps
// the zone unpadded.
func (r Sentinel2COG) SceneName(token common.Sentinel2Token) string {
	return fmt.Sprintf("S2%s_%s%s%s_%s_%s_%s",
		token.Satellite, token.UTMZoneUnpadded(), token.LatitudeBand, token.GridSquare,
		token.AcquisitionDate.Format("20060102"), token.Num, token.ProcessingLevel)
}

// Prefix returns the storage prefix of the scene. Unlike the JPEG2000
// archives, the month is the only date part of the prefix.
func (r Sentinel2COG) Prefix(token common.Sentinel2Token) string {
	date := token.AcquisitionDate
	return fmt.Sprintf("sentinel-s2-%s-cogs/%s/%s/%s/%d/%d/%s",
		strings.ToLower(token.ProcessingLevel),
		token.UTMZoneUnpadded(), token.LatitudeBand, token.GridSquare,
		date.Year(), int(date.Month()), r.SceneName(token))
}

// AssetURL returns the location of one band of the scene. The valid bands
// depend on the STAC item of the scene, so the caller is expected to have
// validated the band beforehand.
func (r Sentinel2COG) AssetURL(token common.Sentinel2Token, band string) AssetLocation {
	return AssetLocation{
		Band: band,
		URL:  fmt.Sprintf("s3://%s/%s/%s.tif", r.Bucket, r.Prefix(token), band),
	}
}

// STACItemURLs returns the locations of the STAC item describing the scene,
// in the order they should be tried: the public https endpoint first, the
// bucket itself as a fallback
func (r Sentinel2COG) STACItemURLs(token common.Sentinel2Token) []string {
	return []string{
		fmt.Sprintf("https://%s.s3.us-west-2.amazonaws.com/%s/%s.json", r.Bucket, r.Prefix(token), r.SceneName(token)),
		fmt.Sprintf("s3://%s/%s/%s.json", r.Bucket, r.Prefix(token), r.SceneName(token)),
	}
}
