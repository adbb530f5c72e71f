package resolver

import (
	"fmt"
	"strings"

	"github.com/airbusgeo/pds-reader/catalog"
	"github.com/airbusgeo/pds-reader/common"
)

// Sentinel1 resolves the assets of a Sentinel-1 GRD product. The archive is
// requester-pays.
type Sentinel1 struct {
	Bucket string
}

// NewSentinel1 returns a resolver on the configured Sentinel-1 archive
func NewSentinel1(cfg Config) Sentinel1 {
	return Sentinel1{Bucket: cfg.Sentinel1Bucket}
}

// Prefix returns the storage prefix of the product. The month and day parts
// carry no leading zero in this archive.
func (r Sentinel1) Prefix(token common.Sentinel1Token) string {
	date := token.StartDateTime
	return fmt.Sprintf("%s/%d/%d/%d/%s/%s/%s",
		token.ProductType, date.Year(), int(date.Month()), date.Day(),
		token.Beam, token.Polarisation, token.SceneID())
}

// AssetURL returns the location of one measurement band of the product
func (r Sentinel1) AssetURL(token common.Sentinel1Token, band string) (AssetLocation, error) {
	bands := catalog.Sentinel1(token)
	if err := catalog.CheckBand(band, bands); err != nil {
		return AssetLocation{}, fmt.Errorf("Sentinel1.AssetURL: %w", err)
	}
	return AssetLocation{
		Band:          band,
		URL:           fmt.Sprintf("s3://%s/%s/measurement/%s-%s.tiff", r.Bucket, r.Prefix(token), strings.ToLower(token.Beam), band),
		RequesterPays: true,
	}, nil
}

// ProductInfoURL returns the location of the productInfo.json side-car
// holding the product footprint
func (r Sentinel1) ProductInfoURL(token common.Sentinel1Token) string {
	return fmt.Sprintf("s3://%s/%s/productInfo.json", r.Bucket, r.Prefix(token))
}
