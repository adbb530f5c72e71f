package resolver

import (
	"fmt"
	"strings"

	"github.com/airbusgeo/pds-reader/catalog"
	"github.com/airbusgeo/pds-reader/common"
)

// CBERS resolves the assets of a CBERS-4 scene. The archive is requester-pays.
type CBERS struct {
	Bucket string
}

// NewCBERS returns a resolver on the configured CBERS archive
func NewCBERS(cfg Config) CBERS {
	return CBERS{Bucket: cfg.CBERSBucket}
}

// Prefix returns the storage prefix of the scene
func (r CBERS) Prefix(token common.CBERSToken) string {
	return fmt.Sprintf("CBERS4/%s/%s/%s/%s",
		token.Instrument, token.Path, token.Row, token.SceneID())
}

// AssetURL returns the location of one band of the scene. The file names
// spell out the band prefix ("B5" is stored as "BAND5").
func (r CBERS) AssetURL(token common.CBERSToken, band string) (AssetLocation, error) {
	bands, err := catalog.CBERS(token)
	if err != nil {
		return AssetLocation{}, fmt.Errorf("CBERS.AssetURL: %w", err)
	}
	if err := catalog.CheckBand(band, bands); err != nil {
		return AssetLocation{}, fmt.Errorf("CBERS.AssetURL: %w", err)
	}
	file := strings.Replace(band, "B", "BAND", 1)
	return AssetLocation{
		Band:          band,
		URL:           fmt.Sprintf("s3://%s/%s/%s_%s.tif", r.Bucket, r.Prefix(token), token.SceneID(), file),
		RequesterPays: true,
	}, nil
}

// ReferenceAssetURL returns the location of the band used to probe the scene
// geometry
func (r CBERS) ReferenceAssetURL(token common.CBERSToken) (AssetLocation, error) {
	ref, err := catalog.CBERSReferenceBand(token.Instrument)
	if err != nil {
		return AssetLocation{}, fmt.Errorf("CBERS.ReferenceAssetURL: %w", err)
	}
	return r.AssetURL(token, ref)
}
