// Package sidecar fetches the small JSON documents stored next to the scene
// assets: STAC items, tileInfo.json, productInfo.json. These documents hold
// the scene geometry and, for some archives, the list of available bands.
package sidecar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/airbusgeo/pds-reader/interface/raster"
	"github.com/airbusgeo/pds-reader/service"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const httpRetries = 2

// bucketRegions maps the public archives to their home region. GetObject
// fails with a redirect error when the region is wrong, so unknown buckets
// fall back to defaultRegion.
var bucketRegions = map[string]string{
	"usgs-landsat":       "us-west-2",
	"sentinel-s1-l1c":    "eu-central-1",
	"sentinel-s2-l1c":    "eu-central-1",
	"sentinel-s2-l2a":    "eu-central-1",
	"sentinel-cogs":      "us-west-2",
	"cbers-pds":          "us-east-1",
	"modis-pds":          "us-west-2",
	"astraea-opendata":   "us-west-2",
	"copernicus-dem-30m": "eu-central-1",
	"copernicus-dem-90m": "eu-central-1",
}

const defaultRegion = "us-west-2"

// Fetcher retrieves side-car documents over s3:// or https://
type Fetcher struct {
	client *s3.Client
}

// NewFetcher creates a Fetcher with the ambient AWS credentials
func NewFetcher(ctx context.Context) (*Fetcher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(defaultRegion))
	if err != nil {
		return nil, fmt.Errorf("NewFetcher.LoadDefaultConfig: %w", err)
	}
	return &Fetcher{client: s3.NewFromConfig(cfg)}, nil
}

// NewFetcherWithClient creates a Fetcher on an existing client
func NewFetcherWithClient(client *s3.Client) *Fetcher {
	return &Fetcher{client: client}
}

// FetchJSON retrieves the document and unmarshals it into v. A missing
// document is reported as raster.ErrAssetNotFound, a refused access as
// raster.ErrAssetAccessDenied.
func (f *Fetcher) FetchJSON(ctx context.Context, docURL string, requesterPays bool, v interface{}) error {
	body, err := f.Fetch(ctx, docURL, requesterPays)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("FetchJSON[%s]: %w", docURL, err)
	}
	return nil
}

// Fetch retrieves the raw document
func (f *Fetcher) Fetch(ctx context.Context, docURL string, requesterPays bool) ([]byte, error) {
	u, err := url.Parse(docURL)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}
	switch u.Scheme {
	case "s3":
		return f.fetchS3(ctx, u.Host, strings.TrimPrefix(u.Path, "/"), requesterPays)
	case "http", "https":
		body, err := service.GetBodyRetry(docURL, httpRetries)
		if err != nil {
			return nil, fmt.Errorf("Fetch[%s]: %w", docURL, err)
		}
		return body, nil
	}
	return nil, fmt.Errorf("Fetch: unsupported scheme %q", u.Scheme)
}

func (f *Fetcher) fetchS3(ctx context.Context, bucket, key string, requesterPays bool) ([]byte, error) {
	input := s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if requesterPays {
		input.RequestPayer = "requester"
	}
	region := bucketRegions[bucket]
	if region == "" {
		region = defaultRegion
	}
	out, err := f.client.GetObject(ctx, &input, func(o *s3.Options) { o.Region = region })
	if err != nil {
		url := fmt.Sprintf("s3://%s/%s", bucket, key)
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, raster.ErrAssetNotFound{URL: url}
		}
		var respError *awshttp.ResponseError
		if errors.As(err, &respError) {
			switch respError.HTTPStatusCode() {
			case 404:
				return nil, raster.ErrAssetNotFound{URL: url}
			case 403:
				return nil, raster.ErrAssetAccessDenied{URL: url}
			}
		}
		return nil, fmt.Errorf("fetchS3[%s]: %w", url, err)
	}
	defer out.Body.Close()
	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("fetchS3.ReadAll: %w", err)
	}
	return body, nil
}
