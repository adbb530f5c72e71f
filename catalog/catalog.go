// Package catalog lists the bands available for a scene of each supported
// constellation. The lists are conditional on the fields of the scene token:
// processing level and sensor for Landsat, polarisation for Sentinel-1,
// instrument for CBERS, product and archive for MODIS.
package catalog

import (
	"fmt"
	"strings"

	"github.com/airbusgeo/pds-reader/common"
)

// ErrUnknownBand is returned when a band is not available for a scene
type ErrUnknownBand struct {
	Band  string
	Valid []string
}

func (e ErrUnknownBand) Error() string {
	return fmt.Sprintf("%s is not a valid band name (valid: %s)", e.Band, strings.Join(e.Valid, ", "))
}

// Normalize maps a short band name to its two-digit form ("B2" or "2"
// => "B02"). Band names already in the two-digit form (and names like "B8A")
// are returned unchanged.
func Normalize(band string) string {
	if len(band) == 1 && band[0] >= '0' && band[0] <= '9' {
		return "B0" + band
	}
	if len(band) == 2 && band[0] == 'B' && band[1] >= '0' && band[1] <= '9' {
		return "B0" + band[1:]
	}
	return band
}

// CheckBand returns ErrUnknownBand if the band is not in the valid list
func CheckBand(band string, valid []string) error {
	for _, v := range valid {
		if band == v {
			return nil
		}
	}
	return ErrUnknownBand{band, valid}
}

var (
	landsatQA = []string{"QA_PIXEL", "QA_RADSAT"}

	landsatL1Angles = []string{"SAA", "SZA", "VAA", "VZA"}

	landsatOliSR = []string{"SR_B1", "SR_B2", "SR_B3", "SR_B4", "SR_B5", "SR_B6", "SR_B7", "SR_QA_AEROSOL"}
	landsatTmSR  = []string{"SR_ATMOS_OPACITY", "SR_B1", "SR_B2", "SR_B3", "SR_B4", "SR_B5", "SR_B7", "SR_CLOUD_QA"}

	landsatOliST = []string{"ST_ATRAN", "ST_B10", "ST_CDIST", "ST_DRAD", "ST_EMIS", "ST_EMSD", "ST_QA", "ST_TRAD", "ST_URAD"}
	landsatTmST  = []string{"ST_ATRAN", "ST_B6", "ST_CDIST", "ST_DRAD", "ST_EMIS", "ST_EMSD", "ST_QA", "ST_TRAD", "ST_URAD"}
)

// Landsat returns the bands of a Landsat collection-2 scene. The list depends
// on the processing level and on the sensor family.
func Landsat(token common.LandsatToken) ([]string, error) {
	family := token.SensorFamily()
	if family == "" {
		return nil, fmt.Errorf("catalog.Landsat: unknown sensor %q", token.Sensor)
	}

	if token.LevelNumber() == "2" {
		if family == "mss" {
			return nil, fmt.Errorf("catalog.Landsat: there is no level 2 for the MSS sensor")
		}
		sr, st := landsatOliSR, landsatOliST
		if family == "tm" || family == "etm" {
			sr, st = landsatTmSR, landsatTmST
		}
		if token.ProcessingLevel == "L2SP" {
			return concat(landsatQA, sr, st), nil
		}
		return concat(landsatQA, sr), nil
	}

	var bands []string
	switch family {
	case "oli-tirs":
		bands = []string{"B1", "B2", "B3", "B4", "B5", "B6", "B7", "B8", "B9", "B10", "B11"}
	case "oli":
		bands = []string{"B1", "B2", "B3", "B4", "B5", "B6", "B7", "B8", "B9"}
	case "tirs":
		bands = []string{"B10", "B11"}
	case "tm":
		bands = []string{"B1", "B2", "B3", "B4", "B5", "B6", "B7"}
	case "etm":
		bands = []string{"B1", "B2", "B3", "B4", "B5", "B6", "B7", "B8"}
	case "mss":
		return concat([]string{"B4", "B5", "B6", "B7"}, landsatQA), nil
	}
	return concat(bands, landsatQA, landsatL1Angles), nil
}

func concat(lists ...[]string) []string {
	var all []string
	for _, l := range lists {
		all = append(all, l...)
	}
	return all
}

// Sentinel1 returns the measurement bands of a Sentinel-1 GRD product,
// derived from its polarisation
func Sentinel1(token common.Sentinel1Token) []string {
	switch token.Polarisation {
	case "SH", "HH":
		return []string{"hh"}
	case "SV", "VV":
		return []string{"vv"}
	case "DH", "HV":
		return []string{"hh", "hv"}
	case "DV", "VH":
		return []string{"vv", "vh"}
	}
	return nil
}

var (
	sentinel2L1CBands = []string{"B01", "B02", "B03", "B04", "B05", "B06", "B07", "B08", "B09", "B10", "B11", "B12", "B8A"}
	sentinel2L2ABands = []string{"B01", "B02", "B03", "B04", "B05", "B06", "B07", "B08", "B09", "B11", "B12", "B8A"}

	// highest resolution at which each L2A band is produced
	sentinel2L2AResolutions = map[string][]string{
		"10": {"B02", "B03", "B04", "B08"},
		"20": {"B05", "B06", "B07", "B11", "B12", "B8A"},
		"60": {"B01", "B09"},
	}

	sentinel2L2AProducts = map[string][]string{
		"10": {"AOT", "WVP"},
		"20": {"AOT", "SCL", "WVP"},
		"60": {"AOT", "SCL", "WVP"},
	}
)

// Sentinel2 returns the bands of a Sentinel-2 scene at the given processing level
func Sentinel2(token common.Sentinel2Token) ([]string, error) {
	switch token.ProcessingLevel {
	case "L1C":
		return sentinel2L1CBands, nil
	case "L2A":
		return sentinel2L2ABands, nil
	}
	return nil, fmt.Errorf("catalog.Sentinel2: unsupported level %q", token.ProcessingLevel)
}

// Sentinel2Resolution returns the storage resolution (in meters) of an L2A
// band or derived product
func Sentinel2Resolution(band string) (string, error) {
	for res, bands := range sentinel2L2AResolutions {
		for _, b := range bands {
			if b == band {
				return res, nil
			}
		}
	}
	// derived products are stored at every resolution, take the finest
	for _, res := range []string{"10", "20", "60"} {
		for _, b := range sentinel2L2AProducts[res] {
			if b == band {
				return res, nil
			}
		}
	}
	return "", ErrUnknownBand{band, sentinel2L2ABands}
}

// cbersBands lists, per instrument, the available bands and the reference
// band used to probe the scene geometry
var cbersBands = map[string]struct {
	Bands     []string
	Reference string
}{
	"MUX":    {[]string{"B5", "B6", "B7", "B8"}, "B6"},
	"AWFI":   {[]string{"B13", "B14", "B15", "B16"}, "B14"},
	"PAN10M": {[]string{"B2", "B3", "B4"}, "B4"},
	"PAN5M":  {[]string{"B1"}, "B1"},
}

// CBERS returns the bands of a CBERS-4 scene, depending on its instrument
func CBERS(token common.CBERSToken) ([]string, error) {
	p, ok := cbersBands[token.Instrument]
	if !ok {
		return nil, fmt.Errorf("catalog.CBERS: unsupported instrument %q", token.Instrument)
	}
	return p.Bands, nil
}

// CBERSReferenceBand returns the band used to probe the geometry of a CBERS-4 scene
func CBERSReferenceBand(instrument string) (string, error) {
	p, ok := cbersBands[instrument]
	if !ok {
		return "", fmt.Errorf("catalog.CBERSReferenceBand: unsupported instrument %q", instrument)
	}
	return p.Reference, nil
}

// MODISSource is the archive a MODIS granule is read from. The same product
// may be available in several archives with different layouts, so the source
// is always chosen by the caller.
type MODISSource int

const (
	SourcePDS MODISSource = iota
	SourceAstraea
)

func (s MODISSource) String() string {
	if s == SourceAstraea {
		return "astraea"
	}
	return "pds"
}

var (
	modisGridBands = []string{"B01", "B02", "B03", "B04", "B05", "B06", "B07", "B08", "B09", "B10", "B11", "B12"}

	modisPDSProducts = map[string][]string{
		"MCD43A4": {"B01", "B01qa", "B02", "B02qa", "B03", "B03qa", "B04", "B04qa", "B05", "B05qa", "B06", "B06qa", "B07", "B07qa"},
		"MOD09GQ": {"B01", "B02", "granule", "numobs", "obscov", "obsnum", "orbit", "qc"},
		"MYD09GQ": {"B01", "B02", "granule", "numobs", "obscov", "obsnum", "orbit", "qc"},
		"MOD09GA": {"B01", "B02", "B03", "B04", "B05", "B06", "B07", "geoflags", "granule", "numobs1km", "numobs500m", "obscov", "obsnum", "orbit", "qc500m", "qscan", "range", "senaz", "senzen", "solaz", "solzen", "state"},
		"MYD09GA": {"B01", "B02", "B03", "B04", "B05", "B06", "B07", "geoflags", "granule", "numobs1km", "numobs500m", "obscov", "obsnum", "orbit", "qc500m", "qscan", "range", "senaz", "senzen", "solaz", "solzen", "state"},
	}

	// the astraea archive stores one file per band with a product-specific prefix
	modisAstraeaPrefixes = map[string]map[string]string{
		"MOD11A1": modis11Prefixes,
		"MYD11A1": modis11Prefixes,
		"MOD13A1": modis13Prefixes,
		"MYD13A1": modis13Prefixes,
	}

	modis11Prefixes = map[string]string{
		"B01": "LSTD_", "B02": "QCD_", "B03": "DVT_", "B04": "DVA_",
		"B05": "LSTN_", "B06": "QCN_", "B07": "NVT_", "B08": "NVA_",
		"B09": "E31_", "B10": "E32_", "B11": "CDC_", "B12": "CNC_",
	}
	modis13Prefixes = map[string]string{
		"B01": "NDVI_", "B02": "EVI_", "B03": "VIQ_", "B04": "RR_",
		"B05": "NIRR_", "B06": "BR_", "B07": "MIRR_", "B08": "VZA_",
		"B09": "SZA_", "B10": "RAA_", "B11": "CDOY_", "B12": "PR_",
	}
)

// MODIS returns the bands of a MODIS granule in the given archive
func MODIS(source MODISSource, product string) ([]string, error) {
	switch source {
	case SourcePDS:
		if bands, ok := modisPDSProducts[product]; ok {
			return bands, nil
		}
	case SourceAstraea:
		if product == "MCD43A4" {
			return modisPDSProducts["MCD43A4"], nil
		}
		if _, ok := modisAstraeaPrefixes[product]; ok {
			return modisGridBands, nil
		}
	}
	return nil, fmt.Errorf("catalog.MODIS: product %q is not available in the %s archive", product, source)
}

// MODISBandPrefix returns the file-name prefix of the band in the astraea
// archive ("" for the pds archive and for MCD43A4)
func MODISBandPrefix(source MODISSource, product, band string) string {
	if source != SourceAstraea {
		return ""
	}
	return modisAstraeaPrefixes[product][band]
}
