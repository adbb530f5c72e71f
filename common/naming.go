package common

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Constellation defines the kind of satellites
type Constellation int

const (
	Unknown   Constellation = iota
	Landsat                 // LXSS_LLLL_PPPRRR_YYYYMMDD_yyyymmdd_CC_TX
	Sentinel1               // MMM_BB_TTTR_LFPP_YYYYMMDDTHHMMSS_YYYYMMDDTHHMMSS_OOOOOO_DDDDDD_CCCC
	Sentinel2               // SMM_LLL_YYYYMMDD_TTTTT_N (legacy) or SMM_TTTTT_YYYYMMDD_N_LLL
	CBERS                   // CBERS_4_III_YYYYMMDD_PPP_RRR_LL
	MODIS                   // PPPPPPP.AYYYYDDD.hHHvVV.VVV.YYYYDDDHHMMSS
)

func (c Constellation) String() string {
	switch c {
	case Landsat:
		return "Landsat"
	case Sentinel1:
		return "Sentinel1"
	case Sentinel2:
		return "Sentinel2"
	case CBERS:
		return "CBERS"
	case MODIS:
		return "MODIS"
	}
	return "Unknown"
}

// GetConstellationFromString returns the constellation from the user input
func GetConstellationFromString(input string) Constellation {
	switch strings.ToLower(input) {
	case "landsat", "landsat-c2":
		return Landsat
	case "sentinel1", "sentinel-1":
		return Sentinel1
	case "sentinel2", "sentinel-2":
		return Sentinel2
	case "cbers", "cbers-4":
		return CBERS
	case "modis":
		return MODIS
	}
	return GetConstellationFromProductId(input)
}

var (
	landsatPrefixRe = regexp.MustCompile(`^L[COTEM]\d{2}_`)
	modisPrefixRe   = regexp.MustCompile(`^M[COY]D\d{2}`)
)

// GetConstellationFromProductId guesses the constellation from a scene identifier
func GetConstellationFromProductId(sceneID string) Constellation {
	switch {
	case strings.HasPrefix(sceneID, "S1"):
		return Sentinel1
	case strings.HasPrefix(sceneID, "S2"):
		return Sentinel2
	case strings.HasPrefix(sceneID, "CBERS"):
		return CBERS
	case landsatPrefixRe.MatchString(sceneID):
		return Landsat
	case modisPrefixRe.MatchString(sceneID):
		return MODIS
	}
	return Unknown
}

// Token is the part common to all scene tokens: the canonical identifier and
// the acquisition date
type Token interface {
	SceneID() string
	Date() time.Time
}

// ErrMalformedIdentifier is returned when a scene identifier does not match
// the grammar of its mission
type ErrMalformedIdentifier struct {
	Constellation Constellation
	ID            string
}

func (e ErrMalformedIdentifier) Error() string {
	return fmt.Sprintf("%q does not match the %s identifier grammar", e.ID, e.Constellation)
}

// ParseSceneID parses a scene identifier of any supported constellation
func ParseSceneID(sceneID string) (Token, error) {
	switch GetConstellationFromProductId(sceneID) {
	case Landsat:
		return ParseLandsatID(sceneID)
	case Sentinel1:
		return ParseSentinel1ID(sceneID)
	case Sentinel2:
		return ParseSentinel2ID(sceneID)
	case CBERS:
		return ParseCBERSID(sceneID)
	case MODIS:
		return ParseMODISID(sceneID)
	}
	return nil, ErrMalformedIdentifier{Unknown, sceneID}
}

// GetDateFromProductId returns the acquisition date of the scene identifier
func GetDateFromProductId(sceneID string) (time.Time, error) {
	token, err := ParseSceneID(sceneID)
	if err != nil {
		return time.Time{}, err
	}
	return token.Date(), nil
}

// matchGroups returns the named groups of the regexp, or nil if the string does not match
func matchGroups(re *regexp.Regexp, s string) map[string]string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	groups := map[string]string{}
	for i, name := range re.SubexpNames() {
		if name != "" {
			groups[name] = m[i]
		}
	}
	return groups
}

var landsatRe = regexp.MustCompile(
	`^L(?P<sensor>[COTEM])(?P<satellite>\d{2})` +
		`_(?P<level>L[12][A-Z]{2})` +
		`_(?P<path>\d{3})(?P<row>\d{3})` +
		`_(?P<acquired>\d{8})` +
		`_(?P<processed>\d{8})` +
		`_(?P<collection>\d{2})` +
		`_(?P<category>T1|T2|RT|A1|A2)$`)

// LandsatToken is the decoded form of a Landsat collection-2 scene identifier
type LandsatToken struct {
	Sensor             string // C (OLI-TIRS), O (OLI), T (TIRS or TM), E (ETM), M (MSS)
	Satellite          string // 01..09, zero-padded
	ProcessingLevel    string // L1TP, L1GT, L1GS, L2SR, L2SP
	Path               string // zero-padded to 3 digits
	Row                string // zero-padded to 3 digits
	AcquisitionDate    time.Time
	ProcessingDate     time.Time
	CollectionNumber   string // 02
	CollectionCategory string // T1, T2, RT (standard) or A1, A2 (albers)
}

// ParseLandsatID parses a Landsat collection-2 scene identifier,
// e.g. LC08_L2SP_001062_20201031_20201106_02_T2
func ParseLandsatID(sceneID string) (LandsatToken, error) {
	g := matchGroups(landsatRe, sceneID)
	if g == nil {
		return LandsatToken{}, ErrMalformedIdentifier{Landsat, sceneID}
	}
	acquired, err := time.Parse("20060102", g["acquired"])
	if err != nil {
		return LandsatToken{}, ErrMalformedIdentifier{Landsat, sceneID}
	}
	processed, err := time.Parse("20060102", g["processed"])
	if err != nil {
		return LandsatToken{}, ErrMalformedIdentifier{Landsat, sceneID}
	}
	return LandsatToken{
		Sensor:             g["sensor"],
		Satellite:          g["satellite"],
		ProcessingLevel:    g["level"],
		Path:               g["path"],
		Row:                g["row"],
		AcquisitionDate:    acquired,
		ProcessingDate:     processed,
		CollectionNumber:   g["collection"],
		CollectionCategory: g["category"],
	}, nil
}

// SceneID implements Token
func (t LandsatToken) SceneID() string {
	return fmt.Sprintf("L%s%s_%s_%s%s_%s_%s_%s_%s",
		t.Sensor, t.Satellite, t.ProcessingLevel, t.Path, t.Row,
		t.AcquisitionDate.Format("20060102"), t.ProcessingDate.Format("20060102"),
		t.CollectionNumber, t.CollectionCategory)
}

// Date implements Token
func (t LandsatToken) Date() time.Time { return t.AcquisitionDate }

// LevelNumber returns the numeric part of the processing level ("1" or "2")
func (t LandsatToken) LevelNumber() string {
	return t.ProcessingLevel[1:2]
}

// SensorFamily returns the sensor family used in the collection-2 storage layout
func (t LandsatToken) SensorFamily() string {
	switch t.Sensor {
	case "C":
		return "oli-tirs"
	case "O":
		return "oli"
	case "E":
		return "etm"
	case "M":
		return "mss"
	case "T":
		if t.Satellite >= "08" {
			return "tirs"
		}
		return "tm"
	}
	return ""
}

// Category returns the storage prefix category: "standard" for T1/T2/RT scenes,
// "albers" for the A1/A2 scenes processed in the Albers projection
func (t LandsatToken) Category() string {
	if strings.HasPrefix(t.CollectionCategory, "A") {
		return "albers"
	}
	return "standard"
}

var sentinel1Re = regexp.MustCompile(
	`^S1(?P<satellite>[AB])` +
		`_(?P<beam>IW|EW)` +
		`_(?P<product>[A-Z]{3})(?P<resolution>[FHM])` +
		`_(?P<level>[0-9])(?P<class>[SA])(?P<polarisation>SH|SV|DH|DV|HH|HV|VV|VH)` +
		`_(?P<start>\d{8}T\d{6})` +
		`_(?P<stop>\d{8}T\d{6})` +
		`_(?P<orbit>[0-9A-Z]{6})` +
		`_(?P<mission>[0-9A-Z]{6})` +
		`_(?P<unique>[0-9A-Z]{4})$`)

// Sentinel1Token is the decoded form of a Sentinel-1 product identifier
type Sentinel1Token struct {
	Satellite     string // A or B
	Beam          string // IW or EW
	ProductType   string // GRD, SLC, ...
	Resolution    string // F, H or M
	Level         string // 1
	ProductClass  string // S or A
	Polarisation  string // SH, SV, DH, DV, HH, HV, VV, VH
	StartDateTime time.Time
	StopDateTime  time.Time
	AbsoluteOrbit string
	MissionTask   string
	UniqueID      string
}

// ParseSentinel1ID parses a Sentinel-1 product identifier,
// e.g. S1A_IW_GRDH_1SDV_20180716T004042_20180716T004107_022812_02792A_FD5B
func ParseSentinel1ID(sceneID string) (Sentinel1Token, error) {
	g := matchGroups(sentinel1Re, sceneID)
	if g == nil {
		return Sentinel1Token{}, ErrMalformedIdentifier{Sentinel1, sceneID}
	}
	// both acquisition timestamps must be valid date-times
	start, err := time.Parse("20060102T150405", g["start"])
	if err != nil {
		return Sentinel1Token{}, ErrMalformedIdentifier{Sentinel1, sceneID}
	}
	stop, err := time.Parse("20060102T150405", g["stop"])
	if err != nil {
		return Sentinel1Token{}, ErrMalformedIdentifier{Sentinel1, sceneID}
	}
	return Sentinel1Token{
		Satellite:     g["satellite"],
		Beam:          g["beam"],
		ProductType:   g["product"],
		Resolution:    g["resolution"],
		Level:         g["level"],
		ProductClass:  g["class"],
		Polarisation:  g["polarisation"],
		StartDateTime: start,
		StopDateTime:  stop,
		AbsoluteOrbit: g["orbit"],
		MissionTask:   g["mission"],
		UniqueID:      g["unique"],
	}, nil
}

// SceneID implements Token
func (t Sentinel1Token) SceneID() string {
	return fmt.Sprintf("S1%s_%s_%s%s_%s%s%s_%s_%s_%s_%s_%s",
		t.Satellite, t.Beam, t.ProductType, t.Resolution,
		t.Level, t.ProductClass, t.Polarisation,
		t.StartDateTime.Format("20060102T150405"), t.StopDateTime.Format("20060102T150405"),
		t.AbsoluteOrbit, t.MissionTask, t.UniqueID)
}

// Date implements Token
func (t Sentinel1Token) Date() time.Time { return t.StartDateTime }

// The two Sentinel-2 naming epochs, tried in this order (first match wins)
var (
	sentinel2LegacyRe = regexp.MustCompile(
		`^S2(?P<satellite>[AB])` +
			`_(?P<level>L[0-2][ABC])` +
			`_(?P<acquired>\d{8})` +
			`_(?P<utm>\d{1,2})(?P<lat>[A-Z])(?P<sq>[A-Z]{2})` +
			`_(?P<num>\d+)$`)
	sentinel2Re = regexp.MustCompile(
		`^S2(?P<satellite>[AB])` +
			`_(?P<utm>\d{1,2})(?P<lat>[A-Z])(?P<sq>[A-Z]{2})` +
			`_(?P<acquired>\d{8})` +
			`_(?P<num>\d+)` +
			`_(?P<level>L[0-2][ABC])$`)
)

// Sentinel2Token is the decoded form of a Sentinel-2 scene identifier (either epoch)
type Sentinel2Token struct {
	Satellite       string // A or B
	ProcessingLevel string // L1C or L2A
	AcquisitionDate time.Time
	UTMZone         string // zero-padded to 2 digits
	LatitudeBand    string
	GridSquare      string
	Num             string
}

// ParseSentinel2ID parses a Sentinel-2 scene identifier. The legacy layout
// (S2A_L1C_20170729_19UDP_0) and the current one (S2A_29RKH_20200219_0_L2A)
// are both accepted.
func ParseSentinel2ID(sceneID string) (Sentinel2Token, error) {
	g := matchGroups(sentinel2LegacyRe, sceneID)
	if g == nil {
		g = matchGroups(sentinel2Re, sceneID)
	}
	if g == nil {
		return Sentinel2Token{}, ErrMalformedIdentifier{Sentinel2, sceneID}
	}
	acquired, err := time.Parse("20060102", g["acquired"])
	if err != nil {
		return Sentinel2Token{}, ErrMalformedIdentifier{Sentinel2, sceneID}
	}
	utm := g["utm"]
	if len(utm) == 1 {
		utm = "0" + utm
	}
	return Sentinel2Token{
		Satellite:       g["satellite"],
		ProcessingLevel: g["level"],
		AcquisitionDate: acquired,
		UTMZone:         utm,
		LatitudeBand:    g["lat"],
		GridSquare:      g["sq"],
		Num:             g["num"],
	}, nil
}

// SceneID implements Token. The canonical form is the current naming epoch,
// whatever the epoch of the parsed identifier.
func (t Sentinel2Token) SceneID() string {
	return fmt.Sprintf("S2%s_%s%s%s_%s_%s_%s",
		t.Satellite, t.UTMZone, t.LatitudeBand, t.GridSquare,
		t.AcquisitionDate.Format("20060102"), t.Num, t.ProcessingLevel)
}

// Date implements Token
func (t Sentinel2Token) Date() time.Time { return t.AcquisitionDate }

// UTMZoneUnpadded returns the utm zone as found in the storage layout (no leading zero)
func (t Sentinel2Token) UTMZoneUnpadded() string {
	return strings.TrimLeft(t.UTMZone, "0")
}

var cbersRe = regexp.MustCompile(
	`^CBERS_(?P<mission>4)` +
		`_(?P<instrument>MUX|AWFI|PAN10M|PAN5M)` +
		`_(?P<acquired>\d{8})` +
		`_(?P<path>\d{3})` +
		`_(?P<row>\d{3})` +
		`_(?P<level>L\d)$`)

// CBERSToken is the decoded form of a CBERS-4 scene identifier
type CBERSToken struct {
	Mission         string // 4
	Instrument      string // MUX, AWFI, PAN10M or PAN5M
	AcquisitionDate time.Time
	Path            string
	Row             string
	ProcessingLevel string // L2, L4, ...
}

// ParseCBERSID parses a CBERS-4 scene identifier,
// e.g. CBERS_4_MUX_20171121_057_094_L2
func ParseCBERSID(sceneID string) (CBERSToken, error) {
	g := matchGroups(cbersRe, sceneID)
	if g == nil {
		return CBERSToken{}, ErrMalformedIdentifier{CBERS, sceneID}
	}
	acquired, err := time.Parse("20060102", g["acquired"])
	if err != nil {
		return CBERSToken{}, ErrMalformedIdentifier{CBERS, sceneID}
	}
	return CBERSToken{
		Mission:         g["mission"],
		Instrument:      g["instrument"],
		AcquisitionDate: acquired,
		Path:            g["path"],
		Row:             g["row"],
		ProcessingLevel: g["level"],
	}, nil
}

// SceneID implements Token
func (t CBERSToken) SceneID() string {
	return fmt.Sprintf("CBERS_%s_%s_%s_%s_%s_%s",
		t.Mission, t.Instrument, t.AcquisitionDate.Format("20060102"),
		t.Path, t.Row, t.ProcessingLevel)
}

// Date implements Token
func (t CBERSToken) Date() time.Time { return t.AcquisitionDate }

var modisRe = regexp.MustCompile(
	`^(?P<product>M[COY]D[0-9]{2}[A-Z0-9]{2})` +
		`\.A(?P<acquired>\d{7})` +
		`\.h(?P<hgrid>\d{2})v(?P<vgrid>\d{2})` +
		`\.(?P<version>\d{3})` +
		`\.(?P<produced>\d{13})$`)

// MODISToken is the decoded form of a MODIS granule identifier
type MODISToken struct {
	Product         string // e.g. MCD43A4
	AcquisitionDate time.Time
	HorizontalGrid  string // 00..35
	VerticalGrid    string // 00..17
	Version         string // e.g. 006
	ProductionStamp string // production date-time, YYYYDDDHHMMSS
}

// ParseMODISID parses a MODIS granule identifier,
// e.g. MCD43A4.A2017006.h21v11.006.2017018074804
func ParseMODISID(sceneID string) (MODISToken, error) {
	g := matchGroups(modisRe, sceneID)
	if g == nil {
		return MODISToken{}, ErrMalformedIdentifier{MODIS, sceneID}
	}
	// acquisition date is year + day-of-year
	acquired, err := time.Parse("2006002", g["acquired"])
	if err != nil {
		return MODISToken{}, ErrMalformedIdentifier{MODIS, sceneID}
	}
	return MODISToken{
		Product:         g["product"],
		AcquisitionDate: acquired,
		HorizontalGrid:  g["hgrid"],
		VerticalGrid:    g["vgrid"],
		Version:         g["version"],
		ProductionStamp: g["produced"],
	}, nil
}

// SceneID implements Token
func (t MODISToken) SceneID() string {
	return fmt.Sprintf("%s.A%s.h%sv%s.%s.%s",
		t.Product, t.AcquisitionDate.Format("2006002"),
		t.HorizontalGrid, t.VerticalGrid, t.Version, t.ProductionStamp)
}

// Date implements Token
func (t MODISToken) Date() time.Time { return t.AcquisitionDate }

// DateDOY returns the acquisition date in the year+day-of-year form used in
// the MODIS storage layout
func (t MODISToken) DateDOY() string {
	return t.AcquisitionDate.Format("2006002")
}
