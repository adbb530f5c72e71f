package common

import (
	"errors"
	"testing"
	"time"
)

func checkValue(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("expected %s for %s, got %s", want, field, got)
	}
}

func TestConstellationFromProductId(t *testing.T) {
	for sceneID, constellation := range map[string]Constellation{
		"LC08_L2SP_001062_20201031_20201106_02_T2":                            Landsat,
		"LE07_L2SP_001062_20201031_20201106_02_T2":                            Landsat,
		"S1A_IW_GRDH_1SDV_20180716T004042_20180716T004107_022812_02792A_FD5B": Sentinel1,
		"S2A_29RKH_20200219_0_L2A":                                            Sentinel2,
		"S2A_L1C_20170729_19UDP_0":                                            Sentinel2,
		"CBERS_4_MUX_20171121_057_094_L2":                                     CBERS,
		"MCD43A4.A2017006.h21v11.006.2017018074804":                           MODIS,
		"foo": Unknown,
	} {
		if c := GetConstellationFromProductId(sceneID); c != constellation {
			t.Errorf("expected %s for %s, got %s", constellation, sceneID, c)
		}
	}
}

func TestParseLandsatID(t *testing.T) {
	token, err := ParseLandsatID("LC08_L2SP_001062_20201031_20201106_02_T2")
	if err != nil {
		t.Fatal(err)
	}
	checkValue(t, "sensor", token.Sensor, "C")
	checkValue(t, "satellite", token.Satellite, "08")
	checkValue(t, "level", token.ProcessingLevel, "L2SP")
	checkValue(t, "path", token.Path, "001")
	checkValue(t, "row", token.Row, "062")
	checkValue(t, "collection", token.CollectionNumber, "02")
	checkValue(t, "category", token.CollectionCategory, "T2")
	checkValue(t, "levelNumber", token.LevelNumber(), "2")
	checkValue(t, "sensorFamily", token.SensorFamily(), "oli-tirs")
	checkValue(t, "category", token.Category(), "standard")
	if !token.AcquisitionDate.Equal(time.Date(2020, 10, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("wrong acquisition date: %v", token.AcquisitionDate)
	}
	checkValue(t, "sceneID", token.SceneID(), "LC08_L2SP_001062_20201031_20201106_02_T2")
}

func TestParseLandsatIDSensorFamilies(t *testing.T) {
	for sceneID, family := range map[string]string{
		"LO08_L1TP_001062_20201031_20201106_02_T2": "oli",
		"LT08_L1TP_001062_20201031_20201106_02_T2": "tirs",
		"LT05_L2SP_014016_20071202_20200828_02_T1": "tm",
		"LE07_L2SP_014016_20071202_20200828_02_T1": "etm",
		"LM05_L1TP_014016_19840710_20200902_02_T2": "mss",
	} {
		token, err := ParseLandsatID(sceneID)
		if err != nil {
			t.Fatal(err)
		}
		checkValue(t, "sensorFamily", token.SensorFamily(), family)
	}
}

func TestParseLandsatIDAlbers(t *testing.T) {
	token, err := ParseLandsatID("LC08_L2SR_122108_20201031_20201106_02_A1")
	if err != nil {
		t.Fatal(err)
	}
	checkValue(t, "category", token.Category(), "albers")
}

func TestParseLandsatIDMalformed(t *testing.T) {
	for _, sceneID := range []string{
		"LC08_L2SP_001062_20201031_20201106_02",     // missing category
		"LC08_L2SP_001062_20201031_20201106_02_T3",  // bad category
		"LX08_L2SP_001062_20201031_20201106_02_T2",  // bad sensor
		"LC08_L2SP_001062_20201331_20201106_02_T2",  // month 13
		"LC08_L2SP_00106_20201031_20201106_02_T2",   // short path/row
		"aLC08_L2SP_001062_20201031_20201106_02_T2", // leading junk
	} {
		if _, err := ParseLandsatID(sceneID); err == nil {
			t.Errorf("expected error for %s", sceneID)
		} else {
			var malformed ErrMalformedIdentifier
			if !errors.As(err, &malformed) {
				t.Errorf("expected ErrMalformedIdentifier for %s, got %v", sceneID, err)
			}
		}
	}
}

func TestParseSentinel1ID(t *testing.T) {
	token, err := ParseSentinel1ID("S1A_IW_GRDH_1SDV_20180716T004042_20180716T004107_022812_02792A_FD5B")
	if err != nil {
		t.Fatal(err)
	}
	checkValue(t, "satellite", token.Satellite, "A")
	checkValue(t, "beam", token.Beam, "IW")
	checkValue(t, "product", token.ProductType, "GRD")
	checkValue(t, "resolution", token.Resolution, "H")
	checkValue(t, "level", token.Level, "1")
	checkValue(t, "class", token.ProductClass, "S")
	checkValue(t, "polarisation", token.Polarisation, "DV")
	checkValue(t, "orbit", token.AbsoluteOrbit, "022812")
	checkValue(t, "missionTask", token.MissionTask, "02792A")
	checkValue(t, "uniqueID", token.UniqueID, "FD5B")
	if !token.StartDateTime.Equal(time.Date(2018, 7, 16, 0, 40, 42, 0, time.UTC)) {
		t.Errorf("wrong start date: %v", token.StartDateTime)
	}
	checkValue(t, "sceneID", token.SceneID(), "S1A_IW_GRDH_1SDV_20180716T004042_20180716T004107_022812_02792A_FD5B")
}

func TestParseSentinel1IDMalformed(t *testing.T) {
	for _, sceneID := range []string{
		"S1A_IW_GRDH_1SDV_20180716T004042_20180716T004107_022812_02792A_FD5",  // short unique id
		"S1A_SM_GRDH_1SDV_20180716T004042_20180716T004107_022812_02792A_FD5B", // unsupported beam
		"S1A_IW_GRDH_1SDV_20181316T004042_20180716T004107_022812_02792A_FD5B", // month 13
		"S1A_IW_GRDH_1SXV_20180716T004042_20180716T004107_022812_02792A_FD5B", // bad polarisation
	} {
		if _, err := ParseSentinel1ID(sceneID); err == nil {
			t.Errorf("expected error for %s", sceneID)
		}
	}
}

func TestParseSentinel2ID(t *testing.T) {
	// legacy epoch
	token, err := ParseSentinel2ID("S2A_L1C_20170729_19UDP_0")
	if err != nil {
		t.Fatal(err)
	}
	checkValue(t, "satellite", token.Satellite, "A")
	checkValue(t, "level", token.ProcessingLevel, "L1C")
	checkValue(t, "utm", token.UTMZone, "19")
	checkValue(t, "lat", token.LatitudeBand, "U")
	checkValue(t, "square", token.GridSquare, "DP")
	checkValue(t, "num", token.Num, "0")
	checkValue(t, "sceneID", token.SceneID(), "S2A_19UDP_20170729_0_L1C")

	// current epoch
	token, err = ParseSentinel2ID("S2A_29RKH_20200219_0_L2A")
	if err != nil {
		t.Fatal(err)
	}
	checkValue(t, "satellite", token.Satellite, "A")
	checkValue(t, "level", token.ProcessingLevel, "L2A")
	checkValue(t, "utm", token.UTMZone, "29")
	checkValue(t, "lat", token.LatitudeBand, "R")
	checkValue(t, "square", token.GridSquare, "KH")
	checkValue(t, "sceneID", token.SceneID(), "S2A_29RKH_20200219_0_L2A")

	// single-digit utm zone is padded on output, stripped in the storage layout
	token, err = ParseSentinel2ID("S2A_1CCV_20181004_0_L2A")
	if err != nil {
		t.Fatal(err)
	}
	checkValue(t, "utm", token.UTMZone, "01")
	checkValue(t, "utmUnpadded", token.UTMZoneUnpadded(), "1")
	checkValue(t, "sceneID", token.SceneID(), "S2A_01CCV_20181004_0_L2A")
}

func TestParseSentinel2IDMalformed(t *testing.T) {
	for _, sceneID := range []string{
		"S2A_L1C_20170729_19UDP",   // missing num
		"S2A_20200219_29RKH_0_L2A", // swapped tile and date
		"S2C_29RKH_20200219_0_L2A", // unknown satellite
		"S2A_29RKH_20201319_0_L2A", // month 13
	} {
		if _, err := ParseSentinel2ID(sceneID); err == nil {
			t.Errorf("expected error for %s", sceneID)
		}
	}
}

func TestParseCBERSID(t *testing.T) {
	token, err := ParseCBERSID("CBERS_4_MUX_20171121_057_094_L2")
	if err != nil {
		t.Fatal(err)
	}
	checkValue(t, "mission", token.Mission, "4")
	checkValue(t, "instrument", token.Instrument, "MUX")
	checkValue(t, "path", token.Path, "057")
	checkValue(t, "row", token.Row, "094")
	checkValue(t, "level", token.ProcessingLevel, "L2")
	checkValue(t, "sceneID", token.SceneID(), "CBERS_4_MUX_20171121_057_094_L2")

	if _, err := ParseCBERSID("CBERS_4_IRS_20171121_057_094_L2"); err == nil {
		t.Errorf("expected error for unsupported instrument")
	}
}

func TestParseMODISID(t *testing.T) {
	token, err := ParseMODISID("MCD43A4.A2017006.h21v11.006.2017018074804")
	if err != nil {
		t.Fatal(err)
	}
	checkValue(t, "product", token.Product, "MCD43A4")
	checkValue(t, "hgrid", token.HorizontalGrid, "21")
	checkValue(t, "vgrid", token.VerticalGrid, "11")
	checkValue(t, "version", token.Version, "006")
	checkValue(t, "productionStamp", token.ProductionStamp, "2017018074804")
	checkValue(t, "dateDOY", token.DateDOY(), "2017006")
	if !token.AcquisitionDate.Equal(time.Date(2017, 1, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("wrong acquisition date: %v", token.AcquisitionDate)
	}
	checkValue(t, "sceneID", token.SceneID(), "MCD43A4.A2017006.h21v11.006.2017018074804")

	if _, err := ParseMODISID("MCD43A4.A2017006.h21v11.006"); err == nil {
		t.Errorf("expected error for truncated identifier")
	}
}

func TestGetDateFromProductId(t *testing.T) {
	for sceneID, date := range map[string]time.Time{
		"LC08_L2SP_001062_20201031_20201106_02_T2":                            time.Date(2020, 10, 31, 0, 0, 0, 0, time.UTC),
		"S1A_IW_GRDH_1SDV_20180716T004042_20180716T004107_022812_02792A_FD5B": time.Date(2018, 7, 16, 0, 40, 42, 0, time.UTC),
		"S2A_29RKH_20200219_0_L2A":                                            time.Date(2020, 2, 19, 0, 0, 0, 0, time.UTC),
		"CBERS_4_AWFI_20170420_146_129_L2":                                    time.Date(2017, 4, 20, 0, 0, 0, 0, time.UTC),
		"MYD09GA.A2017006.h21v11.006.2017018074804":                           time.Date(2017, 1, 6, 0, 0, 0, 0, time.UTC),
	} {
		d, err := GetDateFromProductId(sceneID)
		if err != nil {
			t.Fatal(err)
		}
		if !d.Equal(date) {
			t.Errorf("expected %v for %s, got %v", date, sceneID, d)
		}
	}
	if _, err := GetDateFromProductId("not-a-scene"); err == nil {
		t.Errorf("expected error")
	}
}
