package reader_test

import (
	"context"

	"github.com/airbusgeo/pds-reader/interface/resolver"
	"github.com/airbusgeo/pds-reader/reader"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func demURL(cell string) string {
	name := "Copernicus_DSM_COG_10_" + cell + "_00_DEM"
	return "s3://copernicus-dem-30m/" + name + "/" + name + ".tif"
}

var _ = Describe("Mosaic", func() {
	var (
		ctx    context.Context
		opener *MokeOpener
		m      *reader.Mosaic
		err    error
	)

	BeforeEach(func() {
		ctx = context.Background()
		opener = NewMokeOpener()
		m, err = reader.OpenDEM(ctx, resolver.DEM30, MokeGrid{}, opener, reader.WithConfig(resolver.DefaultConfig()))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("opening", func() {
		It("covers the whole globe", func() {
			Expect(m.Bounds()).To(Equal([4]float64{-180, -90, 180, 90}))
			Expect(m.MinZoom()).To(Equal(7))
			Expect(m.MaxZoom()).To(Equal(8))
		})
		It("uses the coarse zoom range at 90m", func() {
			m90, err := reader.OpenDEM(ctx, resolver.DEM90, MokeGrid{}, opener, reader.WithConfig(resolver.DefaultConfig()))
			Expect(err).NotTo(HaveOccurred())
			Expect(m90.MinZoom()).To(Equal(6))
			Expect(m90.MaxZoom()).To(Equal(7))
		})
	})

	Describe("reading a tile", func() {
		It("keeps the first valid value per pixel", func() {
			// the moke grid maps tile (10, 10) to lon/lat [10, 11]x[10, 11],
			// covered by 4 cells
			opener.Values[demURL("N10_00_E010")] = 100
			opener.Values[demURL("N11_00_E010")] = 200
			opener.Masks[demURL("N10_00_E010")] = []bool{true, false, false, true}
			opener.Masks[demURL("N11_00_E010")] = []bool{true, true, false, true}
			opener.Missing[demURL("N10_00_E011")] = true
			opener.Missing[demURL("N11_00_E011")] = true

			img, err := m.Tile(ctx, 10, 10, 8)
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bands).To(Equal([]string{"b1"}))
			Expect(img.Data[0]).To(Equal([]float64{100, 200, 0, 100}))
			Expect(img.Mask).To(Equal([]bool{true, true, false, true}))
		})
		It("tolerates missing cells", func() {
			opener.Values[demURL("N10_00_E010")] = 42
			opener.Missing[demURL("N11_00_E010")] = true
			opener.Missing[demURL("N10_00_E011")] = true
			opener.Missing[demURL("N11_00_E011")] = true

			img, err := m.Tile(ctx, 10, 10, 8)
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Data[0]).To(Equal([]float64{42, 42, 42, 42}))
		})
		It("fails when no cell exists", func() {
			opener.Missing[demURL("N10_00_E010")] = true
			opener.Missing[demURL("N11_00_E010")] = true
			opener.Missing[demURL("N10_00_E011")] = true
			opener.Missing[demURL("N11_00_E011")] = true

			_, err := m.Tile(ctx, 10, 10, 8)
			Expect(err).To(MatchError(reader.ErrNoCells))
		})
	})

	Describe("reading a point", func() {
		It("reads the covering cell", func() {
			opener.Values[demURL("N45_00_E005")] = 1234
			v, valid, err := m.Point(ctx, 5.5, 45.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(valid).To(BeTrue())
			Expect(v).To(Equal(1234.0))
		})
		It("returns no value over open water", func() {
			opener.Missing[demURL("S10_00_W150")] = true
			_, valid, err := m.Point(ctx, -149.5, -9.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(valid).To(BeFalse())
		})
	})

	Describe("statistics", func() {
		It("reads the representative cell", func() {
			opener.Values[demURL("N00_00_E006")] = 7
			stats, err := m.Statistics(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Mean).To(Equal(7.0))
			Expect(opener.Opens).To(Equal([]string{demURL("N00_00_E006")}))
		})
	})

	Describe("closing", func() {
		It("makes every operation fail", func() {
			Expect(m.Close()).To(Succeed())
			_, err := m.Tile(ctx, 0, 0, 7)
			Expect(err).To(MatchError(reader.ErrClosedReader))
			_, _, err = m.Point(ctx, 0, 0)
			Expect(err).To(MatchError(reader.ErrClosedReader))
			Expect(m.Close()).To(MatchError(reader.ErrClosedReader))
		})
	})
})
