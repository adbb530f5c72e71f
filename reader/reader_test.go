package reader_test

import (
	"context"
	"errors"

	"github.com/airbusgeo/pds-reader/catalog"
	"github.com/airbusgeo/pds-reader/reader"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

const modisScene = "MCD43A4.A2017006.h21v11.006.2017018074804"

func modisURL(band string) string {
	return "s3://modis-pds/MCD43A4.006/21/11/2017006/" + modisScene + "_" + band + ".TIF"
}

var _ = Describe("Reader", func() {
	var (
		ctx    context.Context
		opener *MokeOpener
		r      *reader.Reader
		err    error
	)

	BeforeEach(func() {
		ctx = context.Background()
		opener = NewMokeOpener()
		opener.Values[modisURL("B01")] = 1
		opener.Values[modisURL("B02")] = 2
		opener.Values[modisURL("B03")] = 3
		r, err = reader.OpenMODIS(ctx, modisScene, catalog.SourcePDS, opener)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("opening a scene", func() {
		It("settles the band list", func() {
			Expect(r.SceneID()).To(Equal(modisScene))
			Expect(r.Bands()).To(ContainElements("B01", "B07qa", "B04"))
		})
		It("settles the geometry from the grid cell", func() {
			Expect(r.Bounds()).To(Equal([4]float64{30, -30, 40, -20}))
			Expect(r.MinZoom()).To(Equal(4))
			Expect(r.MaxZoom()).To(Equal(9))
		})
		It("does not read any asset", func() {
			Expect(opener.OpenCount()).To(BeZero())
		})
		It("rejects a malformed identifier", func() {
			_, err := reader.OpenMODIS(ctx, "MCD43A4.A2017006", catalog.SourcePDS, opener)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("reading a tile", func() {
		It("returns the bands in the requested order", func() {
			img, err := r.Tile(ctx, 0, 0, 5, reader.Query{Bands: []string{"B03", "B01"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bands).To(Equal([]string{"B03", "B01"}))
			Expect(img.Data[0]).To(Equal([]float64{3, 3, 3, 3}))
			Expect(img.Data[1]).To(Equal([]float64{1, 1, 1, 1}))
			Expect(img.Width).To(Equal(2))
			Expect(img.Height).To(Equal(2))
		})
		It("normalizes band names", func() {
			img, err := r.Tile(ctx, 0, 0, 5, reader.Query{Bands: []string{"B2"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bands).To(Equal([]string{"B02"}))
			Expect(img.Data[0]).To(Equal([]float64{2, 2, 2, 2}))
		})
		It("merges the masks", func() {
			opener.Masks[modisURL("B01")] = []bool{true, false, true, true}
			opener.Masks[modisURL("B02")] = []bool{true, true, false, true}
			img, err := r.Tile(ctx, 0, 0, 5, reader.Query{Bands: []string{"B01", "B02"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Mask).To(Equal([]bool{true, false, false, true}))
		})
		It("fails entirely when one band fails", func() {
			opener.Failing[modisURL("B02")] = true
			_, err := r.Tile(ctx, 0, 0, 5, reader.Query{Bands: []string{"B01", "B02", "B03"}})
			Expect(err).To(HaveOccurred())
		})
		It("rejects an unknown band before any read", func() {
			_, err := r.Tile(ctx, 0, 0, 5, reader.Query{Bands: []string{"B42"}})
			Expect(err).To(HaveOccurred())
			Expect(opener.OpenCount()).To(BeZero())
		})
	})

	Describe("query validation", func() {
		It("rejects bands and expression together", func() {
			_, err := r.Tile(ctx, 0, 0, 5, reader.Query{Bands: []string{"B01"}, Expression: "B01+B02"})
			Expect(err).To(MatchError(ContainSubstring("mutually exclusive")))
			Expect(opener.OpenCount()).To(BeZero())
		})
		It("rejects an empty query", func() {
			_, err := r.Tile(ctx, 0, 0, 5, reader.Query{})
			Expect(err).To(HaveOccurred())
			Expect(opener.OpenCount()).To(BeZero())
		})
		It("rejects an expression over unknown bands before any read", func() {
			_, err := r.Tile(ctx, 0, 0, 5, reader.Query{Expression: "B01+B42"})
			Expect(err).To(HaveOccurred())
			var exprErr reader.ErrExpression
			Expect(errors.As(err, &exprErr)).To(BeTrue())
			Expect(opener.OpenCount()).To(BeZero())
		})
		It("rejects a division by a literal zero before any read", func() {
			_, err := r.Tile(ctx, 0, 0, 5, reader.Query{Expression: "B01/0"})
			Expect(err).To(HaveOccurred())
			Expect(opener.OpenCount()).To(BeZero())
		})
	})

	Describe("reading an expression", func() {
		It("evaluates each term per pixel", func() {
			img, err := r.Tile(ctx, 0, 0, 5, reader.Query{Expression: "B02+B01, B02-B01"})
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bands).To(Equal([]string{"B02+B01", "B02-B01"}))
			Expect(img.Data[0]).To(Equal([]float64{3, 3, 3, 3}))
			Expect(img.Data[1]).To(Equal([]float64{1, 1, 1, 1}))
		})
		It("normalizes the bands of the expression", func() {
			img, err := r.Tile(ctx, 0, 0, 5, reader.Query{Expression: "B2*2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Data[0]).To(Equal([]float64{4, 4, 4, 4}))
		})
		It("skips the masked pixels of a nodata collar", func() {
			// both bands read 0 under an all-invalid mask, so every ratio
			// denominator is zero on nodata pixels only
			opener.Values[modisURL("B02")] = 0
			opener.Masks[modisURL("B02")] = []bool{false, false, false, false}
			img, err := r.Tile(ctx, 0, 0, 5, reader.Query{Expression: "B01/B02"})
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Data[0]).To(Equal([]float64{0, 0, 0, 0}))
			Expect(img.Mask).To(Equal([]bool{false, false, false, false}))
		})
		It("fails on a zero denominator under a valid pixel", func() {
			opener.Values[modisURL("B02")] = 0
			_, err := r.Tile(ctx, 0, 0, 5, reader.Query{Expression: "B01/B02"})
			var exprErr reader.ErrExpression
			Expect(errors.As(err, &exprErr)).To(BeTrue())
		})
	})

	Describe("reading a point", func() {
		It("returns one value per band", func() {
			bands, values, err := r.Point(ctx, 35, -25, reader.Query{Bands: []string{"B01", "B03"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(bands).To(Equal([]string{"B01", "B03"}))
			Expect(values).To(Equal([]float64{1, 3}))
		})
		It("evaluates expressions", func() {
			bands, values, err := r.Point(ctx, 35, -25, reader.Query{Expression: "(B02-B01)/(B02+B01)"})
			Expect(err).NotTo(HaveOccurred())
			Expect(bands).To(HaveLen(1))
			Expect(values[0]).To(BeNumerically("~", 1.0/3.0, 1e-9))
		})
	})

	Describe("metadata operations", func() {
		It("returns the info of the requested bands, in order", func() {
			infos, err := r.Info(ctx, "B02", "B01")
			Expect(err).NotTo(HaveOccurred())
			Expect(infos).To(HaveLen(2))
			Expect(infos[0].Band).To(Equal("B02"))
			Expect(infos[1].Band).To(Equal("B01"))
			Expect(infos[0].DataType).To(Equal("uint16"))
		})
		It("defaults to every band of the scene", func() {
			stats, err := r.Statistics(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(len(r.Bands())))
			for i, band := range r.Bands() {
				Expect(stats[i].Band).To(Equal(band))
			}
			Expect(stats[2].Band).To(Equal("B02"))
			Expect(stats[2].Mean).To(Equal(2.0))
		})
	})

	Describe("closing", func() {
		It("makes every operation fail", func() {
			Expect(r.Close()).To(Succeed())
			_, err := r.Tile(ctx, 0, 0, 5, reader.Query{Bands: []string{"B01"}})
			Expect(err).To(MatchError(reader.ErrClosedReader))
			_, err = r.Info(ctx)
			Expect(err).To(MatchError(reader.ErrClosedReader))
			_, _, err = r.Point(ctx, 0, 0, reader.Query{Bands: []string{"B01"}})
			Expect(err).To(MatchError(reader.ErrClosedReader))
		})
		It("fails on double close", func() {
			Expect(r.Close()).To(Succeed())
			Expect(r.Close()).To(MatchError(reader.ErrClosedReader))
		})
	})

	Describe("requester pays", func() {
		It("passes the payer flag of the archive to the opener", func() {
			img, err := r.Preview(ctx, 2, 2, reader.Query{Bands: []string{"B01"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bands).To(Equal([]string{"B01"}))
			Expect(opener.Payers[modisURL("B01")]).To(BeFalse())
		})
	})
})
