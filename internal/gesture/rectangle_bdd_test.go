package gesture_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eliteGoblin/focusd/eb_agent/internal/gesture"
)

var _ = Describe("Rectangle pattern on a 1200x600 display", func() {
	var pattern *gesture.RectanglePattern

	BeforeEach(func() {
		pattern = gesture.NewRectanglePattern(gesture.ScreenGeometry{Width: 1200, Height: 600})
	})

	It("splits the screen into 200x200 cells", func() {
		Expect(pattern.Grid().CellBounds(gesture.GridCell{Column: 1, Row: 0})).To(Equal(
			gesture.Bounds{XMin: 200, XMax: 400, YMin: 0, YMax: 200}))
	})

	Context("when the user jumps past the expected cell", func() {
		It("rejects the attempt and restores the full walk after reset", func() {
			Expect(pattern.CheckPosition(100, 100)).To(Equal(gesture.InProgress))
			Expect(pattern.CheckPosition(300, 50)).To(Equal(gesture.InProgress))
			Expect(pattern.CheckPosition(500, 50)).To(Equal(gesture.InProgress))
			Expect(pattern.CheckPosition(100, 100)).To(Equal(gesture.WrongMove))

			pattern.Reset()

			Expect(pattern.LastVisited()).To(Equal(gesture.GridCell{Column: 0, Row: 0}))
			Expect(pattern.Waypoints()).To(HaveLen(14))
			Expect(pattern.Waypoints()[0]).To(Equal(gesture.GridCell{Column: 1, Row: 0}))
		})
	})

	Context("when the user traces the whole perimeter clockwise", func() {
		It("reports progress on every step and completion only on the last", func() {
			var verdicts []gesture.Verdict
			for _, cell := range pattern.Waypoints() {
				x := float64(cell.Column)*200 + 100
				y := float64(cell.Row)*200 + 100
				verdicts = append(verdicts, pattern.CheckPosition(x, y))
			}

			Expect(verdicts).To(HaveLen(14))
			for _, v := range verdicts[:13] {
				Expect(v).To(Equal(gesture.InProgress))
			}
			Expect(verdicts[13]).To(Equal(gesture.Completed))
		})
	})

	Context("when the user traces the perimeter counter-clockwise", func() {
		It("rejects the first move", func() {
			Expect(pattern.CheckPosition(100, 300)).To(Equal(gesture.WrongMove))
		})
	})
})
