package sim

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/circsim/internal/element"
)

var _ = Describe("Simulator", func() {
	var (
		s    *Simulator
		elms []element.Element
	)

	BeforeEach(func() {
		elms = divider(GinkgoT(), 1000)
		s = New()
	})

	Context("before any analysis", func() {
		It("refuses to step", func() {
			Expect(s.Step()).To(MatchError(ErrNotAnalyzed))
			Expect(s.State()).To(Equal(Uninitialized))
		})
	})

	Context("with the series divider", func() {
		BeforeEach(func() {
			Expect(s.SetElements(elms)).To(Succeed())
		})

		It("lands in the analyzed state", func() {
			Expect(s.State()).To(Equal(Analyzed))
			Expect(s.Topology().NodeCount()).To(Equal(4))
			Expect(s.Topology().VoltageSourceCount()).To(Equal(2))
		})

		It("holds node C at the source voltage on every step", func() {
			for i := 0; i < 20; i++ {
				Expect(s.Step()).To(Succeed())
				Expect(elms[3].Voltage(0)).To(BeNumerically("~", 5.0, 1e-6))
				Expect(elms[3].Current()).To(BeNumerically("~", 0.005, 1e-6))
			}
			Expect(s.Steps()).To(Equal(20))
		})

		It("reports node voltages with ground first", func() {
			Expect(s.Step()).To(Succeed())
			volts := s.NodeVoltages()
			Expect(volts).To(HaveLen(4))
			Expect(volts[0]).To(BeZero())
			Expect(volts[1]).To(BeNumerically("~", 5.0, 1e-6))
		})

		It("rebinds indices after an edit", func() {
			Expect(elms[3].Node(0)).To(Equal(2))
			Expect(s.RemoveElement(2)).To(Succeed())
			Expect(elms[3].Node(0)).To(Equal(2))
			Expect(elms[1].Node(1)).To(Equal(1))
			Expect(s.Topology().NodeCount()).To(Equal(4))
		})

		When("a floating element is added", func() {
			BeforeEach(func() {
				Expect(s.Step()).To(Succeed())
				floating, err := element.NewResistor(element.Point{X: 30, Y: 0}, element.Point{X: 34, Y: 0}, 1000)
				Expect(err).NotTo(HaveOccurred())
				Expect(s.AddElement(floating)).To(MatchError(ErrSingularMatrix))
			})

			It("keeps failing until the circuit changes", func() {
				Expect(s.Step()).To(MatchError(ErrSingularMatrix))
				Expect(s.Step()).To(MatchError(ErrSingularMatrix))
				Expect(s.Err()).To(MatchError(ErrSingularMatrix))
				Expect(elms[3].Voltage(0)).To(BeNumerically("~", 5.0, 1e-6))
			})

			It("recovers once the element is removed", func() {
				Expect(s.RemoveElement(5)).To(Succeed())
				Expect(s.Step()).To(Succeed())
				Expect(s.Err()).NotTo(HaveOccurred())
			})
		})
	})

	Context("with a stamp that is not finite", func() {
		It("fails the step without advancing time", func() {
			bad := &currentSource{Wire: *element.NewWire(ptA, ptB), amps: 1}
			res, err := element.NewResistor(ptB, ptA, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SetElements([]element.Element{element.NewGround(ptA), bad, res})).To(Succeed())

			Expect(s.Step()).To(Succeed())
			bad.amps = 1 / zero()
			err = s.Step()
			Expect(err).To(HaveOccurred())
			var simErr *SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(1))
			Expect(s.Steps()).To(Equal(1))
		})
	})
})

func zero() float64 { return 0 }
