package loop_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/avolkov/looplab/internal/control"
	"github.com/avolkov/looplab/internal/loop"
)

// exampleConfig is the reference loop: K=1, τ=10s, Td=1s, Δt=0.1s,
// Kp=1.0, Ki=0.1, Kd=0.05, operating point 50.
func exampleConfig() loop.Config {
	cfg := loop.DefaultConfig()
	cfg.DeadTime = 1.0
	return cfg
}

var _ = Describe("Loop", func() {
	var lp *loop.Loop

	BeforeEach(func() {
		var err error
		lp, err = loop.New(exampleConfig(), nil)
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("construction", func() {
		It("rejects a non-positive tick duration", func() {
			cfg := exampleConfig()
			cfg.Dt = 0
			_, err := loop.New(cfg, nil)
			Expect(err).To(MatchError(loop.ErrNonPositiveTick))
		})

		It("rejects negative gains", func() {
			cfg := exampleConfig()
			cfg.Ki = -0.1
			_, err := loop.New(cfg, nil)
			Expect(err).To(MatchError(control.ErrNegativeGain))
		})
	})

	Describe("steady-state initialization", func() {
		It("starts with SP = PV = MV at the operating point", func() {
			st := lp.Status()
			Expect(st.Setpoint).To(Equal(50.0))
			Expect(st.PV).To(Equal(50.0))
			Expect(st.MV).To(Equal(50.0))
		})

		It("holds the operating point without a transient", func() {
			Expect(lp.Step()).To(Succeed())
			Expect(lp.MV()).To(BeNumerically("~", 50.0, 1e-6))

			for i := 0; i < 100; i++ {
				Expect(lp.Step()).To(Succeed())
			}
			Expect(lp.PV()).To(BeNumerically("~", 50.0, 1e-6))
			Expect(lp.MV()).To(BeNumerically("~", 50.0, 1e-6))
		})
	})

	Describe("setpoint step", func() {
		It("drives PV toward the new setpoint", func() {
			lp.SetSetpoint(70)

			peak := 50.0
			for i := 0; i < 100; i++ {
				Expect(lp.Step()).To(Succeed())
				if lp.MV() > peak {
					peak = lp.MV()
				}
			}

			pv := lp.PV()
			Expect(70 - pv).To(BeNumerically("<", pv-50))
			Expect(peak).To(BeNumerically(">", 50))
			Expect(lp.MV()).To(BeNumerically("<", peak))
		})
	})

	Describe("Reset", func() {
		It("preserves the operating point and stays responsive", func() {
			lp.SetSetpoint(70)
			for i := 0; i < 200; i++ {
				Expect(lp.Step()).To(Succeed())
			}

			pv := lp.PV()
			mv := lp.MV()
			lp.Reset()

			st := lp.Status()
			Expect(st.Time).To(BeZero())
			Expect(st.Ticks).To(BeZero())
			Expect(st.PV).To(Equal(pv))
			Expect(st.MV).To(Equal(mv))

			// An output move after reset must still move the process
			// within about one time constant.
			lp.SetMode(false)
			lp.SetManualOutput(mv + 20)
			for i := 0; i < 100; i++ {
				Expect(lp.Step()).To(Succeed())
			}
			Expect(lp.PV()).To(BeNumerically(">", pv+1))
		})
	})

	Describe("mode switching", func() {
		It("is bumpless from automatic to manual", func() {
			lp.SetSetpoint(70)
			for i := 0; i < 50; i++ {
				Expect(lp.Step()).To(Succeed())
			}

			before := lp.MV()
			lp.SetMode(false)
			Expect(lp.Step()).To(Succeed())
			Expect(lp.MV()).To(Equal(before))
		})

		It("resumes automatic control at the current output", func() {
			lp.SetMode(false)
			lp.SetManualOutput(62)
			for i := 0; i < 400; i++ {
				Expect(lp.Step()).To(Succeed())
			}

			pv := lp.PV()
			lp.SetSetpoint(pv)
			lp.SetMode(true)

			Expect(lp.Step()).To(Succeed())
			Expect(lp.MV()).To(BeNumerically("~", 62, 0.5))
		})
	})

	Describe("setpoint tracking", func() {
		It("follows PV while in manual mode", func() {
			lp.SetSetpointTracking(true)
			lp.SetMode(false)
			lp.SetManualOutput(80)

			for i := 0; i < 100; i++ {
				Expect(lp.Step()).To(Succeed())
				st := lp.Status()
				Expect(st.Setpoint).To(BeNumerically("~", st.PV, 1.0))
			}
		})

		It("does not touch the setpoint in automatic mode", func() {
			lp.SetSetpointTracking(true)
			lp.SetSetpoint(70)
			for i := 0; i < 20; i++ {
				Expect(lp.Step()).To(Succeed())
			}
			Expect(lp.Setpoint()).To(Equal(70.0))
		})
	})

	Describe("speed multiplier", func() {
		It("scales elapsed time, not loop dynamics", func() {
			lp.SetSpeed(10)
			for i := 0; i < 10; i++ {
				Expect(lp.Step()).To(Succeed())
			}
			Expect(lp.Time()).To(BeNumerically("~", 10*0.1*10, 1e-9))
			Expect(lp.Ticks()).To(Equal(int64(10)))
		})
	})
})
