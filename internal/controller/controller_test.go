package controller_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/neurodash/internal/activation"
	"github.com/san-kum/neurodash/internal/camera"
	"github.com/san-kum/neurodash/internal/controller"
	"github.com/san-kum/neurodash/internal/history"
	"github.com/san-kum/neurodash/internal/interaction"
	"github.com/san-kum/neurodash/internal/log"
	"github.com/san-kum/neurodash/internal/neuro"
	"github.com/san-kum/neurodash/internal/playback"
	"github.com/san-kum/neurodash/internal/scene"
	"github.com/san-kum/neurodash/internal/surface"
	"github.com/san-kum/neurodash/internal/timeutil"
)

var regions = activation.Assignments{
	"sensor_a": {{Half: neuro.Left, Anchor: r3.Vec{X: 0.3, Y: 0.2, Z: 0.7}, Metric: neuro.MetricAttention, BaseFactor: 0.25}},
	"sensor_b": {{Half: neuro.Right, Anchor: r3.Vec{X: 0.7, Y: 0.2, Z: 0.7}, Metric: neuro.MetricMeditation, BaseFactor: 0.25}},
}

func newController(provider *surface.Provider) (*controller.Controller, *activation.Synthesizer) {
	synth := activation.New(provider, regions, activation.DefaultParams())
	builder := scene.NewBuilder(provider, scene.Options{}, log.Discard())
	return controller.New(synth, builder, log.Discard()), synth
}

func smallBrain() *surface.Provider {
	return surface.NewProvider(surface.EllipsoidLoader{
		Stacks: 6, Slices: 8, Radii: r3.Vec{X: 3, Y: 8, Z: 5}, Offset: 4, Medial: 0.3,
	}, log.Discard())
}

func snapshot(att, med, sig float64) neuro.Snapshot {
	s := neuro.NewSnapshot("session-1")
	s.Set("sensor_a", neuro.Reading{neuro.MetricAttention: att, neuro.MetricMeditation: med, neuro.MetricSignal: sig})
	s.Set("sensor_b", neuro.Reading{neuro.MetricAttention: med, neuro.MetricMeditation: att, neuro.MetricSignal: sig})
	return s
}

func storedCamera() camera.Orientation {
	return camera.Orientation{
		Eye:    camera.Vec(r3.Vec{X: 1.7, Y: -0.4, Z: 0.35}),
		Center: camera.Vec(r3.Vec{X: 0, Y: 0, Z: -0.1}),
		Up:     camera.Vec(r3.Vec{Z: 1}),
	}
}

var _ = Describe("Controller", func() {
	var (
		ctrl  *controller.Controller
		synth *activation.Synthesizer
		tick  controller.Tick
	)

	BeforeEach(func() {
		ctrl, synth = newController(smallBrain())
		tick = controller.Tick{
			Trigger: controller.Timer,
			Live:    snapshot(80, 30, 100),
			Mode:    playback.LiveMode(),
			Camera:  storedCamera(),
			Display: controller.AllSensors(),
		}
	})

	existingScene := func() *scene.Scene {
		t := tick
		t.Trigger = controller.DisplayMode
		res := ctrl.Evaluate(t)
		Expect(res.Action).To(Equal(controller.Rebuild))
		return res.Scene
	}

	Describe("routine refresh while live", func() {
		It("rebuilds when no scene exists", func() {
			res := ctrl.Evaluate(tick)
			Expect(res.Action).To(Equal(controller.Rebuild))
			Expect(res.Scene.Drawable()).To(BeTrue())
			Expect(res.Scene.Revision).To(Equal(scene.DefaultRevision))
		})

		It("patches an existing scene with freshly computed fields", func() {
			tick.Scene = existingScene()
			tick.Live = snapshot(10, 95, 60)

			res := ctrl.Evaluate(tick)
			Expect(res.Action).To(Equal(controller.Patch))

			want, err := synth.Compute(tick.Live)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Fields).To(Equal(want))
		})

		It("does nothing while the user is interacting", func() {
			tick.Scene = existingScene()
			before := tick.Scene.Clone()
			tick.Interaction = interaction.State{Interacting: true}

			for _, trig := range []controller.Trigger{controller.Timer, controller.NewSnapshot} {
				tick.Trigger = trig
				res := ctrl.Evaluate(tick)
				Expect(res.Action).To(Equal(controller.NoOp))
				Expect(res.Scene).To(BeNil())
			}
			Expect(tick.Scene).To(Equal(before))
		})

		It("still honors explicit changes while interacting", func() {
			tick.Scene = existingScene()
			tick.Interaction = interaction.State{Interacting: true}
			tick.Trigger = controller.SensorSelection
			tick.Display = controller.Individual("sensor_a")

			res := ctrl.Evaluate(tick)
			Expect(res.Action).To(Equal(controller.Rebuild))
			Expect(res.Scene.Title).To(HaveSuffix(" - SENSOR_A"))
		})
	})

	Describe("frozen playback", func() {
		It("ignores routine triggers while paused", func() {
			tick.Scene = existingScene()
			tick.Mode = playback.PausedMode(tick.Live)
			Expect(ctrl.Evaluate(tick).Action).To(Equal(controller.NoOp))
		})

		It("rebuilds from the captured snapshot on explicit change", func() {
			paused := snapshot(90, 10, 100)
			tick.Mode = playback.PausedMode(paused)
			tick.Live = snapshot(5, 5, 100)
			tick.Trigger = controller.Playback

			res := ctrl.Evaluate(tick)
			Expect(res.Action).To(Equal(controller.Rebuild))
			Expect(res.Scene.Title).To(ContainSubstring("[paused]"))

			want, _ := synth.Compute(paused)
			Expect(res.Scene.Intensities()).To(Equal(want))
		})

		It("renders the historical snapshot, not the live one", func() {
			buf := history.NewBuffer(10, timeutil.NewMockClock(time.Unix(0, 0)))
			buf.AppendAt(10.0, snapshot(20, 20, 100))
			buf.AppendAt(12.0, snapshot(70, 40, 100))
			buf.AppendAt(13.0, snapshot(99, 99, 100))

			mode, err := playback.HistoricalAt(buf, 12.3)
			Expect(err).NotTo(HaveOccurred())
			tick.Mode = mode
			tick.Trigger = controller.Playback

			res := ctrl.Evaluate(tick)
			Expect(res.Action).To(Equal(controller.Rebuild))
			Expect(res.Scene.Title).To(ContainSubstring("historical t=12.0s"))

			want, _ := synth.Compute(snapshot(70, 40, 100))
			Expect(res.Scene.Intensities()).To(Equal(want))

			tick.Trigger = controller.Timer
			tick.Scene = res.Scene
			Expect(ctrl.Evaluate(tick).Action).To(Equal(controller.NoOp))
		})
	})

	Describe("missing data", func() {
		DescribeTable("placeholder scenes",
			func(live neuro.Snapshot, display controller.Display, message string) {
				tick.Live = live
				tick.Display = display
				res := ctrl.Evaluate(tick)
				Expect(res.Action).To(Equal(controller.Rebuild))
				Expect(res.Placeholder).To(BeTrue())
				Expect(res.Scene.Annotation).To(Equal(message))
				Expect(res.Scene.Drawable()).To(BeFalse())
			},
			Entry("no session yet", neuro.Snapshot{}, controller.AllSensors(), controller.MessageWaiting),
			Entry("session without readings", neuro.NewSnapshot("s"), controller.AllSensors(), controller.MessageNoData),
			Entry("selected sensor absent", snapshot(50, 50, 50), controller.Individual("sensor_z"), "No data for sensor SENSOR_Z"),
		)

		It("dominates the patch path", func() {
			tick.Scene = existingScene()
			tick.Display = controller.Individual("sensor_z")
			res := ctrl.Evaluate(tick)
			Expect(res.Action).To(Equal(controller.Rebuild))
			Expect(res.Placeholder).To(BeTrue())
		})
	})

	Describe("camera handling", func() {
		It("reapplies the stored camera verbatim on rebuild", func() {
			res := ctrl.Evaluate(tick)
			want, err := storedCamera().Resolve()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Scene.Camera).To(Equal(want))
		})

		It("does not touch the camera when patching", func() {
			tick.Scene = existingScene()
			before := tick.Scene.Camera.Clone()
			res := ctrl.Evaluate(tick)
			Expect(res.Action).To(Equal(controller.Patch))
			Expect(tick.Scene.Camera).To(Equal(before))
		})

		It("degrades a malformed camera to none", func() {
			tick.Camera = camera.Orientation{Eye: camera.Vector{X: new(float64)}}
			res := ctrl.Evaluate(tick)
			Expect(res.Action).To(Equal(controller.Rebuild))
			Expect(res.Scene.Drawable()).To(BeTrue())
			Expect(res.Scene.Camera).To(BeNil())
		})
	})

	It("falls back to the unavailable placeholder without geometry", func() {
		ctrl, _ = newController(surface.Unavailable(errors.New("no assets")))
		res := ctrl.Evaluate(tick)
		Expect(res.Action).To(Equal(controller.Rebuild))
		Expect(res.Scene.Annotation).To(Equal(scene.MessageUnavailable))
	})

	Describe("scenario: interaction expires", func() {
		It("suppresses two ticks then patches after the quiescence window", func() {
			clock := timeutil.NewMockClock(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))
			gate := interaction.NewGate(clock, 2*time.Second, log.Discard())
			tick.Scene = existingScene()

			gate.ViewChange()
			for i := 0; i < 2; i++ {
				clock.Advance(500 * time.Millisecond)
				tick.Interaction = gate.State()
				Expect(ctrl.Evaluate(tick).Action).To(Equal(controller.NoOp))
			}

			clock.Advance(1100 * time.Millisecond)
			tick.Interaction = gate.State()
			Expect(tick.Interaction.Interacting).To(BeFalse())

			tick.Live = snapshot(95, 5, 100)
			res := ctrl.Evaluate(tick)
			Expect(res.Action).To(Equal(controller.Patch))
			want, _ := synth.Compute(tick.Live)
			Expect(res.Fields).To(Equal(want))
		})
	})

	Describe("scenario: display mode switch", func() {
		It("rebuilds with exactly the camera stored before the switch", func() {
			tick.Display = controller.Individual("sensor_a")
			tick.Scene = existingScene()

			tracker := camera.NewTracker(log.Discard())
			tracker.Observe(storedCamera())
			tracker.Observe(camera.Update{Eye: camera.Vector{Z: ptr(0.9)}})

			tick.Camera = tracker.Current()
			tick.Display = controller.AllSensors()
			tick.Trigger = controller.DisplayMode

			res := ctrl.Evaluate(tick)
			Expect(res.Action).To(Equal(controller.Rebuild))
			Expect(res.Scene.Title).To(HaveSuffix("All sensors (2)"))

			want, _ := tracker.Current().Resolve()
			Expect(res.Scene.Camera).To(Equal(want))
			Expect(res.Scene.Camera.Eye.Z).To(Equal(0.9))
		})
	})
})

func ptr(v float64) *float64 { return &v }
