package dashboard_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/neurodash/internal/activation"
	"github.com/san-kum/neurodash/internal/camera"
	"github.com/san-kum/neurodash/internal/controller"
	"github.com/san-kum/neurodash/internal/dashboard"
	"github.com/san-kum/neurodash/internal/log"
	"github.com/san-kum/neurodash/internal/neuro"
	"github.com/san-kum/neurodash/internal/playback"
	"github.com/san-kum/neurodash/internal/surface"
	"github.com/san-kum/neurodash/internal/timeutil"
)

func testOptions() dashboard.Options {
	return dashboard.Options{
		Regions: activation.Assignments{
			"sensor_a": {{Half: neuro.Left, Anchor: r3.Vec{X: 0.3, Y: 0.2, Z: 0.7}, Metric: neuro.MetricAttention, BaseFactor: 0.25}},
			"sensor_b": {{Half: neuro.Right, Anchor: r3.Vec{X: 0.7, Y: 0.8, Z: 0.6}, Metric: neuro.MetricMeditation, BaseFactor: 0.25}},
		},
		Window:          2 * time.Second,
		HistoryCapacity: 5,
		Sensors:         []neuro.SensorID{"sensor_a", "sensor_b"},
	}
}

func testSurfaces() *surface.Provider {
	return surface.NewProvider(surface.EllipsoidLoader{
		Stacks: 6, Slices: 8, Radii: r3.Vec{X: 3, Y: 8, Z: 5}, Offset: 4, Medial: 0.3,
	}, log.Discard())
}

func reading(att, med float64) neuro.Snapshot {
	s := neuro.NewSnapshot("session-1")
	s.Set("sensor_a", neuro.Reading{neuro.MetricAttention: att, neuro.MetricMeditation: med, neuro.MetricSignal: 90})
	s.Set("sensor_b", neuro.Reading{neuro.MetricAttention: med, neuro.MetricMeditation: att, neuro.MetricSignal: 90})
	return s
}

var _ = Describe("Engine", func() {
	var (
		clock  *timeutil.MockClock
		engine *dashboard.Engine
	)

	BeforeEach(func() {
		clock = timeutil.NewMockClock(time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC))
		engine = dashboard.New(testSurfaces(), testOptions(), clock, log.Discard())
	})

	It("starts on the first configured sensor with no scene", func() {
		Expect(engine.Display()).To(Equal(controller.Individual("sensor_a")))
		Expect(engine.Scene()).To(BeNil())
		Expect(engine.Mode().Kind).To(Equal(playback.Live))
	})

	It("rebuilds on the first snapshot and patches afterwards", func() {
		Expect(engine.OnSnapshot(reading(80, 20)).Action).To(Equal(controller.Rebuild))

		clock.Advance(time.Second)
		Expect(engine.OnSnapshot(reading(30, 70)).Action).To(Equal(controller.Patch))
		once := engine.Scene().Intensities()

		Expect(engine.OnTick().Action).To(Equal(controller.Patch))
		Expect(engine.Scene().Intensities()).To(Equal(once))

		Expect(engine.Stats()).To(Equal(dashboard.Stats{Rebuilds: 1, Patches: 2}))
	})

	It("hands out copies of the scene", func() {
		engine.OnSnapshot(reading(80, 20))
		s := engine.Scene()
		s.Surfaces[0].Intensity[0] = 1e9
		s.Title = "changed"
		Expect(engine.Scene().Title).NotTo(Equal("changed"))
		Expect(engine.Scene().Surfaces[0].Intensity[0]).NotTo(Equal(1e9))
	})

	Describe("batched dispatch", func() {
		It("runs interaction events before the tick in the same batch", func() {
			engine.OnSnapshot(reading(80, 20))
			before := engine.Scene()

			results := engine.Dispatch([]dashboard.Event{
				{Kind: dashboard.EventTick},
				{Kind: dashboard.EventViewChange, Camera: camera.Update{Eye: camera.Vec(r3.Vec{X: 2, Y: 0, Z: 1})}},
			})
			Expect(results).To(HaveLen(1))
			Expect(results[0].Action).To(Equal(controller.NoOp))
			Expect(engine.Scene()).To(Equal(before))
			Expect(engine.Interaction().Interacting).To(BeTrue())
		})

		It("routes every event kind", func() {
			results := engine.Dispatch([]dashboard.Event{
				{Kind: dashboard.EventSnapshot, Snapshot: reading(60, 60)},
				{Kind: dashboard.EventDisplay, Display: controller.AllSensors()},
				{Kind: dashboard.EventSelectSensor, Sensor: "sensor_b"},
				{Kind: dashboard.EventPause},
				{Kind: dashboard.EventResume},
				{Kind: dashboard.EventSelectTime, Time: 0},
				{Kind: dashboard.EventResetHistory},
				{Kind: dashboard.EventPress},
				{Kind: dashboard.EventRelease},
			})
			Expect(results).To(HaveLen(7))
			Expect(engine.Display()).To(Equal(controller.Individual("sensor_b")))
			Expect(engine.Mode().Kind).To(Equal(playback.Live))
			Expect(engine.HistoryPoints()).To(BeEmpty())
		})
	})

	Describe("interaction", func() {
		BeforeEach(func() {
			engine.OnSnapshot(reading(80, 20))
		})

		It("suppresses refreshes until the release", func() {
			engine.OnPress()
			Expect(engine.OnSnapshot(reading(10, 90)).Action).To(Equal(controller.NoOp))
			engine.OnRelease()
			Expect(engine.OnTick().Action).To(Equal(controller.Patch))
		})

		It("suppresses refreshes until the quiescence window passes", func() {
			Expect(engine.OnRelayout(map[string]any{"scene.camera.eye.x": 1.5})).To(BeTrue())
			Expect(engine.OnTick().Action).To(Equal(controller.NoOp))

			clock.Advance(2100 * time.Millisecond)
			Expect(engine.OnTick().Action).To(Equal(controller.Patch))
		})

		It("keeps a selection change responsive while interacting", func() {
			engine.OnPress()
			Expect(engine.SetDisplay(controller.AllSensors()).Action).To(Equal(controller.Rebuild))
		})

		It("stores camera changes and reapplies them on rebuild", func() {
			engine.OnViewChange(camera.Update{
				Eye:    camera.Vec(r3.Vec{X: 0.3, Y: 1.9, Z: 0.2}),
				Center: camera.Vec(r3.Vec{}),
				Up:     camera.Vec(r3.Vec{Z: 1}),
			})
			engine.OnViewChange(camera.Update{Eye: camera.Vector{X: ptr(0.5)}})
			Expect(engine.CameraVersion()).To(Equal(uint64(2)))

			res := engine.SelectSensor("sensor_b")
			Expect(res.Action).To(Equal(controller.Rebuild))
			Expect(*res.Scene.Camera.Eye).To(Equal(r3.Vec{X: 0.5, Y: 1.9, Z: 0.2}))
		})

		It("ignores relayout payloads without camera data", func() {
			Expect(engine.OnRelayout(map[string]any{"xaxis.autorange": true})).To(BeFalse())
			Expect(engine.Interaction().Interacting).To(BeFalse())
		})
	})

	Describe("playback", func() {
		It("appends to history only while live", func() {
			engine.OnSnapshot(reading(10, 10))
			clock.Advance(time.Second)
			engine.OnSnapshot(reading(20, 20))
			Expect(engine.HistoryPoints()).To(HaveLen(2))

			Expect(engine.Pause().Action).To(Equal(controller.Rebuild))
			clock.Advance(time.Second)
			Expect(engine.OnSnapshot(reading(30, 30)).Action).To(Equal(controller.NoOp))
			Expect(engine.HistoryPoints()).To(HaveLen(2))
			Expect(engine.Latest().Readings["sensor_a"][neuro.MetricAttention]).To(Equal(30.0))

			Expect(engine.Resume().Action).To(Equal(controller.Rebuild))
			engine.OnSnapshot(reading(40, 40))
			Expect(engine.HistoryPoints()).To(HaveLen(3))
		})

		It("refuses historical mode on an empty buffer", func() {
			_, err := engine.SelectTime(3)
			Expect(err).To(MatchError(neuro.ErrEmptyHistory))
			Expect(engine.Mode().Kind).To(Equal(playback.Live))

			_, err = engine.Step(-1)
			Expect(err).To(MatchError(neuro.ErrEmptyHistory))
		})

		It("scrubs through history and back to live", func() {
			for i := 1; i <= 3; i++ {
				clock.Advance(time.Second)
				engine.OnSnapshot(reading(float64(i*10), 50))
			}

			res, err := engine.Step(-1)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Action).To(Equal(controller.Rebuild))
			Expect(engine.Mode().At).To(BeNumerically("~", 3.0, 1e-9))

			_, err = engine.Step(-1)
			Expect(err).NotTo(HaveOccurred())
			Expect(engine.Mode().At).To(BeNumerically("~", 2.0, 1e-9))
			Expect(engine.Mode().Snapshot.Readings["sensor_a"][neuro.MetricAttention]).To(Equal(20.0))

			Expect(engine.ResetHistory().Action).To(Equal(controller.Rebuild))
			Expect(engine.Mode().Kind).To(Equal(playback.Live))
		})

		It("caps history at the configured capacity", func() {
			for i := 0; i < 8; i++ {
				clock.Advance(time.Second)
				engine.OnSnapshot(reading(float64(i), 0))
			}
			points := engine.HistoryPoints()
			Expect(points).To(HaveLen(5))
			Expect(points[0].Attention).To(Equal(3.0))
		})
	})

	It("cycles sensors in configured order", func() {
		engine.OnSnapshot(reading(50, 50))
		engine.CycleSensor(1)
		Expect(engine.Display().Sensor).To(Equal(neuro.SensorID("sensor_b")))
		engine.CycleSensor(1)
		Expect(engine.Display().Sensor).To(Equal(neuro.SensorID("sensor_a")))
		engine.CycleSensor(-1)
		Expect(engine.Display().Sensor).To(Equal(neuro.SensorID("sensor_b")))
	})

	It("keeps cycling directional from an unlisted sensor", func() {
		engine.OnSnapshot(reading(50, 50))
		engine.SelectSensor("sensor_x")
		engine.CycleSensor(-1)
		Expect(engine.Display().Sensor).To(Equal(neuro.SensorID("sensor_b")))

		engine.SelectSensor("sensor_x")
		engine.CycleSensor(1)
		Expect(engine.Display().Sensor).To(Equal(neuro.SensorID("sensor_a")))
	})

	It("shows a placeholder for a sensor missing from the snapshot", func() {
		s := neuro.NewSnapshot("session-1")
		s.Set("sensor_b", neuro.Reading{neuro.MetricMeditation: 70})
		res := engine.OnSnapshot(s)
		Expect(res.Placeholder).To(BeTrue())
		Expect(engine.Scene().Annotation).To(Equal("No data for sensor SENSOR_A"))
	})
})

func ptr(v float64) *float64 { return &v }
