package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			customLabelsOpt := WithCustomLabels(map[string]string{"env": "test"})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(customLabelsOpt, ShouldNotBeNil)
			})
		})

		Convey("When applying empty values", func() {
			m := &Manager{namespace: "keep", subsystem: "keep", histogramBuckets: []float64{1}}
			WithNamespace("")(m)
			WithSubsystem("")(m)
			WithHistogramBuckets(nil)(m)

			Convey("Then defaults are preserved", func() {
				So(m.namespace, ShouldEqual, "keep")
				So(m.subsystem, ShouldEqual, "keep")
				So(m.histogramBuckets, ShouldResemble, []float64{1})
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a dedicated registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})

			Convey("Then its metrics are registered on that registry", func() {
				manager.cycles.WithLabelValues(TriggerScheduled, OutcomeSuccess).Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_refresh_cycles_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording cycles", func() {
			before := testutil.ToFloat64(globalManager.cycles.WithLabelValues(TriggerManual, OutcomeSuccess))
			RecordCycle(TriggerManual, OutcomeSuccess, 20*time.Millisecond)

			Convey("Then the counter is incremented", func() {
				after := testutil.ToFloat64(globalManager.cycles.WithLabelValues(TriggerManual, OutcomeSuccess))
				So(after-before, ShouldEqual, 1)
			})

			Convey("Then the last success timestamp is set", func() {
				So(testutil.ToFloat64(globalManager.lastSuccess), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When recording dropped triggers", func() {
			before := testutil.ToFloat64(globalManager.cyclesDropped.WithLabelValues(TriggerScheduled))
			RecordCycleDropped(TriggerScheduled)
			after := testutil.ToFloat64(globalManager.cyclesDropped.WithLabelValues(TriggerScheduled))
			So(after-before, ShouldEqual, 1)
		})

		Convey("When recording slot operations", func() {
			okBefore := testutil.ToFloat64(globalManager.slotOperations.WithLabelValues(OpUpdate, OutcomeSuccess))
			failBefore := testutil.ToFloat64(globalManager.slotOperations.WithLabelValues(OpUpdate, OutcomeFailed))

			RecordSlotOperation(OpUpdate, nil)
			RecordSlotOperation(OpUpdate, errors.New("boom"))

			So(testutil.ToFloat64(globalManager.slotOperations.WithLabelValues(OpUpdate, OutcomeSuccess))-okBefore, ShouldEqual, 1)
			So(testutil.ToFloat64(globalManager.slotOperations.WithLabelValues(OpUpdate, OutcomeFailed))-failBefore, ShouldEqual, 1)
		})

		Convey("When updating gauges", func() {
			UpdateRankingEntries(2)
			UpdateSlotsPresent(4)

			So(testutil.ToFloat64(globalManager.rankingEntries), ShouldEqual, 2)
			So(testutil.ToFloat64(globalManager.slotsPresent), ShouldEqual, 4)
		})

		Convey("When recording aggregation counters", func() {
			So(func() {
				RecordRecordsRead(4)
				RecordRecordSkipped()
				RecordNameUnresolved()
				RecordSourceUnavailable()
				RecordHTTPRequest("report", "GET", "200", 5*time.Millisecond)
			}, ShouldNotPanic)
		})

		Convey("When reading the registry", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
