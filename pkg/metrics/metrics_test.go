package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// scrape returns the exposition text served by the manager.
func scrape(m *Manager) string {
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager()

			Convey("Then it should own a registry and be enabled", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Registry(), ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
			})
		})

		Convey("When creating with a custom registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithPrometheusRegistry(registry),
				WithNamespace("test"),
				WithSubsystem("engine"),
				WithHistogramBuckets([]float64{1, 10}),
			)

			Convey("Then metrics are registered on it", func() {
				So(manager.Registry(), ShouldEqual, registry)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		manager := NewManager()

		Convey("When dispatch outcomes are recorded", func() {
			manager.GestureDetected("clear", "circle")
			manager.GestureDetected("clear", "circle")
			manager.DetectorError("custom")
			manager.CallbackError("clear")
			manager.ObserveDispatch("stroke", 2*time.Millisecond)

			Convey("Then the counters reflect them", func() {
				body := scrape(manager)
				So(body, ShouldContainSubstring, `twingest_gestures_detected_total{gesture="clear",type="circle"} 2`)
				So(body, ShouldContainSubstring, `twingest_detector_errors_total{gesture="custom"} 1`)
				So(body, ShouldContainSubstring, `twingest_callback_errors_total{name="clear"} 1`)
				So(body, ShouldContainSubstring, `twingest_dispatch_duration_milliseconds_count{trigger="stroke"} 1`)
			})
		})

		Convey("When sessions open and close", func() {
			manager.SessionOpened()
			manager.SessionOpened()
			manager.SessionClosed()

			Convey("Then the gauge tracks the live count", func() {
				So(scrape(manager), ShouldContainSubstring, "twingest_active_sessions 1")
			})
		})

		Convey("When input and voice events are recorded", func() {
			manager.EventReceived("pointermove")
			manager.VoiceCommand("undo")
			manager.RecordHTTPRequest("/api/health", "GET", "200", time.Millisecond)

			Convey("Then they are exposed by the handler", func() {
				body := scrape(manager)
				So(body, ShouldContainSubstring, `twingest_input_events_total{type="pointermove"} 1`)
				So(body, ShouldContainSubstring, `twingest_voice_commands_total{command="undo"} 1`)
				So(body, ShouldContainSubstring, `twingest_http_requests_total{method="GET",route="/api/health",status_code="200"} 1`)
			})
		})
	})
}

func TestMetricsDisabled(t *testing.T) {
	Convey("Given a disabled metrics manager", t, func() {
		manager := NewManager(WithMetricsEnabled(false))

		Convey("When recording", func() {
			manager.GestureDetected("clear", "circle")
			manager.SessionOpened()

			Convey("Then nothing changes", func() {
				So(manager.Enabled(), ShouldBeFalse)
				body := scrape(manager)
				So(body, ShouldNotContainSubstring, "twingest_gestures_detected_total{")
				So(body, ShouldContainSubstring, "twingest_active_sessions 0")
			})
		})
	})
}
