package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/loginflow"
	"github.com/MrEthical07/loginflow/metrics/export/internaldefs"
)

// Exporter renders the engine's counters and live flow gauges in
// Prometheus text exposition format.
type Exporter struct {
	source internaldefs.Source
}

// New returns an Exporter reading from engine.
func New(engine *loginflow.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewFromSource returns an Exporter reading from any [internaldefs.Source].
func NewFromSource(source internaldefs.Source) *Exporter {
	return &Exporter{source: source}
}

// Handler serves the exposition text. Session gauges are read with the
// request's context.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(e.Render(r.Context())))
	})
}

// Render returns the exposition text. Gauges and the audit drop counter are
// always present; counters and the latency histogram only while metrics are
// enabled.
func (e *Exporter) Render(ctx context.Context) string {
	if e == nil || e.source == nil {
		return ""
	}

	live := internaldefs.ReadLiveState(ctx, e.source)
	snapshot := e.source.MetricsSnapshot()

	var x exposition
	x.b.Grow(4096)

	for _, def := range internaldefs.GaugeDefs {
		x.header(def.Name, def.Help, "gauge")
		x.sample(def.Name, "", strconv.FormatInt(def.Value(live), 10))
	}

	if len(snapshot.Counters) > 0 || len(snapshot.Histograms) > 0 {
		for _, def := range internaldefs.CounterDefs {
			x.header(def.Name, def.Help, "counter")
			x.sample(def.Name, "", strconv.FormatUint(snapshot.Counters[def.ID], 10))
		}
		for _, def := range internaldefs.HistogramDefs {
			x.histogram(def, snapshot.Histograms[def.ID])
		}
	}

	const dropped = "loginflow_audit_dropped_total"
	x.header(dropped, "Audit events dropped because the dispatcher queue was full.", "counter")
	x.sample(dropped, "", strconv.FormatUint(e.source.AuditDropped(), 10))

	return x.b.String()
}

type exposition struct {
	b strings.Builder
}

func (x *exposition) header(name, help, typ string) {
	x.b.WriteString("# HELP " + name + " " + escapeHelp(help) + "\n")
	x.b.WriteString("# TYPE " + name + " " + typ + "\n")
}

func (x *exposition) sample(name, labels, value string) {
	x.b.WriteString(name)
	if labels != "" {
		x.b.WriteString("{" + labels + "}")
	}
	x.b.WriteString(" " + value + "\n")
}

func (x *exposition) histogram(def internaldefs.HistogramDef, raw []uint64) {
	cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))

	x.header(def.Name, def.Help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		x.sample(def.Name+"_bucket", `le="`+le+`"`, strconv.FormatUint(cumulative[i], 10))
	}
	x.sample(def.Name+"_count", "", strconv.FormatUint(cumulative[len(cumulative)-1], 10))
	// Snapshots carry no sum.
	x.sample(def.Name+"_sum", "", "0")
}

func escapeHelp(help string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(help)
}
