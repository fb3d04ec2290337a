package metrics

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Summary is the JSON body of the live metrics endpoint.
type Summary struct {
	API      httpSummary  `json:"api"`
	Auth     httpSummary  `json:"auth"`
	Public   httpSummary  `json:"public"`
	Access   accessInfo   `json:"access"`
	Accounts accountInfo  `json:"accounts"`
	Activity activityInfo `json:"activity"`
	DB       dbInfo       `json:"db"`
	Server   serverInfo   `json:"server"`
}

type httpSummary struct {
	TotalRequests float64 `json:"totalRequests"`
	ErrorRate     float64 `json:"errorRate"`
	P50Latency    float64 `json:"p50Latency"`
	P95Latency    float64 `json:"p95Latency"`
	P99Latency    float64 `json:"p99Latency"`
}

type accessInfo struct {
	AuthFailures        float64 `json:"authFailures"`
	AuthSuccesses       float64 `json:"authSuccesses"`
	RateLimitRejections float64 `json:"rateLimitRejections"`
	PolicyDenials       float64 `json:"policyDenials"`
}

type accountInfo struct {
	Signups     float64 `json:"signups"`
	Logins      float64 `json:"logins"`
	Invitations float64 `json:"invitations"`
	Failures    float64 `json:"failures"`
}

type activityInfo struct {
	Flushes     float64 `json:"flushes"`
	FlushErrors float64 `json:"flushErrors"`
	Users       float64 `json:"users"`
}

type serverInfo struct {
	StartTime     float64 `json:"startTime"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

type dbInfo struct {
	TotalConns    float64 `json:"totalConns"`
	IdleConns     float64 `json:"idleConns"`
	AcquiredConns float64 `json:"acquiredConns"`
}

// Handler serves a JSON digest of the registry for the staff dashboard.
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := m.Summarize()
		if err != nil {
			http.Error(w, "failed to gather metrics", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store")
		_ = json.NewEncoder(w).Encode(summary)
	}
}

// Summarize gathers the registry into a Summary.
func (m *Metrics) Summarize() (*Summary, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	fam := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		fam[f.GetName()] = f
	}

	events := fam["roiportal_account_events_total"]
	start := gaugeValue(fam["roiportal_server_start_time_seconds"])
	return &Summary{
		API:    kindSummary(fam, KindAPI),
		Auth:   kindSummary(fam, KindAuth),
		Public: kindSummary(fam, KindPublic),
		Access: accessInfo{
			AuthFailures:        sumCounter(fam["roiportal_auth_failures_total"], "", ""),
			AuthSuccesses:       sumCounter(fam["roiportal_auth_successes_total"], "", ""),
			RateLimitRejections: sumCounter(fam["roiportal_ratelimit_rejections_total"], "", ""),
			PolicyDenials:       sumCounter(fam["roiportal_policy_denials_total"], "", ""),
		},
		Accounts: accountInfo{
			Signups:     sumCounter(events, "event", "signup"),
			Logins:      sumCounter(events, "event", "login"),
			Invitations: sumCounter(events, "event", "invite"),
			Failures:    sumCounter(events, "outcome", "failure"),
		},
		Activity: activityInfo{
			Flushes:     sumCounter(fam["roiportal_activity_flushes_total"], "", ""),
			FlushErrors: sumCounter(fam["roiportal_activity_flushes_total"], "status", "error"),
			Users:       sumCounter(fam["roiportal_activity_users_total"], "", ""),
		},
		DB: dbInfo{
			TotalConns:    gaugeValue(fam["roiportal_db_pool_total_conns"]),
			IdleConns:     gaugeValue(fam["roiportal_db_pool_idle_conns"]),
			AcquiredConns: gaugeValue(fam["roiportal_db_pool_acquired_conns"]),
		},
		Server: serverInfo{
			StartTime:     start,
			UptimeSeconds: float64(time.Now().Unix()) - start,
		},
	}, nil
}

func kindSummary(fam map[string]*dto.MetricFamily, kind string) httpSummary {
	requests := fam["roiportal_http_requests_total"]
	durations := fam["roiportal_http_request_duration_seconds"]
	return httpSummary{
		TotalRequests: sumCounter(requests, "kind", kind),
		ErrorRate:     errorRate(requests, "kind", kind),
		P50Latency:    histogramPercentile(durations, 0.50, "kind", kind),
		P95Latency:    histogramPercentile(durations, 0.95, "kind", kind),
		P99Latency:    histogramPercentile(durations, 0.99, "kind", kind),
	}
}

// --- Prometheus metric helpers ---
//
// An empty labelName matches every series in the family.

func matches(m *dto.Metric, name, value string) bool {
	if name == "" {
		return true
	}
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func sumCounter(f *dto.MetricFamily, labelName, labelValue string) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if matches(m, labelName, labelValue) && m.GetCounter() != nil {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func gaugeValue(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	ms := f.GetMetric()
	if len(ms) == 0 || ms[0].GetGauge() == nil {
		return 0
	}
	return ms[0].GetGauge().GetValue()
}

// errorRate is the share of matching requests answered with 4xx or 5xx.
func errorRate(f *dto.MetricFamily, labelName, labelValue string) float64 {
	if f == nil {
		return 0
	}
	var total, errors float64
	for _, m := range f.GetMetric() {
		if !matches(m, labelName, labelValue) || m.GetCounter() == nil {
			continue
		}
		v := m.GetCounter().GetValue()
		total += v
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "status_code" {
				code := lp.GetValue()
				if len(code) > 0 && code[0] >= '4' {
					errors += v
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return errors / total
}

// histogramPercentile estimates quantile q across the matching histograms
// using linear interpolation within buckets.
func histogramPercentile(f *dto.MetricFamily, q float64, labelName, labelValue string) float64 {
	if f == nil {
		return 0
	}

	type bucket struct {
		upperBound      float64
		cumulativeCount uint64
	}
	var totalCount uint64
	bucketMap := make(map[float64]uint64)

	for _, m := range f.GetMetric() {
		if !matches(m, labelName, labelValue) {
			continue
		}
		h := m.GetHistogram()
		if h == nil {
			continue
		}
		totalCount += h.GetSampleCount()
		for _, b := range h.GetBucket() {
			bucketMap[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if totalCount == 0 {
		return 0
	}

	buckets := make([]bucket, 0, len(bucketMap))
	for ub, count := range bucketMap {
		if !math.IsInf(ub, 1) {
			buckets = append(buckets, bucket{upperBound: ub, cumulativeCount: count})
		}
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].upperBound < buckets[j].upperBound
	})

	rank := q * float64(totalCount)
	var prevBound float64
	var prevCount uint64
	for _, b := range buckets {
		if float64(b.cumulativeCount) >= rank {
			inBucket := b.cumulativeCount - prevCount
			if inBucket == 0 {
				return b.upperBound
			}
			fraction := (rank - float64(prevCount)) / float64(inBucket)
			return prevBound + fraction*(b.upperBound-prevBound)
		}
		prevBound = b.upperBound
		prevCount = b.cumulativeCount
	}

	if len(buckets) > 0 {
		return buckets[len(buckets)-1].upperBound
	}
	return 0
}
