package observability

import "time"

// The helpers below are nil-safe so components can run without metrics.

func (p *Prom) IncAuthFailure(kind string) {
	if p == nil {
		return
	}
	p.AuthFailures.WithLabelValues(kind).Inc()
}

func (p *Prom) IncOptionalAuthFailure() {
	if p == nil {
		return
	}
	p.OptionalAuthFailures.Inc()
}

func (p *Prom) ObserveJob(jobType, result string, d time.Duration) {
	if p == nil {
		return
	}
	p.JobResults.WithLabelValues(jobType, result).Inc()
	p.JobDuration.WithLabelValues(jobType, result).Observe(d.Seconds())
}
