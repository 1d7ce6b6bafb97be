package repository

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"previdas_backend/internal/leads/domain"
)

// averageTicket is the assumed deal value in BRL used for the revenue
// estimate on the dashboard.
const averageTicket = 800

// ScoreBucket is one band of the score distribution.
type ScoreBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DashboardMetrics summarizes the funnel for the operations dashboard.
type DashboardMetrics struct {
	TotalLeads        int              `json:"totalLeads"`
	ByStatus          map[string]int   `json:"byStatus"`
	AverageScore      float64          `json:"averageScore"`
	QualifiedThisWeek int              `json:"qualifiedThisWeek"`
	MessagesToday     int              `json:"messagesToday"`
	AutomationsToday  int              `json:"automationsToday"`
	TopLeads          []domain.Contact `json:"topLeads"`
	ConversionRatePct float64          `json:"conversionRatePct"`
	ConvertedLeads    int              `json:"convertedLeads"`
	EstimatedRevenue  int              `json:"estimatedRevenue"`
	ScoreDistribution []ScoreBucket    `json:"scoreDistribution"`
	GeneratedAt       time.Time        `json:"generatedAt"`
}

// DashboardMetrics gathers the funnel numbers. The independent queries run
// concurrently; one failure cancels the rest.
func (r *Repository) DashboardMetrics(ctx context.Context) (*DashboardMetrics, error) {
	metrics := &DashboardMetrics{
		ByStatus:    make(map[string]int),
		GeneratedAt: time.Now().UTC(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := r.pool.Query(gctx, `
			SELECT status, COUNT(*), COALESCE(AVG(score), 0)
			FROM leads
			GROUP BY status
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		var weightedSum float64
		for rows.Next() {
			var status string
			var count int
			var avg float64
			if err := rows.Scan(&status, &count, &avg); err != nil {
				return err
			}
			metrics.ByStatus[status] = count
			metrics.TotalLeads += count
			weightedSum += avg * float64(count)
		}
		if rows.Err() != nil {
			return rows.Err()
		}

		if metrics.TotalLeads > 0 {
			metrics.AverageScore = weightedSum / float64(metrics.TotalLeads)
			metrics.ConversionRatePct = float64(metrics.ByStatus[string(domain.StatusQualified)]) / float64(metrics.TotalLeads) * 100
		}
		return nil
	})

	g.Go(func() error {
		return r.pool.QueryRow(gctx, `
			SELECT COUNT(*)
			FROM leads
			WHERE status = $1 AND updated_at >= NOW() - INTERVAL '7 days'
		`, domain.StatusQualified).Scan(&metrics.QualifiedThisWeek)
	})

	g.Go(func() error {
		return r.pool.QueryRow(gctx, `
			SELECT COUNT(*)
			FROM conversations
			WHERE timestamp >= CURRENT_DATE
		`).Scan(&metrics.MessagesToday)
	})

	g.Go(func() error {
		return r.pool.QueryRow(gctx, `
			SELECT COUNT(*)
			FROM automation_logs
			WHERE created_at >= CURRENT_DATE
		`).Scan(&metrics.AutomationsToday)
	})

	g.Go(func() error {
		top, err := r.List(gctx, ListParams{MinScore: 70, Limit: 10})
		if err != nil {
			return err
		}
		metrics.TopLeads = top
		return nil
	})

	g.Go(func() error {
		if err := r.pool.QueryRow(gctx, `
			SELECT COUNT(*)
			FROM leads
			WHERE score >= 85
		`).Scan(&metrics.ConvertedLeads); err != nil {
			return err
		}
		metrics.EstimatedRevenue = metrics.ConvertedLeads * averageTicket
		return nil
	})

	g.Go(func() error {
		rows, err := r.pool.Query(gctx, `
			SELECT
				CASE
					WHEN score <= 19 THEN 'muito frio (0-19)'
					WHEN score <= 49 THEN 'frio (20-49)'
					WHEN score <= 74 THEN 'morno (50-74)'
					ELSE 'quente (75+)'
				END,
				COUNT(*)
			FROM leads
			GROUP BY 1
			ORDER BY MIN(score)
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var bucket ScoreBucket
			if err := rows.Scan(&bucket.Label, &bucket.Count); err != nil {
				return err
			}
			metrics.ScoreDistribution = append(metrics.ScoreDistribution, bucket)
		}
		return rows.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return metrics, nil
}

// StatusCounts returns just the per-status totals for the lightweight stats
// endpoint.
func (r *Repository) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
