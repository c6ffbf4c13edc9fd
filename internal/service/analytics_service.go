package service

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"agriland/internal/apperr"
	"agriland/internal/model"
	"agriland/internal/repository"
)

// Aggregation levels of the mission analytics
const (
	AggregationDaily   = "daily"
	AggregationWeekly  = "weekly"
	AggregationMonthly = "monthly"
)

// ValidAggregation reports whether s names an aggregation level
func ValidAggregation(s string) bool {
	return s == AggregationDaily || s == AggregationWeekly || s == AggregationMonthly
}

// AnalyticsService defines the interface for mission analytics
type AnalyticsService interface {
	MissionAnalytics(ctx context.Context, q AnalyticsQuery) (*AnalyticsResponse, error)
}

// AnalyticsQuery selects the missions scheduled in [StartDate, EndDate)
type AnalyticsQuery struct {
	StartDate   time.Time
	EndDate     time.Time
	Aggregation string
	Region      string
}

// AnalyticsResponse represents the mission analytics response
type AnalyticsResponse struct {
	Region          string                 `json:"region,omitempty"`
	Period          PeriodInfo             `json:"period"`
	Aggregation     string                 `json:"aggregation"`
	Data            []AggregatedDataPoint  `json:"data"`
	Summary         AnalyticsSummary       `json:"summary"`
	RegionBreakdown []RegionBreakdown      `json:"regionBreakdown,omitempty"`
	YearOverYear    YearOverYearComparison `json:"yearOverYear"`
}

// PeriodInfo contains date range information
type PeriodInfo struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// AggregatedDataPoint counts the missions scheduled in one period
type AggregatedDataPoint struct {
	Period         time.Time `json:"period"`
	Missions       int       `json:"missions"`
	Completed      int       `json:"completed"`
	Cancelled      int       `json:"cancelled"`
	Active         int       `json:"active"`
	CompletionRate float64   `json:"completionRate"` // completed / missions
	AveragePh      *float64  `json:"averagePh,omitempty"`
}

// AnalyticsSummary contains summary statistics
type AnalyticsSummary struct {
	TotalMissions  int      `json:"totalMissions"`
	Completed      int      `json:"completed"`
	Cancelled      int      `json:"cancelled"`
	Active         int      `json:"active"`
	CompletionRate float64  `json:"completionRate"`
	AveragePh      *float64 `json:"averagePh,omitempty"`
}

// RegionBreakdown contains analytics broken down by request region
type RegionBreakdown struct {
	Region         string   `json:"region"`
	TotalMissions  int      `json:"totalMissions"`
	Completed      int      `json:"completed"`
	CompletionRate float64  `json:"completionRate"`
	AveragePh      *float64 `json:"averagePh,omitempty"`
}

// YearOverYearComparison contains YoY comparison data
type YearOverYearComparison struct {
	OneYearAgo  *PeriodMetrics `json:"oneYearAgo,omitempty"`
	TwoYearsAgo *PeriodMetrics `json:"twoYearsAgo,omitempty"`
}

// PeriodMetrics contains metrics for a past period with percentage changes
// relative to the requested one
type PeriodMetrics struct {
	Period                      PeriodInfo `json:"period"`
	TotalMissions               int        `json:"totalMissions"`
	Completed                   int        `json:"completed"`
	CompletionRate              float64    `json:"completionRate"`
	MissionsChangePercent       float64    `json:"missionsChangePercent"`
	CompletedChangePercent      float64    `json:"completedChangePercent"`
	CompletionRateChangePercent float64    `json:"completionRateChangePercent"`
}

// analyticsService implements AnalyticsService
type analyticsService struct {
	repo   repository.AnalyticsRepository
	logger *slog.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(repo repository.AnalyticsRepository, logger *slog.Logger) AnalyticsService {
	return &analyticsService{repo: repo, logger: logger}
}

// MissionAnalytics aggregates mission activity per period, per region and
// against the same period of the two previous years
func (s *analyticsService) MissionAnalytics(ctx context.Context, q AnalyticsQuery) (*AnalyticsResponse, error) {
	if !q.EndDate.After(q.StartDate) {
		return nil, apperr.Validation("endDate", "must be after startDate")
	}
	if !ValidAggregation(q.Aggregation) {
		q.Aggregation = AggregationDaily
	}

	current, err := s.repo.MissionActivity(ctx, q.StartDate, q.EndDate, q.Region)
	if err != nil {
		return nil, err
	}

	summary := calculateSummary(current)
	resp := &AnalyticsResponse{
		Region:      q.Region,
		Period:      PeriodInfo{StartDate: q.StartDate, EndDate: q.EndDate},
		Aggregation: q.Aggregation,
		Data:        processDataPoints(current, q.Aggregation),
		Summary:     summary,
	}
	if q.Region == "" {
		resp.RegionBreakdown = calculateRegionBreakdown(current)
	}
	resp.YearOverYear = s.calculateYearOverYear(ctx, q, summary)
	return resp, nil
}

// periodStart truncates t to the start of its daily, weekly (Monday) or monthly bucket
func periodStart(t time.Time, aggregation string) time.Time {
	y, m, d := t.UTC().Date()
	switch aggregation {
	case AggregationWeekly:
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		sinceMonday := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -sinceMonday)
	case AggregationMonthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}

// tally accumulates counts over a set of missions
type tally struct {
	missions, completed, cancelled, active int
	phSum                                  float64
	phCount                                int
}

func (t *tally) add(a repository.MissionActivity) {
	t.missions++
	switch {
	case a.Status == model.MissionCompleted:
		t.completed++
	case a.Status == model.MissionCancelled:
		t.cancelled++
	case a.Status.IsActive():
		t.active++
	}
	if a.Ph != nil {
		t.phSum += *a.Ph
		t.phCount++
	}
}

func (t *tally) completionRate() float64 {
	if t.missions == 0 {
		return 0
	}
	return math.Round(float64(t.completed)/float64(t.missions)*10000) / 10000
}

func (t *tally) averagePh() *float64 {
	if t.phCount == 0 {
		return nil
	}
	avg := math.Round(t.phSum/float64(t.phCount)*100) / 100
	return &avg
}

// processDataPoints groups the activity into ascending period buckets
func processDataPoints(activity []repository.MissionActivity, aggregation string) []AggregatedDataPoint {
	buckets := make(map[time.Time]*tally)
	for _, a := range activity {
		key := periodStart(a.ScheduledDate, aggregation)
		b, ok := buckets[key]
		if !ok {
			b = &tally{}
			buckets[key] = b
		}
		b.add(a)
	}

	points := make([]AggregatedDataPoint, 0, len(buckets))
	for period, b := range buckets {
		points = append(points, AggregatedDataPoint{
			Period:         period,
			Missions:       b.missions,
			Completed:      b.completed,
			Cancelled:      b.cancelled,
			Active:         b.active,
			CompletionRate: b.completionRate(),
			AveragePh:      b.averagePh(),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period.Before(points[j].Period) })
	return points
}

// calculateSummary computes summary statistics
func calculateSummary(activity []repository.MissionActivity) AnalyticsSummary {
	var t tally
	for _, a := range activity {
		t.add(a)
	}
	return AnalyticsSummary{
		TotalMissions:  t.missions,
		Completed:      t.completed,
		Cancelled:      t.cancelled,
		Active:         t.active,
		CompletionRate: t.completionRate(),
		AveragePh:      t.averagePh(),
	}
}

// calculateRegionBreakdown computes analytics per region, ordered by region name
func calculateRegionBreakdown(activity []repository.MissionActivity) []RegionBreakdown {
	regions := make(map[string]*tally)
	for _, a := range activity {
		r, ok := regions[a.Region]
		if !ok {
			r = &tally{}
			regions[a.Region] = r
		}
		r.add(a)
	}

	breakdowns := make([]RegionBreakdown, 0, len(regions))
	for region, r := range regions {
		breakdowns = append(breakdowns, RegionBreakdown{
			Region:         region,
			TotalMissions:  r.missions,
			Completed:      r.completed,
			CompletionRate: r.completionRate(),
			AveragePh:      r.averagePh(),
		})
	}
	sort.Slice(breakdowns, func(i, j int) bool { return breakdowns[i].Region < breakdowns[j].Region })
	return breakdowns
}

// calculateYearOverYear compares the requested period with the same period one
// and two years back. A past period with no missions is left out; a failed read
// is logged and left out.
func (s *analyticsService) calculateYearOverYear(ctx context.Context, q AnalyticsQuery, current AnalyticsSummary) YearOverYearComparison {
	yoy := YearOverYearComparison{}
	for _, yearsBack := range []int{1, 2} {
		activity, err := s.repo.YearOverYearActivity(ctx, q.StartDate, q.EndDate, q.Region, yearsBack)
		if err != nil {
			s.logger.Warn("failed to load past period activity",
				"years_back", yearsBack,
				"error", err.Error(),
			)
			continue
		}
		if len(activity) == 0 {
			continue
		}

		past := calculateSummary(activity)
		metrics := &PeriodMetrics{
			Period: PeriodInfo{
				StartDate: q.StartDate.AddDate(-yearsBack, 0, 0),
				EndDate:   q.EndDate.AddDate(-yearsBack, 0, 0),
			},
			TotalMissions:               past.TotalMissions,
			Completed:                   past.Completed,
			CompletionRate:              past.CompletionRate,
			MissionsChangePercent:       calculateChangePercent(float64(current.TotalMissions), float64(past.TotalMissions)),
			CompletedChangePercent:      calculateChangePercent(float64(current.Completed), float64(past.Completed)),
			CompletionRateChangePercent: calculateChangePercent(current.CompletionRate, past.CompletionRate),
		}
		if yearsBack == 1 {
			yoy.OneYearAgo = metrics
		} else {
			yoy.TwoYearsAgo = metrics
		}
	}
	return yoy
}

// calculateChangePercent calculates percentage change between two values.
// Growth from zero is reported as 100%.
func calculateChangePercent(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0.0
		}
		return 100.0
	}
	change := ((current - previous) / previous) * 100
	return math.Round(change*100) / 100
}
