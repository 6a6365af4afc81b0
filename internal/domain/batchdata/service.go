package batchdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/repository"
	"github.com/rpggio/batchreport/internal/timecodec"
	"golang.org/x/sync/errgroup"
)

// Service joins the three log stores over a batch window.
type Service struct {
	security repository.SecurityLogStore
	alarms   repository.AlarmLogStore
	trend    repository.TrendLogStore
	codec    timecodec.Codec
	logger   *slog.Logger
}

// NewService creates a new joiner over the given stores.
func NewService(security repository.SecurityLogStore, alarms repository.AlarmLogStore, trend repository.TrendLogStore, codec timecodec.Codec, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{security: security, alarms: alarms, trend: trend, codec: codec, logger: logger}
}

// Fetch runs the three range queries concurrently. A missing store produces
// an empty set; any other store failure fails the whole fetch.
func (s *Service) Fetch(ctx context.Context, w batch.Window) (*BatchData, error) {
	key := w.Key()
	if err := key.Validate(); err != nil {
		return nil, err
	}
	kr := key.Range()
	data := &BatchData{Window: w}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.security.QueryRange(gctx, kr)
		if data.Available.Security, err = s.absentAsEmpty("security", err); err != nil {
			return fmt.Errorf("querying security log: %w", err)
		}
		data.Security, data.Skipped.Security = s.decodeSecurity(rows)
		return nil
	})
	g.Go(func() error {
		rows, err := s.alarms.QueryRange(gctx, kr)
		if data.Available.Alarms, err = s.absentAsEmpty("alarm", err); err != nil {
			return fmt.Errorf("querying alarm log: %w", err)
		}
		data.Alarms, data.Skipped.Alarms = s.decodeAlarms(rows)
		return nil
	})
	g.Go(func() error {
		rows, err := s.trend.QueryRange(gctx, kr)
		if data.Available.Trend, err = s.absentAsEmpty("trend", err); err != nil {
			return fmt.Errorf("querying trend log: %w", err)
		}
		data.Trend, data.Skipped.Trend = s.decodeTrend(rows)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("fetched batch data",
		"batch", key.String(),
		"security", len(data.Security),
		"alarms", len(data.Alarms),
		"trend", len(data.Trend),
		"skipped", data.Skipped,
	)
	return data, nil
}

func (s *Service) absentAsEmpty(source string, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrStoreAbsent) {
		s.logger.Info("log store absent, treating as empty", "source", source)
		return false, nil
	}
	return false, err
}

func (s *Service) decodeSecurity(rows []repository.SecurityRow) ([]SecurityEntry, int) {
	out := make([]SecurityEntry, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		ts, err := s.codec.Decode(row.Date, row.Time)
		if err != nil {
			s.logger.Debug("skipping security row", "date", row.Date, "time", row.Time, "error", err)
			skipped++
			continue
		}
		out = append(out, SecurityEntry{Timestamp: ts, Message: row.Message})
	}
	return out, skipped
}

func (s *Service) decodeAlarms(rows []repository.AlarmRow) ([]Alarm, int) {
	out := make([]Alarm, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		occurred, err := s.codec.Decode(row.OccurDate, row.OccurTime)
		if err != nil {
			s.logger.Debug("skipping alarm row", "alarm_id", row.AlarmID, "date", row.OccurDate, "time", row.OccurTime, "error", err)
			skipped++
			continue
		}
		alarm := Alarm{OccurredAt: occurred, AlarmID: row.AlarmID}
		if row.RecoverDate != nil && row.RecoverTime != nil {
			recovered, err := s.codec.Decode(row.RecoverDate, row.RecoverTime)
			if err != nil {
				s.logger.Debug("unreadable alarm recovery, treating as open", "alarm_id", row.AlarmID, "error", err)
			} else {
				alarm.RecoveredAt = &recovered
			}
		}
		out = append(out, alarm)
	}
	return out, skipped
}

func (s *Service) decodeTrend(rows []repository.TrendRow) ([]TrendSample, int) {
	out := make([]TrendSample, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		if row.Value1 == nil || row.Value2 == nil || row.Value3 == nil || row.ProcessCode == nil {
			skipped++
			continue
		}
		if !finite(*row.Value1, *row.Value2, *row.Value3) {
			s.logger.Debug("skipping non-finite trend row", "date", row.Date, "time", row.Time)
			skipped++
			continue
		}
		ts, err := s.codec.Decode(row.Date, row.Time)
		if err != nil {
			s.logger.Debug("skipping trend row", "date", row.Date, "time", row.Time, "error", err)
			skipped++
			continue
		}
		out = append(out, TrendSample{
			Timestamp:   ts,
			Value1:      *row.Value1,
			Value2:      *row.Value2,
			Value3:      *row.Value3,
			ProcessCode: *row.ProcessCode,
		})
	}
	return out, skipped
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
