package reporting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"portfolio-pricing-lab/internal/domain"
	"portfolio-pricing-lab/internal/observability"
	"portfolio-pricing-lab/internal/storage"
	"portfolio-pricing-lab/internal/valuation"
)

// ConsoleSink writes each report as a table to a writer.
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink creates a ConsoleSink writing to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

var _ valuation.ReportSink = (*ConsoleSink)(nil)

// Publish renders the report and writes it followed by a blank line.
func (s *ConsoleSink) Publish(report *domain.ValuationReport) error {
	if _, err := io.WriteString(s.w, RenderTable(report)+"\n"); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// HistorySink persists each report to a history store. Persistence failures
// are logged and counted but do not fail the publish, so a slow or down
// store never stalls the valuation path.
type HistorySink struct {
	store   storage.ReportHistoryStore
	logger  *log.Logger
	timeout time.Duration
}

// NewHistorySink creates a HistorySink. A zero timeout defaults to 5s per
// insert.
func NewHistorySink(store storage.ReportHistoryStore, logger *log.Logger, timeout time.Duration) *HistorySink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HistorySink{store: store, logger: logger, timeout: timeout}
}

var _ valuation.ReportSink = (*HistorySink)(nil)

// Publish inserts the report into the history store.
func (s *HistorySink) Publish(report *domain.ValuationReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err := s.store.Insert(ctx, report)
	observability.RecordReportPersisted(err)
	if err != nil && s.logger != nil {
		s.logger.Printf("persist report seq=%d: %v", report.Seq, err)
	}
	return nil
}

// MultiSink fans a report out to several sinks. Every sink is attempted;
// errors are joined.
type MultiSink struct {
	sinks []valuation.ReportSink
}

// NewMultiSink creates a MultiSink over the given sinks.
func NewMultiSink(sinks ...valuation.ReportSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

var _ valuation.ReportSink = (*MultiSink)(nil)

// Publish delivers the report to all sinks.
func (s *MultiSink) Publish(report *domain.ValuationReport) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Publish(report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
