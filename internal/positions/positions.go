// Package positions loads portfolio positions from CSV against a validated
// security universe.
package positions

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"portfolio-pricing-lab/internal/domain"
	"portfolio-pricing-lab/internal/refdata"
)

// ErrEmptyPortfolio indicates the CSV yielded no usable positions.
var ErrEmptyPortfolio = errors.New("no positions loaded")

// Load reads positions from CSV with a "ticker,quantity" header. Rows whose
// ticker is not in the universe are skipped with a warning rather than
// failing the whole load. Quantity may be negative for short positions.
func Load(r io.Reader, defs *refdata.Definitions, logger *log.Logger) ([]domain.Position, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[0]), "ticker") {
		return nil, fmt.Errorf("unexpected csv header: %v", header)
	}

	var result []domain.Position
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("csv line %d: expected 2 fields, got %d", line, len(record))
		}

		ticker := strings.TrimSpace(record[0])
		quantity, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: parse quantity: %w", line, err)
		}

		sec, ok := defs.SecurityByTicker(ticker)
		if !ok {
			if logger != nil {
				logger.Printf("skipping position with unknown ticker %q (line %d)", ticker, line)
			}
			continue
		}

		result = append(result, domain.Position{Security: sec, Quantity: quantity})
	}

	if len(result) == 0 {
		return nil, ErrEmptyPortfolio
	}
	return result, nil
}

// LoadFile reads positions from a CSV file on disk.
func LoadFile(path string, defs *refdata.Definitions, logger *log.Logger) ([]domain.Position, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open positions file: %w", err)
	}
	defer f.Close()

	return Load(f, defs, logger)
}
