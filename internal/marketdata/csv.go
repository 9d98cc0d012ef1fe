// Package marketdata loads and aligns daily OHLC series. The engine only
// ever sees the output of Align: two series of equal length with matching
// dates, strictly increasing, no duplicates.
package marketdata

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "tecl-trader/internal/errors"
	"tecl-trader/internal/models"
)

const dateLayout = "2006-01-02"

// LoadCSV reads one instrument's daily bars from a CSV file with columns
//
//	Date,Open,High,Low,Close[,...]
//
// where Date is YYYY-MM-DD. A header row is allowed; extra columns (volume,
// adjusted close) are ignored. Rows must already be in date order.
func LoadCSV(path string, instrument models.Instrument) ([]models.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewDataError(string(instrument), "open csv", err)
	}
	defer f.Close()
	return readBars(f, instrument)
}

func readBars(r io.Reader, instrument models.Instrument) ([]models.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var bars []models.Bar
	sawFirst := false
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewDataError(string(instrument), "read csv", err)
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "date") {
				continue
			}
		}

		bar, err := parseRow(row, instrument)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}

	if err := Validate(bars, instrument); err != nil {
		return nil, err
	}
	return bars, nil
}

func parseRow(row []string, instrument models.Instrument) (models.Bar, error) {
	if len(row) < 5 {
		return models.Bar{}, apperrors.NewDataError(string(instrument), "row has fewer than 5 columns", nil)
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(row[0]))
	if err != nil {
		return models.Bar{}, apperrors.NewDataError(string(instrument), "bad date "+row[0], err)
	}

	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return models.Bar{}, apperrors.NewDataError(string(instrument), "bad number "+row[i+1], err)
		}
		vals[i] = v
	}

	return models.Bar{
		Date:  date,
		Open:  vals[0],
		High:  vals[1],
		Low:   vals[2],
		Close: vals[3],
	}, nil
}

// Validate checks ordering and positivity. Series must be strictly
// increasing by date; opens must be positive since they divide and
// denominate every rule.
func Validate(bars []models.Bar, instrument models.Instrument) error {
	for i, b := range bars {
		if b.Open <= 0 {
			return apperrors.NewDataError(string(instrument),
				"non-positive open on "+b.Date.Format(dateLayout), apperrors.ErrMisalignedData)
		}
		if i > 0 && !b.Date.After(bars[i-1].Date) {
			return apperrors.NewDataError(string(instrument),
				"dates not strictly increasing at "+b.Date.Format(dateLayout), apperrors.ErrMisalignedData)
		}
	}
	return nil
}

// Align inner-joins the two series on date. Sessions present in only one
// series are dropped from both sides; the strategy never evaluates a day it
// cannot see both legs of.
func Align(primary, secondary []models.Bar) ([]models.Bar, []models.Bar, error) {
	if err := Validate(primary, models.InstrumentPrimary); err != nil {
		return nil, nil, err
	}
	if err := Validate(secondary, models.InstrumentSecondary); err != nil {
		return nil, nil, err
	}

	outP := make([]models.Bar, 0, len(primary))
	outS := make([]models.Bar, 0, len(secondary))
	i, j := 0, 0
	for i < len(primary) && j < len(secondary) {
		switch {
		case primary[i].Date.Before(secondary[j].Date):
			i++
		case secondary[j].Date.Before(primary[i].Date):
			j++
		default:
			outP = append(outP, primary[i])
			outS = append(outS, secondary[j])
			i++
			j++
		}
	}
	return outP, outS, nil
}

// LoadPair loads and aligns both instruments in one call.
func LoadPair(primaryPath, secondaryPath string) ([]models.Bar, []models.Bar, error) {
	primary, err := LoadCSV(primaryPath, models.InstrumentPrimary)
	if err != nil {
		return nil, nil, err
	}
	secondary, err := LoadCSV(secondaryPath, models.InstrumentSecondary)
	if err != nil {
		return nil, nil, err
	}
	return Align(primary, secondary)
}
