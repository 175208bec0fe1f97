// Package parser reads WebForms search pages: hidden postback state on the
// way in, result listings on the way out.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/scout-bot/models"
)

// Layout names the elements a result page is recognised by.
type Layout struct {
	NoResultsSelector string
	NoResultsText     string
	TitleSelector     string
	TitleText         string
	CountSelector     string
	RowSelector       string
	DistrictSelector  string
	TitleCellSelector string
	PlacesSelector    string
}

var firstInteger = regexp.MustCompile(`\d+`)

// ParseResults classifies markup against layout.
func ParseResults(markup string, layout Layout) (models.Outcome, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return models.Outcome{}, ParseError{Stage: "results", Err: err}
	}

	if notice := doc.Find(layout.NoResultsSelector).First(); notice.Length() > 0 &&
		strings.Contains(notice.Text(), layout.NoResultsText) {
		return models.Outcome{Kind: models.NoResults}, nil
	}

	title := doc.Find(layout.TitleSelector).First()
	if title.Length() == 0 || !strings.Contains(title.Text(), layout.TitleText) {
		return models.Outcome{Kind: models.Unrecognized}, nil
	}

	count, err := ExtractCount(doc.Find(layout.CountSelector).First().Text())
	if err != nil {
		return models.Outcome{}, ParseError{Stage: "result count", Err: err}
	}

	var records []models.Record
	doc.Find(layout.RowSelector).Each(func(_ int, row *goquery.Selection) {
		records = append(records, models.Record{
			District:   cellText(row, layout.DistrictSelector),
			Title:      cellText(row, layout.TitleCellSelector),
			FreePlaces: cellText(row, layout.PlacesSelector),
		})
	})

	return models.Outcome{
		Kind:    models.ResultsFound,
		Count:   count,
		Records: records,
	}, nil
}

// ExtractCount returns the first run of digits in text, or 0 when there is none.
func ExtractCount(text string) (int, error) {
	digits := firstInteger.FindString(strings.TrimSpace(text))
	if digits == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", digits, err)
	}
	return n, nil
}

func cellText(row *goquery.Selection, selector string) string {
	cell := row.Find(selector).First()
	if cell.Length() == 0 {
		return models.NotAvailable
	}
	return strings.TrimSpace(cell.Text())
}
