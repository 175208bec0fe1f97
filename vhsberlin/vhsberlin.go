// Package vhsberlin scouts the course search of the Berlin adult education
// centres for free places.
package vhsberlin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aluiziolira/scout-bot/archive"
	"github.com/aluiziolira/scout-bot/models"
	"github.com/aluiziolira/scout-bot/notify"
	"github.com/aluiziolira/scout-bot/parser"
	"github.com/aluiziolira/scout-bot/scraper"
)

// Name is the CLI subcommand and run counter key of this scout.
const Name = "vhs-berlin"

// Layout describes the course list page.
var Layout = parser.Layout{
	NoResultsSelector: "#ctl00_Content_ErrorMessage1_lblError",
	NoResultsText:     "Zu Ihrer Suche wurden keine Kurse gefunden.",
	TitleSelector:     "#ctl00_Content_lblTitle",
	TitleText:         "Kursliste",
	CountSelector:     "#ctl00_Content_lblMessage1All",
	RowSelector:       "#ctl00_Content_ILDataGrid1 tr.DataGridItem",
	DistrictSelector:  "td.DataGridItemDistrict",
	TitleCellSelector: "td.DataGridItemCourseTitle",
	PlacesSelector:    "td.DataGridItemPlaces",
}

// SearchFields returns the static part of the search form for keyword.
func SearchFields(keyword string) models.FormFields {
	return models.FormFields{
		{Name: "ctl00$Content$btnSearch", Value: "Suchen"},
		{Name: "ctl00$Content$SimpleSearch1$SimpleSearchBox$txtSearchTerm", Value: ""},
		{Name: "ctl00$Content$KeywordsList1$cmbKeyword", Value: keyword},
		{Name: "ctl00$Content$AreaList1$cmbDistricts", Value: "0"},
		{Name: "ctl00$Content$AdvancedSearch1$SearchBox1$txtSearchTerm", Value: ""},
		{Name: "ctl00$Content$KeywordsListAdvanced1$cmbKeyword", Value: "-1"},
		{Name: "ctl00$Content$AreaListAdvanced1$CheckBoxListDistricts$0", Value: "0"},
		{Name: "ctl00$Content$LyceumSelection1$cmbLyceum", Value: "0"},
		{Name: "ctl00$Content$TimeDependingInput1$cmbTimeStructur", Value: "0"},
		{Name: "ctl00$Content$TimeDependingInput1$txtCourseInstructor", Value: ""},
		{Name: "ctl00$Content$TimeDependingInput1$txtBeginFrom", Value: ""},
		{Name: "ctl00$Content$TimeDependingInput1$txtEndTo", Value: ""},
		{Name: "ctl00$Content$CourseNumber1$searchBoxCourseNr$txtSearchTerm", Value: ""},
	}
}

// Searcher performs one search attempt and returns the result markup.
type Searcher interface {
	Search(ctx context.Context) (string, error)
}

// Options configures a Scout.
type Options struct {
	URL      string
	LongWait time.Duration
	Searcher Searcher
	Notifier notify.Sink
	// Archive, when set, receives the records of every successful run.
	Archive archive.Writer
	Logger  *slog.Logger
	Now     func() time.Time
}

// Scout implements scout.Scout for the VHS Berlin course search.
type Scout struct {
	url      string
	longWait time.Duration
	searcher Searcher
	notifier notify.Sink
	archive  archive.Writer
	logger   *slog.Logger
	now      func() time.Time
}

// New builds the scout from opts.
func New(opts Options) *Scout {
	s := &Scout{
		url:      opts.URL,
		longWait: opts.LongWait,
		searcher: opts.Searcher,
		notifier: opts.Notifier,
		archive:  opts.Archive,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if s.notifier == nil {
		s.notifier = notify.Multi{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// NewSearcher builds the colly-backed searcher for the course search of
// keyword. opts.Fields is replaced.
func NewSearcher(opts scraper.Options, keyword string) (*scraper.Searcher, error) {
	opts.Fields = SearchFields(keyword)
	return scraper.NewSearcher(opts)
}

func (s *Scout) Name() string {
	return Name
}

func (s *Scout) PerformSearch(ctx context.Context) (string, error) {
	return s.searcher.Search(ctx)
}

func (s *Scout) ParseResults(markup string) (models.Outcome, error) {
	return parser.ParseResults(markup, Layout)
}

// HandleSuccess announces every listed course and archives the records.
func (s *Scout) HandleSuccess(ctx context.Context, run uint64, outcome models.Outcome) {
	s.notifier.Send(ctx, SuccessMessage(run, s.url, outcome))
	s.logger.Info(fmt.Sprintf("Courses found on run #%d, waiting %.1f minutes before next run...", run, s.longWait.Minutes()))

	if s.archive == nil || len(outcome.Records) == 0 {
		return
	}
	foundAt := s.now().UTC()
	rows := make([]models.ArchivedRecord, 0, len(outcome.Records))
	for _, record := range outcome.Records {
		rows = append(rows, models.ArchivedRecord{Run: run, FoundAt: foundAt, Record: record})
	}
	if err := s.archive.Write(rows); err != nil {
		s.logger.Error("archive records", slog.Uint64("run", run), slog.Any("error", err))
	}
}

// HandleFailure reports an exhausted attempt budget.
func (s *Scout) HandleFailure(ctx context.Context, run uint64, maxAttempts int) {
	msg := fmt.Sprintf("❗️ Max attempts (%d) reached on run #%d, waiting %.1f minutes before next run...",
		maxAttempts, run, s.longWait.Minutes())
	s.logger.Warn(msg)
	s.notifier.Send(ctx, msg)
}

// SuccessMessage formats the Markdown notification for a result list.
func SuccessMessage(run uint64, link string, outcome models.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 *Courses available found on run #%d!*\n", run)
	fmt.Fprintf(&b, "Total courses: *%d*\n", outcome.Count)
	fmt.Fprintf(&b, "Link: %s\n\n", link)
	for i, c := range outcome.Records {
		fmt.Fprintf(&b, "%d. District: %s\n", i+1, c.District)
		fmt.Fprintf(&b, "   Title: %s\n", c.Title)
		fmt.Fprintf(&b, "   Free places: %s\n\n", c.FreePlaces)
	}
	return b.String()
}
