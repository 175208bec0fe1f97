package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/scout-bot/models"
)

// HiddenFieldNames is the postback state a WebForms page expects echoed back.
var HiddenFieldNames = []string{
	"__EVENTTARGET",
	"__EVENTARGUMENT",
	"__VIEWSTATE",
	"__VIEWSTATEGENERATOR",
	"__SCROLLPOSITIONX",
	"__SCROLLPOSITIONY",
	"__LASTFOCUS",
}

// ExtractFormState reads the hidden postback inputs from markup. Inputs that
// are missing yield an empty value; the result always holds every name in
// HiddenFieldNames, in that order.
func ExtractFormState(markup string) (models.FormFields, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, ParseError{Stage: "form state", Err: err}
	}
	return formStateFromDocument(doc), nil
}

func formStateFromDocument(doc *goquery.Document) models.FormFields {
	fields := make(models.FormFields, 0, len(HiddenFieldNames))
	for _, name := range HiddenFieldNames {
		value := doc.Find(fmt.Sprintf("input[name=%q]", name)).First().AttrOr("value", "")
		fields = append(fields, models.FormField{Name: name, Value: value})
	}
	return fields
}
