package models

import "net/url"

// FormField is one name/value pair of a form submission.
type FormField struct {
	Name  string
	Value string
}

// FormFields is an ordered list of form fields.
type FormFields []FormField

// Get returns the value for name, or "" when the field is absent.
func (f FormFields) Get(name string) string {
	for _, field := range f {
		if field.Name == name {
			return field.Value
		}
	}
	return ""
}

// Encode renders the fields as an x-www-form-urlencoded body, keeping order.
func (f FormFields) Encode() string {
	buf := make([]byte, 0, 512)
	for i, field := range f {
		if i > 0 {
			buf = append(buf, '&')
		}
		buf = append(buf, url.QueryEscape(field.Name)...)
		buf = append(buf, '=')
		buf = append(buf, url.QueryEscape(field.Value)...)
	}
	return string(buf)
}
