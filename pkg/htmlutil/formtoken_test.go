package htmlutil

import (
	"strings"
	"testing"

	_ "embed"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

//go:embed cas_login_page_test.html
var casLoginPageTest string

func TestInputValueByName(t *testing.T) {
	cases := []struct {
		name     string
		markup   string
		input    string
		expected string
		found    bool
	}{
		{
			name:     "double quotes",
			markup:   `<form><input type="hidden" name="lt" value="LT-1" /></form>`,
			input:    "lt",
			expected: "LT-1",
			found:    true,
		},
		{
			name:     "value before name",
			markup:   `<INPUT value='e2s1' type='hidden' name='execution'>`,
			input:    "execution",
			expected: "e2s1",
			found:    true,
		},
		{
			name:     "first match wins",
			markup:   `<input name="lt" value="first"><input name="lt" value="second">`,
			input:    "lt",
			expected: "first",
			found:    true,
		},
		{
			name:     "prefix of another name",
			markup:   `<input name="ltx" value="wrong">`,
			input:    "lt",
			expected: "",
			found:    false,
		},
		{
			name:     "data attribute is not the name",
			markup:   `<input data-name="lt" value="wrong">`,
			input:    "lt",
			expected: "",
			found:    false,
		},
		{
			name:     "missing value attribute",
			markup:   `<input name="lt" type="hidden">`,
			input:    "lt",
			expected: "",
			found:    false,
		},
		{
			name:     "empty value",
			markup:   `<input name="lt" value="">`,
			input:    "lt",
			expected: "",
			found:    true,
		},
		{
			name:     "entities are decoded",
			markup:   `<input name="execution" value="a&amp;b">`,
			input:    "execution",
			expected: "a&b",
			found:    true,
		},
		{
			name:     "no input at all",
			markup:   `<html><body><p>already signed in</p></body></html>`,
			input:    "lt",
			expected: "",
			found:    false,
		},
		{
			name:     "unterminated tag",
			markup:   `<input name="lt" value="abc`,
			input:    "lt",
			expected: "",
			found:    false,
		},
		{
			name:     "empty document",
			markup:   "",
			input:    "execution",
			expected: "",
			found:    false,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			value, found := InputValueByName(test.markup, test.input)
			require.Equal(t, test.found, found)
			require.Equal(t, test.expected, value)
		})
	}
}

func TestInputValueByNameNeverPanics(t *testing.T) {
	garbage := []string{
		"<",
		"<input",
		"<input name=",
		"<input name='lt' value='",
		"<<<<input>>>> name=\"lt\" value=\"x\"",
		strings.Repeat("<input ", 1000),
		"\x00\xff<input name=\"lt\" value=\"\xfe\">",
	}
	for _, markup := range garbage {
		require.NotPanics(t, func() {
			InputValueByName(markup, "lt")
			DivContentByClass(markup, "errors")
		})
	}
}

func TestLoginPageTokensAgreeWithGoquery(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(casLoginPageTest))
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"lt", "execution", "_eventId", "username"} {
		expected, exists := doc.Find("input[name=" + name + "]").Attr("value")
		require.True(t, exists, name)

		value, found := InputValueByName(casLoginPageTest, name)
		require.True(t, found, name)
		require.Equal(t, expected, value, name)
	}

	lt, _ := InputValueByName(casLoginPageTest, "lt")
	require.Equal(t, "LT-123456-ZmFrZWxvZ2ludGlja2V0-cas", lt)
	execution, _ := InputValueByName(casLoginPageTest, "execution")
	require.Equal(t, "e1s1", execution)
}

func TestDivContentByClass(t *testing.T) {
	cases := []struct {
		name     string
		markup   string
		class    string
		expected string
		found    bool
	}{
		{
			name:     "login page error",
			markup:   casLoginPageTest,
			class:    "errors",
			expected: "ユーザ名またはパスワードが正しくありません。",
			found:    true,
		},
		{
			name:     "class among others",
			markup:   `<div class="alert errors big">  Bad <b>password</b>  </div>`,
			class:    "errors",
			expected: "Bad password",
			found:    true,
		},
		{
			name:     "multi line content",
			markup:   "<DIV CLASS='errors'>\n  line one\n  line two\n</DIV>",
			class:    "errors",
			expected: "line one line two",
			found:    true,
		},
		{
			name:     "partial class name",
			markup:   `<div class="errorsummary">nope</div>`,
			class:    "errors",
			expected: "",
			found:    false,
		},
		{
			name:     "unclosed div",
			markup:   `<div class="errors">never closed`,
			class:    "errors",
			expected: "",
			found:    false,
		},
		{
			name:     "absent",
			markup:   `<div class="row">x</div>`,
			class:    "errors",
			expected: "",
			found:    false,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			content, found := DivContentByClass(test.markup, test.class)
			require.Equal(t, test.found, found)
			require.Equal(t, test.expected, content)
		})
	}
}

func TestPlainText(t *testing.T) {
	require.Equal(
		t,
		"Submit the report as PDF. Deadline is strict.",
		PlainText("<p>Submit the report as <b>PDF</b>.</p>\n<p>Deadline is   strict.</p>"),
	)
	require.Equal(t, "", PlainText(""))
}
