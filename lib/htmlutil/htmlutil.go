package htmlutil

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

type Form struct {
	Action string
	Method string
	// every <input> with a name, hidden ones included. login pages
	// carry CSRF/session tokens in hidden inputs that have to be
	// posted back verbatim.
	Fields map[string]string
}

// picks the first form on the page that contains an input named
// `marker`, or nil if no such form exists
func FindForm(doc *goquery.Document, marker string) *Form {
	var form *Form
	doc.Find("form").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.Find("input[name=" + marker + "]").Length() == 0 {
			return true
		}

		form = &Form{
			Action: sel.AttrOr("action", ""),
			Method: sel.AttrOr("method", "post"),
			Fields: map[string]string{},
		}
		sel.Find("input[name]").Each(func(_ int, input *goquery.Selection) {
			name := input.AttrOr("name", "")
			form.Fields[name] = input.AttrOr("value", "")
		})
		return false
	})
	return form
}
