package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestGetText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div>hello <b>bold</b> world</div>`,
	))
	require.NoError(t, err)

	div := doc.Find("div").Nodes[0]
	require.Equal(t, "hello bold world", GetText(div))
}

func TestFindForm(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<form action="/search" method="get">
			<input name="q" />
		</form>
		<form action="/sso/usr/login" method="post">
			<input type="hidden" name="csrf_token" value="abc123" />
			<input name="login_id" />
			<input type="password" name="login_pwd" />
		</form>
	`))
	require.NoError(t, err)

	form := FindForm(doc, "login_id")
	require.NotNil(t, form)
	require.Equal(t, "/sso/usr/login", form.Action)
	require.Equal(t, "post", form.Method)
	require.Equal(t, "abc123", form.Fields["csrf_token"])
	require.Contains(t, form.Fields, "login_pwd")

	require.Nil(t, FindForm(doc, "does_not_exist"))
}
