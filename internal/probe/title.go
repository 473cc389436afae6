package probe

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/MrSnakeDoc/enumlive/internal/domain"
)

// ExtractTitle returns the text of the first <title> element in an HTML
// document. A document without one yields domain.NoTitle; an empty title
// element yields "".
func ExtractTitle(r io.Reader) string {
	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a read error: either way there is no title left to find.
			return domain.NoTitle
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) != "title" {
				continue
			}
			if tt == html.SelfClosingTagToken {
				return ""
			}
			// The tokenizer treats <title> as RCDATA, so the whole content
			// arrives as one text token with entities already unescaped.
			if z.Next() != html.TextToken {
				return ""
			}
			return strings.TrimSpace(string(z.Text()))
		}
	}
}

// titleFromBody decodes body to UTF-8 using the Content-Type header or the
// document's meta charset, then extracts the title.
func titleFromBody(body []byte, contentType string) string {
	var r io.Reader = bytes.NewReader(body)
	if decoded, err := charset.NewReader(r, contentType); err == nil {
		r = decoded
	}
	return ExtractTitle(r)
}
