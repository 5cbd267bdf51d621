package amazonmusic

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// formField is a single hidden input of the sign-in form.
type formField struct {
	Name  string
	Value string
}

// signInForm is what the client needs from Amazon's sign-in page.
type signInForm struct {
	Action *url.URL
	Hidden []formField
}

// parseSignInForm extracts the first form of a sign-in page: its action,
// resolved against the page URL, and every hidden input in document order.
// Unknown hidden fields are kept as-is.
func parseSignInForm(p *page) (*signInForm, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, fmt.Errorf("amazonmusic: failed to parse sign-in page: %w", err)
	}

	form := doc.Find("form").First()
	if form.Length() == 0 {
		return nil, fmt.Errorf("%w: no sign-in form on %s", ErrAuthenticationUnresolved, p.URL)
	}

	action, _ := form.Attr("action")
	actionURL, err := p.URL.Parse(strings.TrimSpace(action))
	if err != nil {
		return nil, fmt.Errorf("amazonmusic: invalid sign-in form action %q: %w", action, err)
	}

	result := &signInForm{Action: actionURL}
	form.Find("input").Each(func(_ int, s *goquery.Selection) {
		if !strings.EqualFold(s.AttrOr("type", ""), "hidden") {
			return
		}
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		result.Hidden = append(result.Hidden, formField{Name: name, Value: s.AttrOr("value", "")})
	})

	return result, nil
}
