package extract

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// MissingCaption is the caption reported for a figure without a figcaption
const MissingCaption = "N/A"

// Media is an image found on a page
type Media struct {
	URL        string
	Caption    string
	HasCaption bool
}

// Document is a parsed HTML page
type Document struct {
	doc   *goquery.Document
	order map[*html.Node]int
}

// Parse reads an HTML document from r
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{doc: doc}, nil
}

// CompileSelector compiles a CSS selector for use with Figures
func CompileSelector(selector string) (goquery.Matcher, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return sel, nil
}

// Figures returns one Media per element matching m, in document order.
// The image is the first descendant <img> with a non-empty src; elements
// without one are skipped. The caption is the first <figcaption> at or
// after the element's start tag in document order, which may lie outside
// the element itself.
func (d *Document) Figures(m goquery.Matcher, base *url.URL) []Media {
	captions := d.doc.Find("figcaption")
	captionPos := make([]int, captions.Length())
	captions.Each(func(i int, s *goquery.Selection) {
		captionPos[i] = d.position(s.Nodes[0])
	})

	var media []Media
	d.doc.FindMatcher(m).Each(func(_ int, fig *goquery.Selection) {
		src := firstImageSource(fig)
		if src == "" {
			return
		}
		resolved, ok := resolve(base, src)
		if !ok {
			return
		}

		item := Media{URL: resolved, Caption: MissingCaption}

		figPos := d.position(fig.Nodes[0])
		i := sort.SearchInts(captionPos, figPos+1)
		if i < len(captionPos) {
			item.Caption = captionText(captions.Eq(i))
			item.HasCaption = true
		}
		media = append(media, item)
	})
	return media
}

// Images returns every <img> with a non-empty src, in document order
func (d *Document) Images(base *url.URL) []Media {
	var media []Media
	d.doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			return
		}
		if resolved, ok := resolve(base, src); ok {
			media = append(media, Media{URL: resolved, Caption: MissingCaption})
		}
	})
	return media
}

// Links returns the same-origin targets of every <a href> on page, in
// document order. Only root-relative ("/x"), protocol-relative ("//host/x")
// and absolute http(s) hrefs are considered. Fragments are removed.
func (d *Document) Links(page *url.URL) []string {
	var links []string
	d.doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))

		var target *url.URL
		switch {
		case strings.HasPrefix(href, "/"):
			// "//host/x" parses with a host, so it resolves protocol-relative
			// rather than as the path "//host/x" on the page's origin.
			ref, err := url.Parse(href)
			if err != nil {
				return
			}
			target = page.ResolveReference(ref)
		case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
			u, err := url.Parse(href)
			if err != nil {
				return
			}
			target = u
		default:
			return
		}

		if !SameOrigin(page, target) {
			return
		}
		links = append(links, Normalize(target).String())
	})
	return links
}

// Normalize returns a copy of u without its fragment, the form in which
// pages are queued and marked visited.
func Normalize(u *url.URL) *url.URL {
	out := *u
	out.Fragment = ""
	out.RawFragment = ""
	return &out
}

// Origin returns scheme://host[:port] with default ports removed
func Origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()

	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}
	return scheme + "://" + host
}

// SameOrigin reports whether a and b share scheme, host and port
func SameOrigin(a, b *url.URL) bool {
	if a == nil || b == nil || a.Host == "" || b.Host == "" {
		return false
	}
	return Origin(a) == Origin(b)
}

// position returns n's index in a pre-order walk of the document
func (d *Document) position(n *html.Node) int {
	if d.order == nil {
		d.order = make(map[*html.Node]int)
		i := 0
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			d.order[n] = i
			i++
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		for _, root := range d.doc.Nodes {
			walk(root)
		}
	}
	return d.order[n]
}

func firstImageSource(fig *goquery.Selection) string {
	var src string
	fig.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src = strings.TrimSpace(img.AttrOr("src", ""))
		return src == ""
	})
	return src
}

// captionText concatenates the trimmed text nodes under s
func captionText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return b.String()
}

func resolve(base *url.URL, ref string) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.String(), true
}
