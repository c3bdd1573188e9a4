// Package parser extracts countries, museum listings and museum details from
// automuseums.info pages.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/automuseums-gpx/internal/model"
)

// ErrMissingElement is returned when a page lacks an element the parser cannot do without.
var ErrMissingElement = errors.New("missing expected element")

const (
	countryBlockSelector  = "#block-searchmuseumsin"
	listingBlockSelector  = ".node-readmore"
	nextPageSelector      = `[title="Go to next page"]`
	contentSelector       = ".node-content"
	bodySelector          = ".field--name-body"
	nodeIDAttr            = "data-history-node-id"
	drupalSettingSelector = `[data-drupal-selector="drupal-settings-json"]`
)

// ListingPage is one parsed page of a country's museum directory.
type ListingPage struct {
	Listings []model.MuseumListing
	// HasNext reports whether the page links to a following page.
	HasNext bool
}

// Countries parses the homepage navigation block into countries in page order.
func Countries(body []byte, baseURL string) ([]model.Country, error) {
	doc, err := newDocument(body)
	if err != nil {
		return nil, err
	}
	block := doc.Find(countryBlockSelector)
	if block.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingElement, countryBlockSelector)
	}

	var countries []model.Country
	var resolveErr error
	block.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		name := strings.TrimSpace(a.Contents().First().Text())
		if name == "" {
			name = strings.TrimSpace(a.Text())
		}
		if name == "" {
			return true
		}
		abs, err := Resolve(baseURL, href)
		if err != nil {
			resolveErr = err
			return false
		}
		countries = append(countries, model.Country{
			Name:        name,
			RelativeURL: href,
			AbsoluteURL: abs,
		})
		return true
	})
	if resolveErr != nil {
		return nil, resolveErr
	}
	return countries, nil
}

// Listings parses one listing page. Blocks without an anchor are skipped.
func Listings(body []byte, baseURL string) (ListingPage, error) {
	doc, err := newDocument(body)
	if err != nil {
		return ListingPage{}, err
	}

	page := ListingPage{HasNext: doc.Find(nextPageSelector).Length() > 0}
	var resolveErr error
	doc.Find(listingBlockSelector).EachWithBreak(func(_ int, block *goquery.Selection) bool {
		a := block.Find("a").First()
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		title, _ := a.Attr("title")
		abs, err := Resolve(baseURL, href)
		if err != nil {
			resolveErr = err
			return false
		}
		page.Listings = append(page.Listings, model.MuseumListing{
			Name:        strings.TrimSpace(title),
			RelativeURL: href,
			AbsoluteURL: abs,
		})
		return true
	})
	if resolveErr != nil {
		return ListingPage{}, resolveErr
	}
	return page, nil
}

// Museum parses a museum detail page. A missing description body is tolerated;
// a missing content element, node id or settings payload is an error.
func Museum(body []byte) (model.MuseumDetail, error) {
	doc, err := newDocument(body)
	if err != nil {
		return model.MuseumDetail{}, err
	}

	content := doc.Find(contentSelector).First()
	if content.Length() == 0 {
		return model.MuseumDetail{}, fmt.Errorf("%w: %s", ErrMissingElement, contentSelector)
	}
	description, err := bodyHTML(content.Find(bodySelector).First())
	if err != nil {
		return model.MuseumDetail{}, err
	}

	nodeID, ok := doc.Find("article").First().Attr(nodeIDAttr)
	if !ok || strings.TrimSpace(nodeID) == "" {
		return model.MuseumDetail{}, fmt.Errorf("%w: article[%s]", ErrMissingElement, nodeIDAttr)
	}
	nodeID = strings.TrimSpace(nodeID)

	settings := doc.Find(drupalSettingSelector).First()
	if settings.Length() == 0 {
		return model.MuseumDetail{}, fmt.Errorf("%w: %s", ErrMissingElement, drupalSettingSelector)
	}
	coords, err := leafletPoints([]byte(settings.Text()), nodeID)
	if err != nil {
		return model.MuseumDetail{}, err
	}

	return model.MuseumDetail{
		Description: description,
		NodeID:      nodeID,
		Coordinates: coords,
	}, nil
}

// Resolve joins href onto baseURL.
func Resolve(baseURL, href string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// bodyHTML joins the children of the description element, which may be bare
// text or one or more paragraphs.
func bodyHTML(body *goquery.Selection) (string, error) {
	if body.Length() == 0 {
		return "", nil
	}
	var parts []string
	var renderErr error
	body.Contents().EachWithBreak(func(_ int, child *goquery.Selection) bool {
		html, err := goquery.OuterHtml(child)
		if err != nil {
			renderErr = fmt.Errorf("render description: %w", err)
			return false
		}
		parts = append(parts, html)
		return true
	})
	if renderErr != nil {
		return "", renderErr
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

func newDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}
