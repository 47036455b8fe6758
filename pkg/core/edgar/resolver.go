package edgar

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrUnresolved means no candidate document for a filing could be fetched
// and validated. The filing is skipped permanently; a later run does not
// retry it.
var ErrUnresolved = errors.New("no ownership document resolved")

// DocumentFetcher fetches a URL expecting a content type. Implementations
// return fetch-layer sentinel errors for not-found and unavailable.
type DocumentFetcher interface {
	Get(ctx context.Context, url string, contentType string) ([]byte, error)
}

// ResolvedDocument is a fetched ownership XML document. It is owned by the
// fetch task that resolved it and discarded after extraction.
type ResolvedDocument struct {
	URL  string
	Body []byte
}

// Resolver locates the ownership XML for a filing reference.
type Resolver struct {
	fetcher DocumentFetcher
	base    string
}

// NewResolver creates a resolver backed by the given fetcher, addressing
// the live archive.
func NewResolver(f DocumentFetcher) *Resolver {
	return &Resolver{fetcher: f, base: ArchivesBaseURL}
}

// SetBase overrides the archive root, mainly for tests.
func (r *Resolver) SetBase(base string) { r.base = base }

// Resolve probes the well-known document names under the accession
// directory first (no extra request needed to derive them), then falls back
// to scanning the filing's index page for .xml links. Every candidate must
// carry the ownership root signature before it is accepted; the extension
// alone is not trusted.
func (r *Resolver) Resolve(ctx context.Context, ref FilingRef) (*ResolvedDocument, error) {
	dir := ref.AccessionDirURL(r.base)
	for _, name := range []string{"form4.xml", "primary_doc.xml"} {
		candidate := dir + name
		body, err := r.fetcher.Get(ctx, candidate, "xml")
		if err != nil {
			continue
		}
		if bytes.Contains(body, []byte(OwnershipSignature)) {
			return &ResolvedDocument{URL: candidate, Body: body}, nil
		}
	}
	return r.resolveViaIndexPage(ctx, ref)
}

// resolveViaIndexPage fetches the filing's -index.htm listing and tries
// each linked .xml document in page order.
func (r *Resolver) resolveViaIndexPage(ctx context.Context, ref FilingRef) (*ResolvedDocument, error) {
	_, accession := splitTxtPath(ref.TxtPath)
	indexURL := ref.AccessionDirURL(r.base) + accession + "-index.htm"

	page, err := r.fetcher.Get(ctx, indexURL, "html")
	if err != nil {
		return nil, ErrUnresolved
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, ErrUnresolved
	}

	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, ErrUnresolved
	}

	var resolved *ResolvedDocument
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !strings.HasSuffix(strings.ToLower(href), ".xml") {
			return true
		}
		rel, err := url.Parse(href)
		if err != nil {
			return true
		}
		candidate := base.ResolveReference(rel).String()
		body, err := r.fetcher.Get(ctx, candidate, "xml")
		if err != nil {
			return true
		}
		if bytes.Contains(body, []byte(OwnershipSignature)) {
			resolved = &ResolvedDocument{URL: candidate, Body: body}
			return false
		}
		return true
	})

	if resolved == nil {
		return nil, ErrUnresolved
	}
	return resolved, nil
}
