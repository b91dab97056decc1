// Package wikixml streams page elements out of a MediaWiki XML export
// over a single reader-goroutine-to-channel stage, so pages reach the
// processor in strict document order.
package wikixml

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

// page mirrors the subset of the MediaWiki export schema the extractor
// needs.
type page struct {
	Title    string `xml:"title"`
	Ns       string `xml:"ns"`
	ID       string `xml:"id"`
	Redirect *struct {
		Title string `xml:"title,attr"`
	} `xml:"redirect"`
	Revision struct {
		ID   string `xml:"id"`
		Text struct {
			Text string `xml:",chardata"`
		} `xml:"text"`
	} `xml:"revision"`
}

// Page is one decoded article: its identity tuple plus body text and
// redirect status.
type Page struct {
	Namespace  int
	PageID     int
	RevisionID int
	Title      string
	Body       string
	IsRedirect bool
}

// Source streams Page values off an XML export in document order.
type Source struct {
	Pages  chan Page
	Errors chan error

	skipArchive bool
	seen        map[string]struct{}
}

// NewSource returns a Source ready to Start against a dump reader.
// skipArchiveTitles drops pages whose title contains "/Archive".
func NewSource(skipArchiveTitles bool) *Source {
	return &Source{
		Pages:       make(chan Page),
		Errors:      make(chan error, 1),
		skipArchive: skipArchiveTitles,
		seen:        make(map[string]struct{}),
	}
}

// Start launches the reader goroutine over r. Pages and Errors are
// closed once the stream is exhausted; callers range over Pages and
// then check Errors for a non-nil decode failure.
func (s *Source) Start(r io.Reader) {
	go s.run(r)
}

func (s *Source) run(r io.Reader) {
	defer close(s.Pages)
	defer close(s.Errors)

	decoder := xml.NewDecoder(r)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return
		}
		if err != nil {
			s.Errors <- err
			return
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "page" {
			continue
		}

		var p page
		if err := decoder.DecodeElement(&p, &se); err != nil {
			s.Errors <- err
			return
		}

		rec, skip := s.toRecord(p)
		if skip {
			continue
		}
		s.Pages <- rec
	}
}

func (s *Source) toRecord(p page) (Page, bool) {
	if s.skipArchive && strings.Contains(p.Title, "/Archive") {
		return Page{}, true
	}

	key := p.Ns + "\x00" + p.Title
	if _, dup := s.seen[key]; dup {
		return Page{}, true
	}
	s.seen[key] = struct{}{}

	ns, _ := strconv.Atoi(strings.TrimSpace(p.Ns))
	id, _ := strconv.Atoi(strings.TrimSpace(p.ID))
	rev, _ := strconv.Atoi(strings.TrimSpace(p.Revision.ID))

	// A bare <redirect/> element marks a redirect even without a target
	// attribute; pre-2010 dumps only carry the textual marker.
	isRedirect := p.Redirect != nil || strings.HasPrefix(strings.TrimSpace(p.Revision.Text.Text), "#REDIRECT")

	return Page{
		Namespace:  ns,
		PageID:     id,
		RevisionID: rev,
		Title:      p.Title,
		Body:       p.Revision.Text.Text,
		IsRedirect: isRedirect,
	}, false
}
