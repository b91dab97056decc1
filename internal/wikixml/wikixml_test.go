package wikixml

import (
	"strings"
	"testing"
)

const sampleDump = `<mediawiki>
<page>
  <title>Earth</title>
  <ns>0</ns>
  <id>1</id>
  <revision>
    <id>100</id>
    <text>some body {{infobox}}</text>
  </revision>
</page>
<page>
  <title>Earth</title>
  <ns>0</ns>
  <id>1</id>
  <revision>
    <id>101</id>
    <text>duplicate title, should be skipped</text>
  </revision>
</page>
<page>
  <title>Mars/Archive 1</title>
  <ns>0</ns>
  <id>2</id>
  <revision>
    <id>102</id>
    <text>archive talk</text>
  </revision>
</page>
<page>
  <title>Venus</title>
  <ns>0</ns>
  <id>3</id>
  <revision>
    <id>103</id>
    <text>#REDIRECT [[Earth]]</text>
  </revision>
</page>
</mediawiki>`

func TestSourceStreamsInOrderAndDedups(t *testing.T) {
	src := NewSource(true)
	src.Start(strings.NewReader(sampleDump))

	var got []Page
	for p := range src.Pages {
		got = append(got, p)
	}
	for err := range src.Errors {
		t.Fatalf("unexpected decode error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 pages (dup + archive filtered), got %d: %+v", len(got), got)
	}
	if got[0].Title != "Earth" || got[0].RevisionID != 100 {
		t.Fatalf("first page = %+v", got[0])
	}
	if got[1].Title != "Venus" || !got[1].IsRedirect {
		t.Fatalf("second page = %+v", got[1])
	}
}

func TestSourceBareRedirectElement(t *testing.T) {
	dump := `<mediawiki><page>
  <title>Luna</title>
  <ns>0</ns>
  <id>9</id>
  <redirect/>
  <revision><id>900</id><text>Moon body text</text></revision>
</page></mediawiki>`

	src := NewSource(true)
	src.Start(strings.NewReader(dump))

	var got []Page
	for p := range src.Pages {
		got = append(got, p)
	}
	for err := range src.Errors {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(got) != 1 || !got[0].IsRedirect {
		t.Fatalf("bare <redirect/> not detected: %+v", got)
	}
}
