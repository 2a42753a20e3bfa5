// Package testutil contains the fixtures of the portal pages and a fake portal that
// serves them, so tests never touch the network.
package testutil

import (
	"bytes"
	"embed"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

//go:embed testdata
var testdata embed.FS

// Fixture returns the contents of a file under testdata.
func Fixture(t testing.TB, name string) []byte {
	t.Helper()
	contents, err := testdata.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return contents
}

// FixtureDoc parses a html file under testdata.
func FixtureDoc(t testing.TB, name string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(Fixture(t, name)))
	require.NoError(t, err)
	return doc
}

func mustFixture(name string) []byte {
	contents, err := testdata.ReadFile("testdata/" + name)
	if err != nil {
		panic(err)
	}
	return contents
}
