package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t testing.TB, markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestTextParts(t *testing.T) {
	doc := parse(t, `<table><tr><td>
		AI301 (T)<br/>
		Room : 4102 <br>  <br/>
	</td></tr></table>`)

	cell := doc.Find("td")
	require.Equal(t, []string{"AI301 (T)", "Room : 4102"}, TextParts(cell))
	require.Equal(t, "AI301 (T)Room : 4102", StrippedText(cell))
}

func TestCellTexts(t *testing.T) {
	doc := parse(t, `<table><tr>
		<td> 1 </td><td><b>Data</b> Structures</td><td></td>
	</tr></table>`)

	row := doc.Find("tr")
	cells := CellTexts(row)
	require.Equal(t, []string{"1", "DataStructures", ""}, cells)
	require.Equal(t, "1", At(cells, 0))
	require.Equal(t, "", At(cells, 3))
	require.Equal(t, "", At(cells, -1))
}

func TestGetText(t *testing.T) {
	doc := parse(t, `<h3 class="text-center">CGPA : <b>8.12</b></h3>`)
	require.Equal(t, "CGPA : 8.12", GetText(doc.Find("h3").Nodes[0]))
}
