package render

import (
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/starford/propdoc/internal/models"
	"github.com/starford/propdoc/internal/proptree"
	"github.com/starford/propdoc/internal/testutil"
)

var (
	outlineLineRe = regexp.MustCompile(`^( *)\* \[([^\]]*)\]\(#([^)]*)\)$`)
	rowRe         = regexp.MustCompile(`<tr><td><span id="([^"]*)">(.*?)</span></td><td>(.*?)</td><td>(.*?)</td><td>(.*?)</td></tr>`)
)

type outlineEntry struct {
	indent int
	text   string
	target string
}

func parseOutline(t *testing.T, outline string) []outlineEntry {
	t.Helper()
	var out []outlineEntry
	for _, line := range strings.Split(strings.TrimSuffix(outline, "\n"), "\n") {
		if line == "" {
			continue
		}
		m := outlineLineRe.FindStringSubmatch(line)
		if m == nil {
			t.Fatalf("unexpected outline line %q", line)
		}
		out = append(out, outlineEntry{indent: len(m[1]), text: m[2], target: m[3]})
	}
	return out
}

func parseRows(table string) [][]string {
	var rows [][]string
	for _, m := range rowRe.FindAllStringSubmatch(table, -1) {
		rows = append(rows, m[1:])
	}
	return rows
}

func TestExampleDocument(t *testing.T) {
	r := New(DefaultConfig())
	root := r.Tree(testutil.ExampleTree())

	outline := r.Outline(root)
	want := "  * [Title](#Title)\n    * [Language](#Language)\n"
	if outline != want {
		t.Errorf("outline = %q, want %q", outline, want)
	}

	rows := parseRows(r.Table(root.Flatten()))
	wantRows := [][]string{
		{"Title", "Title", "string", "Exactly One", " "},
		{"Language", "Language", "string", "Zero or One", "ISO code"},
	}
	if !reflect.DeepEqual(rows, wantRows) {
		t.Errorf("rows = %q, want %q", rows, wantRows)
	}
}

func TestTable_HeaderRow(t *testing.T) {
	r := New(DefaultConfig())
	table := r.Table(nil)
	want := "<table><thead><tr><th>Name</th><th>Data Type</th><th>Cardinality</th><th>Notes</th></tr></thead><tbody></tbody></table>"
	if table != want {
		t.Errorf("empty table = %q", table)
	}
}

func TestOutline_IndentMatchesDepth(t *testing.T) {
	cfg := DefaultConfig()
	r := New(cfg)
	root := r.Tree(testutil.WideTree())
	entries := parseOutline(t, r.Outline(root))
	nodes := root.Flatten()
	if len(entries) != len(nodes) {
		t.Fatalf("outline entries = %d, nodes = %d", len(entries), len(nodes))
	}
	for i, e := range entries {
		n := nodes[i]
		if e.indent != cfg.IndentSize*n.Depth {
			t.Errorf("%s: indent %d, depth %d", n.Name, e.indent, n.Depth)
		}
		if e.text != n.Name || e.target != n.Name {
			t.Errorf("entry %d = %+v, node %s", i, e, n.Name)
		}
	}
}

func TestOutline_CustomIndent(t *testing.T) {
	r := New(Config{IndentSize: 1, IndentUnit: "\t"})
	root := r.Tree(testutil.ChainTree(3))
	want := "\t* [level1](#level1)\n\t\t* [level2](#level2)\n\t\t\t* [level3](#level3)\n"
	if got := r.Outline(root); got != want {
		t.Errorf("outline = %q, want %q", got, want)
	}
}

func TestOutline_Empty(t *testing.T) {
	r := New(DefaultConfig())
	if got := r.Outline(r.Tree(&models.Property{Label: "DMP"})); got != "" {
		t.Errorf("outline of childless root = %q", got)
	}
}

func TestOutlineAndTableOrderMatch(t *testing.T) {
	r := New(DefaultConfig())
	for _, src := range []*models.Property{testutil.ExampleTree(), testutil.WideTree(), testutil.ChainTree(6)} {
		root := r.Tree(src)
		var outlineNames []string
		for _, e := range parseOutline(t, r.Outline(root)) {
			outlineNames = append(outlineNames, e.target)
		}
		var rowNames []string
		for _, row := range parseRows(r.Table(root.Flatten())) {
			rowNames = append(rowNames, row[0])
		}
		if !reflect.DeepEqual(outlineNames, rowNames) {
			t.Errorf("outline %v != table %v", outlineNames, rowNames)
		}
	}
}

func TestAnchorIntegrity_DeepAndChildless(t *testing.T) {
	r := New(DefaultConfig())
	root := r.Tree(testutil.ChainTree(5))
	extra := r.Tree(testutil.WideTree())
	for _, tree := range []*proptree.Node{root, extra} {
		ids := make(map[string]bool)
		for _, row := range parseRows(r.Table(tree.Flatten())) {
			ids[row[0]] = true
		}
		for _, e := range parseOutline(t, r.Outline(tree)) {
			if !ids[e.target] {
				t.Errorf("outline target #%s has no table row", e.target)
			}
		}
	}
	if n, _ := root.Find("level5"); n == nil || n.Depth != 5 {
		t.Errorf("deep chain not built to depth 5")
	}
}

func TestTable_NormalizesBlanks(t *testing.T) {
	r := New(DefaultConfig())
	root := r.Tree(testutil.WideTree())
	rows := parseRows(r.Table(root.Flatten()))
	byName := make(map[string][]string)
	for _, row := range rows {
		byName[row[0]] = row
	}
	ethics := byName["Ethics"]
	if ethics[3] != BlankCell {
		t.Errorf("unknown cardinality cell = %q, want single space", ethics[3])
	}
	contact := byName["Contact"]
	for i, v := range contact[2:] {
		if v != BlankCell {
			t.Errorf("contact cell %d = %q, want single space", i, v)
		}
	}
	for _, row := range rows {
		for _, v := range row[1:] {
			if v == "" {
				t.Errorf("row %s has an empty cell", row[0])
			}
		}
	}
}

func TestTable_EscapesText(t *testing.T) {
	r := New(DefaultConfig())
	root := r.Tree(&models.Property{Label: "DMP", Children: []*models.Property{
		{Label: "Size", DataType: models.DataType{Label: "int"}, Cardinality: "1", Notes: "must be < 10 & > 0"},
	}})
	table := r.Table(root.Flatten())
	if !strings.Contains(table, "<td>must be &lt; 10 &amp; &gt; 0</td>") {
		t.Errorf("notes not escaped: %s", table)
	}
}

func TestTable_DuplicateNamesShareAnchor(t *testing.T) {
	r := New(DefaultConfig())
	root := r.Tree(&models.Property{Label: "DMP", Children: []*models.Property{
		{Label: "Name"},
		{Label: "Person", Children: []*models.Property{{Label: "Name"}}},
	}})
	rows := parseRows(r.Table(root.Flatten()))
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != rows[2][0] {
		t.Errorf("expected duplicate ids, got %q and %q", rows[0][0], rows[2][0])
	}
	if dups := proptree.Duplicates(root); len(dups) != 1 || dups[0] != "Name" {
		t.Errorf("Duplicates = %v", dups)
	}
}

func TestNew_CopiesLabels(t *testing.T) {
	cfg := DefaultConfig()
	r := New(cfg)
	cfg.Labels["1"] = "changed"
	if got := r.Config().Labels["1"]; got != "Exactly One" {
		t.Errorf("renderer shares caller's label map: %q", got)
	}
	got := r.Config()
	got.Labels["1"] = "changed again"
	if r.Config().Labels["1"] != "Exactly One" {
		t.Error("Config() leaked the internal label map")
	}
}

func TestOutline_EscapesNames(t *testing.T) {
	r := New(DefaultConfig())
	root := r.Tree(&models.Property{Label: "DMP", Children: []*models.Property{
		{Label: "Ethics Issues"},
		{Label: "Data_Access [x]"},
		{Label: "Plain"},
	}})
	want := "  * [Ethics Issues](<#Ethics Issues>)\n" +
		"  * [Data\\_Access \\[x\\]](<#Data_Access [x]>)\n" +
		"  * [Plain](#Plain)\n"
	if got := r.Outline(root); got != want {
		t.Errorf("outline =\n%s\nwant\n%s", got, want)
	}
}

func TestOutlineList_FollowsTree(t *testing.T) {
	r := New(Config{IndentSize: 4})
	root := r.Tree(testutil.ExampleTree())
	want := `<ul><li><a href="#Title">Title</a><ul><li><a href="#Language">Language</a></li></ul></li></ul>`
	if got := r.OutlineList(root); got != want {
		t.Errorf("OutlineList = %q, want %q", got, want)
	}
	if got := r.OutlineList(r.Tree(&models.Property{Label: "DMP"})); got != "" {
		t.Errorf("empty tree list = %q", got)
	}
}

func TestOutlineList_EscapesNames(t *testing.T) {
	r := New(DefaultConfig())
	root := r.Tree(&models.Property{Label: "DMP", Children: []*models.Property{{Label: `R&D "x"`}}})
	want := `<ul><li><a href="#R&amp;D &#34;x&#34;">R&amp;D &#34;x&#34;</a></li></ul>`
	if got := r.OutlineList(root); got != want {
		t.Errorf("OutlineList = %q, want %q", got, want)
	}
}
