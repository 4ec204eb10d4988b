package lib

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ardnew/plet/arena"
	"github.com/ardnew/plet/lang"
	"github.com/ardnew/plet/lang/interp"
	"github.com/ardnew/plet/lang/lexer"
	"github.com/ardnew/plet/lang/module"
	"github.com/ardnew/plet/lang/parser"
	"github.com/ardnew/plet/lang/value"
	"github.com/ardnew/plet/log"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()

	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return p
}

// newScript returns a build script env rooted at a temporary directory.
func newScript(t *testing.T) (*module.Cache, *value.Env, string) {
	t.Helper()

	dir := t.TempDir()

	s := value.NewSession(log.Make(nil))
	t.Cleanup(s.Close)

	a := arena.New()
	t.Cleanup(a.Delete)

	c := NewCache(s)
	env := c.NewUserEnv(filepath.Join(dir, "index.plet"), a)

	if err := c.ImportSystem(env, ScriptModules...); err != nil {
		t.Fatal(err)
	}

	if err := c.ImportSystem(env, "html", "template", "images"); err != nil {
		t.Fatal(err)
	}

	env.DefineName("SRC_ROOT", value.String(dir))
	env.DefineName("DIST_ROOT", value.String(filepath.Join(dir, "dist")))

	return c, env, dir
}

func run(t *testing.T, env *value.Env, mode lexer.Mode, src string) (value.Value, error) {
	t.Helper()

	r := lexer.Open(strings.NewReader(src), "test.plet", env.Session.Symbols)
	m := parser.Parse(r.ReadAll(mode), "test.plet")

	return interp.Eval(m, env)
}

func eval(t *testing.T, env *value.Env, src string) value.Value {
	t.Helper()

	v, err := run(t, env, lexer.ModeExpression, src)
	if err != nil {
		t.Fatalf("%q: %v", src, err)
	}

	return v
}

func TestStrings(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"upper('straße')", "STRASSE"},
		{"lower('ÀB')", "àb"},
		{"title('hello world')", "Hello World"},
		{"replace('a-b-c', '-', '+')", "a+b-c"},
		{"replace('abc', '', 'x')", "abc"},
		{"json({b: 1, a: [true, nil, 'x<y'], 'c d': 1.5})", `{"b":1,"a":[true,null,"x<y"],"c d":1.5}`},
		{"json(fn() -> 1)", `"(function)"`},
		{"json([0.0 / 0.0, 1.5])", "[null,1.5]"},
		{"join(split('a b  c'), ',')", "a,b,c"},
		{"join(split('a;b', ';'), '-')", "a-b"},
		{"trim('  x  ')", "x"},
		{"trim('--x--', '-')", "x"},
		{"string(starts_with('abc', 'ab'))", "true"},
		{"string(ends_with('abc', 'ab'))", ""},
		{"yaml({a: 1})", "a: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, env, _ := newScript(t)

			if got := value.ToString(eval(t, env, tt.src)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLipsum(t *testing.T) {
	_, env, _ := newScript(t)

	words := strings.Fields(value.ToString(eval(t, env, "lipsum(12)")))
	if len(words) != 12 {
		t.Errorf("lipsum(12) gave %d words", len(words))
	}
}

func TestCollections(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"length([1, 2, 3])", "3"},
		{"length({a: 1})", "1"},
		{"length('héllo')", "6"},
		{"json(keys({a: 1, b: 2}))", `["a","b"]`},
		{"json(values({a: 1, b: 2}))", "[1,2]"},
		{"json(map([1, 2], fn(x, i) -> x * 10 + i))", "[10,21]"},
		{"json(map({a: 1}, fn(x) -> x + 1))", `{"a":2}`},
		{"json(filter([1, 2, 3, 4], fn(x) -> x % 2 == 0))", "[2,4]"},
		{"json(exclude([1, 2, 3, 4], fn(x) -> x % 2 == 0))", "[1,3]"},
		{"json(sort([3, 1, 2]))", "[1,2,3]"},
		{"json(sort(['b', 2, 'a', 1]))", `[1,2,"a","b"]`},
		{"json(sort_by([{n: 2}, {n: 1}], fn(x) -> x.n))", `[{"n":1},{"n":2}]`},
		{"json(reverse([1, 2, 3]))", "[3,2,1]"},
		{"reverse('abc')", "cba"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, env, _ := newScript(t)

			if got := value.ToString(eval(t, env, tt.src)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMapErrorPosition(t *testing.T) {
	_, env, _ := newScript(t)

	_, err := run(t, env, lexer.ModeExpression, "xs = [1]\nmap(xs, fn(x) -> x + y)")

	var diags lang.Diagnostics
	if !errors.As(err, &diags) {
		t.Fatalf("error = %v", err)
	}

	d := diags[0]
	if d.Message != "undefined variable: y" || d.Start.Line != 2 || d.Start.Column != 22 {
		t.Errorf("diagnostic = %s", d.Error())
	}
}

func TestParseISO8601(t *testing.T) {
	tests := []struct {
		src  string
		want time.Time
	}{
		{"2021-03-04", time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"2021-03-04T05:06:07Z", time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)},
		{"2021-03-04 05:06+02:00", time.Date(2021, 3, 4, 3, 6, 0, 0, time.UTC)},
		{"2021-03-04T05:06:07.250-0130", time.Date(2021, 3, 4, 6, 36, 7, 250e6, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := ParseISO8601(tt.src); !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDatetime(t *testing.T) {
	_, env, _ := newScript(t)

	if got := value.ToString(eval(t, env, "date(time('2021-03-04T12:00:00Z'), '%Y')")); got != "2021" {
		t.Errorf("date = %q", got)
	}

	local := time.Local
	time.Local = time.FixedZone("CET", 3600)

	t.Cleanup(func() { time.Local = local })

	ts := time.Date(2021, 3, 4, 4, 6, 7, 0, time.UTC)
	if got := RFC2822(ts); got != "Thu, 4 Mar 2021 05:06:07 +0100" {
		t.Errorf("rfc2822 = %q", got)
	}

	if _, ok := eval(t, env, "now()").(value.Time); !ok {
		t.Error("now() is not a time")
	}
}

func TestExpr(t *testing.T) {
	_, env, _ := newScript(t)

	if got := eval(t, env, "expr('a * 2 + len(b)', {a: 4, b: [1, 2]})"); got != value.Int(10) {
		t.Errorf("expr = %v", got)
	}

	if _, err := run(t, env, lexer.ModeExpression, "expr('1 +')"); err == nil {
		t.Error("expected compile error")
	}
}

func TestHTML(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"escape", `h('<a href="x">&' + "'")`, "&lt;a href=&quot;x&quot;&gt;&amp;&#39;"},
		{"round trip", `html(parse_html('<p class="x">a<br>b</p>'))`, `<p class="x">a<br>b</p>`},
		{"build", `html({tag: 'em', attributes: {id: 'e'}, children: ['1 < 2']})`, `<em id="e">1 &lt; 2</em>`},
		{"no title string", `no_title('<h1>T</h1><p>x</p>')`, "<p>x</p>"},
		{"no title tree", `html(no_title(parse_html('<div><h1>T</h1>y</div>')))`, "<div>y</div>"},
		{"link prefix", `links('<a href="link:about/index.html">a</a>')`, `<a href="/site/about">a</a>`},
		{"url prefix", `urls('<a href="link:x.html">a</a>')`, `<a href="https://example.com/x.html">a</a>`},
		{"invalid path", `links('<a href="link:../x">a</a>')`, `<a href="#invalid-path">a</a>`},
		{"current", `href('about/index.html')`, ` href="/site/about" class="current"`},
		{"other", `href('blog', 'nav')`, ` href="/site/blog" class="nav"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, env, _ := newScript(t)
			env.DefineName("ROOT_PATH", value.String("/site"))
			env.DefineName("ROOT_URL", value.String("https://example.com/"))
			env.DefineName("PATH", value.String("about/index.html"))

			if got := value.ToString(eval(t, env, tt.src)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAssetLinks(t *testing.T) {
	_, env, dir := newScript(t)
	write(t, dir, "img/a.png", "png")

	got := value.ToString(eval(t, env, `links('<img src="asset:img/a.png">')`))
	if got != `<img src="/assets/img/a.png">` {
		t.Errorf("links = %q", got)
	}

	data, err := os.ReadFile(filepath.Join(dir, "dist", "assets", "img", "a.png"))
	if err != nil || string(data) != "png" {
		t.Errorf("asset not copied: %v", err)
	}
}

func TestMarkdown(t *testing.T) {
	_, env, _ := newScript(t)

	got := value.ToString(eval(t, env, "markdown('# Hi\\n\\n| a |\\n|---|\\n| b |')"))

	for _, want := range []string{"<h1>Hi</h1>", "<table>", "<td>b</td>"} {
		if !strings.Contains(got, want) {
			t.Errorf("markdown output %q lacks %q", got, want)
		}
	}
}

func TestListContent(t *testing.T) {
	_, env, dir := newScript(t)
	write(t, dir, "content/b.md", "{title: 'B', tags: ['x']}\n# Hi\n")
	write(t, dir, "content/a.txt", "plain")
	write(t, dir, "content/.draft.md", "hidden")
	write(t, dir, "content/sub/c.md", "# C")

	tests := []struct {
		src  string
		want []string
	}{
		{"list_content('content')", []string{"a.txt", "b.md", "c.md"}},
		{"list_content('content', {recursive: false})", []string{"a.txt", "b.md"}},
		{"list_content('content', {suffix: '.md'})", []string{"b.md", "c.md"}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			items, ok := eval(t, env, tt.src).(*value.Array)
			if !ok {
				t.Fatal("not an array")
			}

			var names []string

			for _, item := range items.Items() {
				name, _ := item.(*value.Object).Field("name")
				names = append(names, value.ToString(name))
			}

			if strings.Join(names, ",") != strings.Join(tt.want, ",") {
				t.Errorf("names = %v, want %v", names, tt.want)
			}
		})
	}

	items := eval(t, env, "list_content('content', {recursive: false})").(*value.Array)

	plain, _ := items.At(0).(*value.Object).Field("content")
	if plain != value.String("plain") {
		t.Errorf("a.txt content = %v", plain)
	}

	b := items.At(1).(*value.Object)

	if title, _ := b.Field("title"); title != value.String("B") {
		t.Errorf("title = %v", title)
	}

	if content, _ := b.Field("content"); !strings.Contains(value.ToString(content), "<h1>Hi</h1>") {
		t.Errorf("content = %q", value.ToString(content))
	}
}

func TestTemplates(t *testing.T) {
	c, env, dir := newScript(t)
	write(t, dir, "layout.html", "<main>{CONTENT}</main>")
	write(t, dir, "page.html", "{LAYOUT = 'layout.html'}{embed('part.html', {name: who})}")
	write(t, dir, "part.html", "hi {name}{LAYOUT}")

	eval(t, env, "export who = 'you'\nadd_page('index.html', 'page.html')")

	pages, err := Pages(env)
	if err != nil || len(pages) != 1 {
		t.Fatalf("pages = %v, %v", pages, err)
	}

	out, err := RenderPage(c, pages[0], env)
	if err != nil {
		t.Fatal(err)
	}

	if out != "<main>hi you</main>" {
		t.Errorf("output = %q", out)
	}
}

func TestPaginate(t *testing.T) {
	c, env, dir := newScript(t)
	write(t, dir, "list.html", "{PAGE.page}/{PAGE.pages}:{length(PAGE.items)} {page_link(PAGE.page)} {json(page_list(5))}")

	eval(t, env, "paginate([1, 2, 3, 4, 5], 2, 'posts%page%/index.html', 'list.html', {x: 1})")

	pages, err := Pages(env)
	if err != nil {
		t.Fatal(err)
	}

	var paths []string
	for _, p := range pages {
		paths = append(paths, p.WebPath)
	}

	want := "posts/index.html,posts/page2/index.html,posts/page3/index.html"
	if got := strings.Join(paths, ","); got != want {
		t.Errorf("web paths = %s", got)
	}

	var written []string

	observers := eval(t, env, "OUTPUT_OBSERVERS").(*value.Array)
	observers.Push(&value.Native{Name: "record", Fn: func(args []value.Value, _ *value.Env) value.Value {
		written = append(written, value.ToString(args[0]))

		return value.Nil{}
	}})

	failed, err := CompilePages(t.Context(), c, env)
	if err != nil || failed != 0 {
		t.Fatalf("CompilePages = %d, %v", failed, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "dist", "posts", "page3", "index.html"))
	if err != nil {
		t.Fatal(err)
	}

	if got := string(data); got != "3/3:1 posts/page3 [1,2,3]" {
		t.Errorf("page 3 = %q", got)
	}

	if len(written) != 3 {
		t.Errorf("observers saw %v", written)
	}
}

func TestPagePath(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "blog/index.html"},
		{2, "blog/page2/index.html"},
		{12, "blog/page12/index.html"},
	}

	for _, tt := range tests {
		if got := PagePath("blog%page%/index.html", tt.n); got != tt.want {
			t.Errorf("PagePath(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestAddStatic(t *testing.T) {
	c, env, dir := newScript(t)
	write(t, dir, "static/css/site.css", "body{}")
	write(t, dir, "static/.hidden", "x")

	eval(t, env, "add_static('static')")

	pages, err := Pages(env)
	if err != nil || len(pages) != 1 {
		t.Fatalf("pages = %v, %v", pages, err)
	}

	if pages[0].Type != PageCopy || !strings.HasSuffix(pages[0].Dest, filepath.Join("dist", "static", "css", "site.css")) {
		t.Errorf("page = %+v", pages[0])
	}

	if _, err := CompilePages(t.Context(), c, env); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(pages[0].Dest); err != nil {
		t.Error(err)
	}
}

func TestShellEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"it's", `'it'\''s'`},
		{"", "''"},
	}

	for _, tt := range tests {
		if got := ShellQuote(tt.in); got != tt.want {
			t.Errorf("ShellQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExec(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}

	_, env, dir := newScript(t)
	write(t, dir, "bin/greet", "#!/bin/sh\necho \"hello $1\"\n")

	if err := os.Chmod(filepath.Join(dir, "bin", "greet"), 0o755); err != nil {
		t.Fatal(err)
	}

	if got := value.ToString(eval(t, env, "exec('echo', \"it's\")")); got != "it's\n" {
		t.Errorf("exec echo = %q", got)
	}

	if got := value.ToString(eval(t, env, "exec('greet', 'you')")); got != "hello you\n" {
		t.Errorf("exec greet = %q", got)
	}
}

func writePNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()

	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestImages(t *testing.T) {
	_, env, dir := newScript(t)
	writePNG(t, dir, "img/big.png", 800, 600)
	writePNG(t, dir, "img/wide.png", 2000, 1000)

	info := value.ToString(eval(t, env, "json(image_info('img/big.png'))"))
	if info != `{"width":800,"height":600,"type":"png"}` {
		t.Errorf("image_info = %s", info)
	}

	if v := eval(t, env, "image_info('missing.png')"); !value.IsNil(v) {
		t.Errorf("image_info(missing) = %v", v)
	}

	got := value.ToString(eval(t, env, `images('<img src="asset:img/big.png">')`))
	want := `<a href="link:assets/img/big.png"><img src="link:assets/img/big.png" width="640" height="480"></a>`

	if got != want {
		t.Errorf("images(big) = %q", got)
	}

	got = value.ToString(eval(t, env, `images('<img src="asset:img/wide.png">', 640, 480, 90, false)`))
	want = `<img src="link:assets/img/wide.640x320q90.png" width="640" height="320">`

	if got != want {
		t.Errorf("images(wide) = %q", got)
	}

	scaled, err := ReadImageInfo(filepath.Join(dir, "dist", "assets", "img", "wide.640x320q90.png"))
	if err != nil || scaled.Width != 640 || scaled.Height != 320 {
		t.Errorf("scaled = %+v, %v", scaled, err)
	}
}
