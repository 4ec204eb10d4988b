package lib

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"
)

var lipsumWords = strings.Fields(`
a ac accumsan ad adipiscing aenean aenean aliquam aliquam aliquet amet ante
aptent arcu at auctor augue bibendum blandit class commodo condimentum congue
consectetur consequat conubia convallis cras cubilia curabitur curabitur curae
cursus dapibus diam dictum dictumst dolor donec donec dui duis egestas eget
eleifend elementum elit enim erat eros est et etiam etiam eu euismod facilisis
fames faucibus felis fermentum feugiat fringilla fusce gravida habitant
habitasse hac hendrerit himenaeos iaculis id imperdiet in inceptos integer
interdum ipsum justo lacinia lacus laoreet lectus leo libero ligula litora
lobortis lorem luctus maecenas magna malesuada massa mattis mauris metus mi
molestie mollis morbi nam nec neque netus nibh nisi nisl non nostra nulla
nullam nunc odio orci ornare pellentesque per pharetra phasellus placerat
platea porta porttitor posuere potenti praesent pretium primis proin pulvinar
purus quam quis quisque quisque rhoncus risus rutrum sagittis sapien
scelerisque sed sem semper senectus sit sociosqu sodales sollicitudin suscipit
suspendisse taciti tellus tempor tempus tincidunt torquent tortor tristique
turpis ullamcorper ultrices ultricies urna ut ut varius vehicula vel velit
venenatis vestibulum vitae vivamus viverra volutpat vulputate
`)

// NewLipsumRand returns a generator seeded from the clock.
func NewLipsumRand() *rand.Rand {
	seed := uint64(time.Now().UnixNano()) //nolint:gosec

	return rand.New(rand.NewPCG(seed, seed>>32))
}

// LipsumWords returns n placeholder words separated by spaces and the
// occasional comma.
func LipsumWords(r *rand.Rand, n int) string {
	var sb strings.Builder

	for i := range n {
		if i > 0 {
			if r.IntN(100) < 10 {
				sb.WriteByte(',')
			}

			sb.WriteByte(' ')
		}

		sb.WriteString(lipsumWords[r.IntN(len(lipsumWords))])
	}

	return sb.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

func lipsumParagraph(r *rand.Rand, sentences int) string {
	parts := make([]string, sentences)
	for i := range parts {
		parts[i] = capitalize(LipsumWords(r, r.IntN(30)+5)) + "."
	}

	return strings.Join(parts, " ")
}

// Lipsum writes a random markdown content file with a front matter block
// holding a publication date and tags.
func Lipsum(w io.Writer, r *rand.Rand) error {
	published := time.Now().Add(-time.Duration(r.Int64N(5*365*24)) * time.Hour)

	tags := make([]string, r.IntN(5))
	for i := range tags {
		tags[i] = "'" + LipsumWords(r, 1) + "'"
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "{\n  published: '%s',\n  tags: [%s],\n}\n\n",
		published.Format("2006-01-02 15:04"), strings.Join(tags, ", "))
	fmt.Fprintf(&sb, "# %s\n", capitalize(LipsumWords(r, r.IntN(6)+1)))

	for range r.IntN(3) + 1 {
		fmt.Fprintf(&sb, "\n%s\n", lipsumParagraph(r, r.IntN(6)+1))
	}

	_, err := io.WriteString(w, sb.String())

	return err
}
