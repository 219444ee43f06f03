package replicate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractImageURL(t *testing.T) {
	cases := map[string]string{
		`"https://a/1.png"`:                             "https://a/1.png",
		`["https://a/1.png","https://a/2.png"]`:         "https://a/1.png",
		`[{"url":"https://a/obj.png"}]`:                 "https://a/obj.png",
		`[{"src":"https://a/src.png"}]`:                 "https://a/src.png",
		`[{"images":["https://a/nested.png"]}]`:         "https://a/nested.png",
		`[{"images":[{"image":"https://a/deep.png"}]}]`: "https://a/deep.png",
		`{"url":"https://a/u.png"}`:                     "https://a/u.png",
		`{"image":"https://a/i.png"}`:                   "https://a/i.png",
		`{"output":["https://a/o.png"]}`:                "https://a/o.png",
		`{"output":[{"url":"https://a/ou.png"}]}`:       "https://a/ou.png",
		`{"images":["https://a/imgs.png"]}`:             "https://a/imgs.png",
		`{"images":[{"src":"https://a/imgsrc.png"}]}`:   "https://a/imgsrc.png",
	}

	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			got, err := ExtractImageURL([]byte(raw))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestExtractImageURLRejects(t *testing.T) {
	for _, raw := range []string{`null`, `""`, `[]`, `{}`, `42`, `[{"seed":1}]`, `not json`} {
		t.Run(raw, func(t *testing.T) {
			_, err := ExtractImageURL([]byte(raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnrecognizedOutput))
		})
	}
}
