package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Resistors", "Resistors"},
		{"trims", "  SMD  ", "SMD"},
		{"bold", "<b>SMD</b> 0805", "SMD 0805"},
		{"script", `<script>alert(1)</script>Caps`, "alert(1)Caps"},
		{"entities", "R &amp; C", "R & C"},
		{"lone lt", "a < b", "a < b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripTags(tt.in))
		})
	}
}

func TestRenderComment(t *testing.T) {
	out, err := RenderComment("**10k** resistors\nsecond line")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>10k</strong>")
	assert.Contains(t, out, "<br>")
}

func TestRenderComment_DropsRawHTML(t *testing.T) {
	out, err := RenderComment(`<script>alert(1)</script>

text with <img src=x onerror=alert(1)>`)
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "onerror")
	assert.Contains(t, out, "text with")
}

func TestRenderComment_DropsJavascriptLinks(t *testing.T) {
	out, err := RenderComment(`[click](javascript:alert(1))`)
	require.NoError(t, err)
	assert.NotContains(t, out, "javascript:")
}
