package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&lt;script&gt;a &amp;&amp; b&lt;/script&gt;", EscapeHTML("<script>a && b</script>"))
	assert.Equal(t, `"quoted"`, EscapeHTML(`"quoted"`))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "hel…", Truncate("hello", 4))
	assert.Equal(t, "жжж…", Truncate("жжжжжж", 4))
	assert.Equal(t, "any", Truncate("any", 0))
}

func TestIsMarkupError(t *testing.T) {
	assert.True(t, IsMarkupError("Bad Request: can't parse entities: Unsupported start tag \"script\""))
	assert.True(t, IsMarkupError("Bad Request: Unclosed start tag at byte offset 3"))
	assert.True(t, IsMarkupError("UNEXPECTED END TAG"))
	assert.False(t, IsMarkupError("Forbidden: bot was blocked by the user"))
	assert.False(t, IsMarkupError(""))
}

func TestKindForPath(t *testing.T) {
	assert.Equal(t, KindVoice, KindForPath("/uploads/a.OGG"))
	assert.Equal(t, KindVoice, KindForPath("b.opus"))
	assert.Equal(t, KindVoice, KindForPath("c.oga"))
	assert.Equal(t, KindAudio, KindForPath("d.mp3"))
	assert.Equal(t, KindAudio, KindForPath("noext"))
}
