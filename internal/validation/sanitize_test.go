package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTweet(t *testing.T) {
	t.Parallel()

	got, err := SanitizeTweet(`<b>bold</b> <script>alert(1)</script><em>ok</em>`, 280)
	require.NoError(t, err)
	assert.Equal(t, "<b>bold</b> <em>ok</em>", got)

	got, err = SanitizeTweet(`<a href="javascript:alert(1)">x</a>`, 280)
	require.NoError(t, err)
	assert.NotContains(t, got, "javascript")

	_, err = SanitizeTweet("<script>only</script>", 280)
	assert.Error(t, err)

	_, err = SanitizeTweet("   ", 280)
	assert.Error(t, err)
}

func TestSanitizeTweet_LengthIgnoresMarkup(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("a", 280)
	_, err := SanitizeTweet("<strong>"+body+"</strong>", 280)
	assert.NoError(t, err)

	_, err = SanitizeTweet(body+"b", 280)
	assert.Error(t, err)

	_, err = SanitizeTweet(strings.Repeat("é", 280), 280)
	assert.NoError(t, err, "length is counted in characters, not bytes")
}

func TestSanitizePlain(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "hello world", SanitizePlain("  <p>hello <b>world</b></p> "))
	assert.Equal(t, "a & b", SanitizePlain("a &amp; b"))
}

func TestValidateFullname(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateFullname("Ada Lovelace"))
	assert.Error(t, ValidateFullname("  "))
	assert.Error(t, ValidateFullname(strings.Repeat("x", 121)))
}
