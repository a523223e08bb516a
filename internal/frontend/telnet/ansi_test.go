package telnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestColorize(t *testing.T) {
	assert.Equal(t, "\033[31mX\033[0m", Colorize(Red, "X"))
}

func TestColorf(t *testing.T) {
	assert.Equal(t, "\033[36mcell 4\033[0m", Colorf(Cyan, "cell %d", 4))
}

func TestStripANSI(t *testing.T) {
	input := "\033[31mX\033[0m | \033[1;94mO\033[0m"
	assert.Equal(t, "X | O", StripANSI(input))
	assert.Equal(t, "plain", StripANSI("plain"))
	assert.Equal(t, "", StripANSI(""))
}

func TestPropertyStripANSIInversesColorize(t *testing.T) {
	colors := []string{Red, Green, Blue, Yellow, Cyan, Magenta, Bold, Dim, BrightBlack}
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-zA-Z0-9 |]{0,50}`).Draw(t, "text")
		color := rapid.SampledFrom(colors).Draw(t, "color")
		assert.Equal(t, text, StripANSI(Colorize(color, text)))
	})
}

func TestPropertyStripANSIOutputShorterOrEqual(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		assert.LessOrEqual(t, len(StripANSI(text)), len(text))
	})
}
