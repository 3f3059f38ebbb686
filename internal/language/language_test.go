package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLingua(t *testing.T) {
	if testing.Short() {
		t.Skip("loads language models")
	}
	d := NewLingua()

	assert.Equal(t, Unknown, d.Detect(""))
	assert.Equal(t, Unknown, d.Detect("   \n\t"))
	assert.Equal(t, "fr", d.Detect("Nous recherchons un développeur backend pour rejoindre notre équipe à Paris."))
	assert.Equal(t, "en", d.Detect("We are looking for a backend engineer to join our growing team in London."))

	code, confidence := d.DetectWithConfidence("Nous recherchons un développeur backend pour rejoindre notre équipe.")
	assert.Equal(t, "fr", code)
	assert.Greater(t, confidence, 0.5)
}
