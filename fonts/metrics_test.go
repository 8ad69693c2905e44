package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPitchTable(t *testing.T) {
	for cpi, want := range map[int]float64{10: 36, 12: 30, 15: 24} {
		adv, ok := Default.Advance(cpi, false)
		assert.True(t, ok, "cpi %d", cpi)
		assert.EqualValues(t, want, adv, "cpi %d", cpi)
	}
	adv, ok := Default.Advance(10, true)
	assert.True(t, ok)
	assert.EqualValues(t, 21, adv)

	_, ok = Default.Advance(17, false)
	assert.False(t, ok, "unknown pitch must not resolve")
	assert.Equal(t, "...", Default.Ellipsis())
}

func TestLoadPreviewFaces(t *testing.T) {
	for _, name := range []string{"mono", "builtin:mono-bold", PreviewName(true, true), PreviewName(false, true)} {
		data, err := Load(name)
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("font %s is empty", name)
		}
	}
	if _, err := Load("inter"); err == nil {
		t.Fatalf("unknown font should fail")
	}
}
