package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	detector := NewDetector()

	t.Run("indonesian", func(t *testing.T) {
		assert.Equal(t, "id", detector.Detect("Berapa biaya kuliah di kampus ini?"))
		assert.Equal(t, "id", detector.Detect("Kapan jadwal ujian semester dimulai?"))
	})

	t.Run("english", func(t *testing.T) {
		assert.Equal(t, "en", detector.Detect("How much is the tuition fee at this campus?"))
		assert.Equal(t, "en", detector.Detect("When does the exam schedule start?"))
	})

	t.Run("short text falls back to default", func(t *testing.T) {
		assert.Equal(t, DefaultLanguage, detector.Detect(""))
		assert.Equal(t, DefaultLanguage, detector.Detect("ok"))
		assert.Equal(t, DefaultLanguage, detector.Detect("  a  "))
	})
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "id", Normalize("id"))
	assert.Equal(t, "en", Normalize(" EN "))
	assert.Equal(t, "", Normalize("fr"))
	assert.Equal(t, "", Normalize(""))
}
