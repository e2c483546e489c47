package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	t.Run("lowercases and joins with underscores", func(t *testing.T) {
		assert.Equal(t, "der_standard", Slug("Der Standard"))
	})

	t.Run("strips diacritics", func(t *testing.T) {
		assert.Equal(t, "suddeutsche_zeitung", Slug("Süddeutsche Zeitung"))
		assert.Equal(t, "le_monde_diplo", Slug("Le Monde Diplô"))
	})

	t.Run("removes punctuation and symbols", func(t *testing.T) {
		assert.Equal(t, "the_times_uk", Slug("The Times (U.K.)"))
		assert.Equal(t, "profil", Slug("pro:fil!"))
	})

	t.Run("collapses whitespace runs", func(t *testing.T) {
		assert.Equal(t, "der_standard", Slug("  Der \t Standard  "))
	})
}

func TestUniqueName(t *testing.T) {
	t.Run("name only", func(t *testing.T) {
		assert.Equal(t, "der_standard", UniqueName("Der Standard"))
	})

	t.Run("namespaced by context", func(t *testing.T) {
		assert.Equal(t, "der_standard_austria", UniqueName("Der Standard", "Austria"))
	})

	t.Run("empty context parts are skipped", func(t *testing.T) {
		assert.Equal(t, "der_standard_austria", UniqueName("Der Standard", "", "Austria"))
	})

	t.Run("multiple context parts keep order", func(t *testing.T) {
		assert.Equal(t, "der_standard_austria_print", UniqueName("Der Standard", "Austria", "print"))
	})
}

func TestApplyChain(t *testing.T) {
	got := ApplyChain("  Héllo World  ", "trim", "lowercase", "strip_diacritics")
	assert.Equal(t, "hello world", got)
}

func TestApply_UnknownNormalizerIsNoop(t *testing.T) {
	assert.Equal(t, "Value", Apply("Value", "does_not_exist"))
}

func TestRegister(t *testing.T) {
	Register("reverse_test", func(s string) string {
		runes := []rune(s)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes)
	})

	fn, ok := Get("reverse_test")
	assert.True(t, ok)
	assert.Equal(t, "cba", fn("abc"))
}
