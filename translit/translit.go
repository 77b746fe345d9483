// Package translit renders Tamil text in a phonetic Latin approximation so
// catalog entries can be searched from an English keyboard. It is a
// best-effort mapping, not a standard romanization.
package translit

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	pulli    = '\u0BCD' // virama: consonant without inherent vowel
	tamilLow = '\u0B80'
	tamilTop = '\u0BFF'
)

var vowels = map[rune]string{
	'அ': "a", 'ஆ': "aa", 'இ': "i", 'ஈ': "ee", 'உ': "u", 'ஊ': "oo",
	'எ': "e", 'ஏ': "ea", 'ஐ': "ai", 'ஒ': "o", 'ஓ': "oa", 'ஔ': "au",
	'ஃ': "k",
}

var consonants = map[rune]string{
	'க': "k", 'ங': "ng", 'ச': "ch", 'ஞ': "gn", 'ட': "t", 'ண': "n",
	'த': "th", 'ந': "n", 'ப': "p", 'ம': "m", 'ய': "y", 'ர': "r",
	'ல': "l", 'வ': "v", 'ழ': "zh", 'ள': "l", 'ற': "r", 'ன': "n",
	'ஜ': "j", 'ஷ': "sh", 'ஸ': "s", 'ஹ': "h",
}

var vowelSigns = map[rune]string{
	'ா': "aa", 'ி': "i", 'ீ': "ee", 'ு': "u", 'ூ': "oo",
	'ெ': "e", 'ே': "ea", 'ை': "ai", 'ொ': "o", 'ோ': "oa", 'ௌ': "au",
}

// Tamil transliterates every Tamil letter in s and leaves everything else
// untouched.
func Tamil(s string) string {
	runes := []rune(norm.NFC.String(s))
	var b strings.Builder
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if v, ok := vowels[r]; ok {
			b.WriteString(v)
			continue
		}
		c, ok := consonants[r]
		if !ok {
			if r == pulli {
				continue
			}
			if _, sign := vowelSigns[r]; sign {
				continue
			}
			b.WriteRune(r)
			continue
		}
		b.WriteString(c)
		if i+1 < len(runes) {
			next := runes[i+1]
			if next == pulli {
				i++
				continue
			}
			if v, ok := vowelSigns[next]; ok {
				b.WriteString(v)
				i++
				continue
			}
		}
		b.WriteString("a")
	}
	return b.String()
}

// HasTamil reports whether s contains a character of the Tamil block.
func HasTamil(s string) bool {
	for _, r := range s {
		if r >= tamilLow && r <= tamilTop {
			return true
		}
	}
	return false
}
