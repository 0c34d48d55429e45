/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Default language tests
 */

package ippstream

import (
	"testing"
)

// TestDefaultLanguage tests DefaultLanguage
func TestDefaultLanguage(t *testing.T) {
	tests := []struct {
		lcAll, lcMessages, lang string
		expected                string
	}{
		{"", "", "", "en"},
		{"C", "", "", "en"},
		{"POSIX", "de_DE", "", "en"},
		{"C.UTF-8", "", "", "en"},
		{"", "de_DE.UTF-8", "fr_FR", "de-de"},
		{"", "", "fr_FR@euro", "fr-fr"},
		{"", "", "ru", "ru"},
		{"", "", "pt_BR.ISO-8859-1", "pt-br"},
		{"", "", "sr_RS@latin", "sr-rs"},
		{"", "", "!!!", "en"},
	}

	for _, test := range tests {
		t.Setenv("LC_ALL", test.lcAll)
		t.Setenv("LC_MESSAGES", test.lcMessages)
		t.Setenv("LANG", test.lang)

		lang := DefaultLanguage()
		if lang != test.expected {
			t.Errorf("LC_ALL=%q LC_MESSAGES=%q LANG=%q: expected %q, present %q",
				test.lcAll, test.lcMessages, test.lang, test.expected, lang)
		}
	}
}

// TestNormalizeLangCode tests normalizeLangCode
func TestNormalizeLangCode(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"C", "en"},
		{"en_US", "en-us"},
		{"UTF-8", "utf-8"},
		{"zh-Hant-TW", "zh-hant-tw"},
	}

	for _, test := range tests {
		if out := normalizeLangCode(test.in); out != test.out {
			t.Errorf("%q: expected %q, present %q", test.in, test.out, out)
		}
	}
}
