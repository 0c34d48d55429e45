/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Default natural language
 */

package ippstream

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage returns the natural language of the current locale,
// taken from LC_ALL, LC_MESSAGES or LANG, in the form, used by IPP
// (i.e., "en-us"). "C", "POSIX" and unset locale mean "en"
func DefaultLanguage() string {
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if locale := os.Getenv(env); locale != "" {
			return localeLanguage(locale)
		}
	}

	return "en"
}

// localeLanguage converts POSIX locale name (i.e., "de_DE.UTF-8@euro")
// into the IPP natural language
func localeLanguage(locale string) string {
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}

	switch locale {
	case "", "C", "POSIX":
		return "en"
	}

	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return "en"
	}

	return normalizeLangCode(tag.String())
}

// normalizeLangCode converts charset or language code into
// the canonical IPP form: lower case, '-' instead of '_'.
// "C" becomes "en"
func normalizeLangCode(s string) string {
	if s == "C" {
		return "en"
	}

	return strings.ReplaceAll(strings.ToLower(s), "_", "-")
}
