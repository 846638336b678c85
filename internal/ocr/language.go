package ocr

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// aliases covers the short names the CLI has always accepted that are not
// BCP 47 tags.
var aliases = map[string]string{
	"ch":          "chi_sim",
	"chinese":     "chi_sim",
	"chinese_cht": "chi_tra",
	"japan":       "jpn",
	"korean":      "kor",
	"german":      "deu",
	"french":      "fra",
}

// TesseractLanguages converts a language option such as "en", "zh-TW",
// "ch+en" or "chi_sim" into tesseract traineddata names.
func TesseractLanguages(option string) ([]string, error) {
	option = strings.TrimSpace(option)
	if option == "" {
		return []string{"eng"}, nil
	}

	var out []string
	for _, part := range strings.Split(option, "+") {
		code, err := tesseractCode(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, nil
}

func tesseractCode(code string) (string, error) {
	lower := strings.ToLower(code)
	if lower == "" {
		return "", fmt.Errorf("empty language code")
	}
	if alias, ok := aliases[lower]; ok {
		return alias, nil
	}
	// already a traineddata name, e.g. chi_sim or deu_latf
	if strings.Contains(lower, "_") {
		return lower, nil
	}

	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("unsupported OCR language %q: %w", code, err)
	}

	base, _ := tag.Base()
	if base.String() == "zh" {
		script, _ := tag.Script()
		region, _ := tag.Region()
		switch {
		case script.String() == "Hant":
			return "chi_tra", nil
		case region.String() == "TW" || region.String() == "HK" || region.String() == "MO":
			return "chi_tra", nil
		default:
			return "chi_sim", nil
		}
	}

	iso3 := base.ISO3()
	if iso3 == "" || iso3 == "und" {
		return "", fmt.Errorf("unsupported OCR language %q", code)
	}
	return iso3, nil
}

// LanguageName returns an English display name for a language option, or the
// option itself when it cannot be parsed.
func LanguageName(option string) string {
	first := strings.Split(option, "+")[0]
	if alias, ok := aliases[strings.ToLower(first)]; ok {
		first = alias
	}
	first = strings.SplitN(first, "_", 2)[0]
	tag, err := language.Parse(first)
	if err != nil {
		return option
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return option
}
