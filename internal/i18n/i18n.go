// Package i18n handles localized user-facing strings.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	goLocale "github.com/jeandeaual/go-locale"
	i18nLib "github.com/kaptinlin/go-i18n"
	"golang.org/x/text/language"
)

type LocaleProvider interface {
	GetLocales() ([]string, error)
}

type DefaultLocaleProvider struct{}

func (provider DefaultLocaleProvider) GetLocales() ([]string, error) {
	return goLocale.GetLocales()
}

//go:embed lang/*.json
var enFS embed.FS

const defaultLocale = "en-GB"

const (
	// TestModeEnv makes T return the key and its arguments instead of a translation.
	TestModeEnv = "ENTWINE_TEST"
	// LanguageEnv overrides every locale the operating system reports.
	LanguageEnv = "ENTWINE_LANG"
)

// localeEnvs are consulted in POSIX precedence order after LanguageEnv.
var localeEnvs = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

var langDir = "lang"
var localeProvider LocaleProvider

type translator struct {
	bundle    *i18nLib.I18n
	localizer *i18nLib.Localizer
	// mu guards localizer.Get; the library's message cache is not safe for concurrent use.
	mu sync.Mutex
}

var (
	active    *translator
	setupOnce sync.Once
)

func ResetForTesting() {
	active = nil
	setupOnce = sync.Once{}
}

type TData map[string]interface{}

type Tvars struct {
	Count int
	Data  *TData
}

func current() *translator {
	setupOnce.Do(setup)
	return active
}

func setup() {
	if localeProvider == nil {
		localeProvider = DefaultLocaleProvider{}
	}

	locales, err := bundledLocales(enFS, langDir)
	if err != nil {
		panic(err)
	}

	bundle := i18nLib.NewBundle(
		i18nLib.WithDefaultLocale(defaultLocale),
		i18nLib.WithLocales(locales...),
	)
	if err := bundle.LoadFS(enFS, path.Join(langDir, "*.json")); err != nil {
		panic(err)
	}

	active = &translator{
		bundle:    bundle,
		localizer: bundle.NewLocalizer(buildLocalizerLocales(getUserLocales())...),
	}
}

// bundledLocales lists the embedded language files with the default locale first.
func bundledLocales(files fs.ReadDirFS, dir string) ([]string, error) {
	entries, err := files.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	locales := []string{defaultLocale}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}
		locale := strings.TrimSuffix(entry.Name(), ".json")
		if strings.EqualFold(locale, defaultLocale) {
			continue
		}
		locales = append(locales, locale)
	}
	return locales, nil
}

func T(key string, args ...Tvars) string {
	if _, present := os.LookupEnv(TestModeEnv); present {
		return formatKeyAndArgs(key, args...)
	}

	if len(args) > 1 {
		panic("Too many arguments")
	}

	tr := current()
	if len(args) == 0 {
		return tr.get(key)
	}
	return tr.get(key, i18nLib.Vars(varsOf(args[0])))
}

func (t *translator) get(key string, vars ...i18nLib.Vars) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.localizer.Get(key, vars...)
}

func varsOf(arg Tvars) map[string]interface{} {
	vars := make(map[string]interface{})
	if arg.Data != nil {
		for name, value := range *arg.Data {
			vars[name] = value
		}
	}
	vars["count"] = arg.Count
	return vars
}

func getUserLocales() []string {
	if value := os.Getenv(LanguageEnv); value != "" {
		return []string{value}
	}
	for _, name := range localeEnvs {
		if value, present := os.LookupEnv(name); present && value != "" {
			return []string{value}
		}
	}

	detected, err := localeProvider.GetLocales()
	if err != nil {
		return []string{language.English.String()}
	}

	locales := make([]string, 0, len(detected))
	for _, localeName := range detected {
		if localeName != "" {
			locales = append(locales, localeName)
		}
	}
	return locales
}

func formatKeyAndArgs(key string, args ...Tvars) string {
	var sb strings.Builder
	sb.WriteString(key)
	for i, arg := range args {
		fmt.Fprintf(&sb, ", Arg %d: {Count: %d, Data: %v}", i+1, arg.Count, arg.Data)
	}
	return sb.String()
}

// posixLocale strips the codeset and modifier from values such as "de_DE.UTF-8@euro".
func posixLocale(value string) string {
	if index := strings.IndexAny(value, ".@"); index >= 0 {
		value = value[:index]
	}
	if value == "C" || value == "POSIX" {
		return language.English.String()
	}
	return value
}

// buildLocalizerLocales turns raw locale names into BCP 47 tags followed by their base language.
func buildLocalizerLocales(rawLocales []string) []string {
	locales := make([]string, 0, len(rawLocales)*2)
	seen := make(map[string]bool, len(rawLocales)*2)
	add := func(locale string) {
		if !seen[locale] {
			seen[locale] = true
			locales = append(locales, locale)
		}
	}

	for _, raw := range rawLocales {
		if raw == "" {
			continue
		}
		tag, err := language.Parse(posixLocale(raw))
		if err != nil {
			continue
		}
		add(tag.String())
		if base, _ := tag.Base(); base.String() != "" {
			add(base.String())
		}
	}
	return locales
}
