package validate

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	zhTranslations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/huntier-api/internal/domain"
)

// v is the package-level singleton validator. It is initialised once at
// package load time together with the English and Chinese translators.
var (
	v   = validator.New(validator.WithRequiredStructEnabled())
	uni *ut.UniversalTranslator
)

func init() {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	enLang := en.New()
	uni = ut.New(enLang, enLang, zh.New())
	enTrans, _ := uni.GetTranslator(string(domain.LocaleEN))
	zhTrans, _ := uni.GetTranslator(string(domain.LocaleZH))
	if err := enTranslations.RegisterDefaultTranslations(v, enTrans); err != nil {
		panic("register en translations: " + err.Error())
	}
	if err := zhTranslations.RegisterDefaultTranslations(v, zhTrans); err != nil {
		panic("register zh translations: " + err.Error())
	}
}

// Error maps each failing field (by JSON name) to a message in the request locale.
type Error map[string]string

func (e Error) Error() string {
	b, err := json.Marshal(map[string]string(e))
	if err != nil {
		return "validation error"
	}
	return string(b)
}

// Struct validates the given struct using its validate tags.
// Failures are returned as an Error translated into locale.
func Struct(s interface{}, locale domain.Locale) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	trans, _ := uni.GetTranslator(string(locale))
	out := make(Error, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = fe.Translate(trans)
	}
	return out
}
