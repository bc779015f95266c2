package helper

import (
	"fmt"
	"strconv"

	"github.com/RudinMaxim/BarberMarket/config"
	"github.com/ttacon/libphonenumber"
)

// DefaultRegion is used for numbers written without a country code.
const DefaultRegion = "RU"

func parsePhone(phone string) (*libphonenumber.PhoneNumber, bool) {
	num, err := libphonenumber.Parse(phone, DefaultRegion)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return nil, false
	}
	return num, true
}

// NormalizePhoneNumber returns phone in E.164 form, or "" if it is not a valid number.
func NormalizePhoneNumber(phone string) string {
	num, ok := parsePhone(phone)
	if !ok {
		return ""
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}

// PhoneVariants lists the spellings a stored profile phone may use for the
// same number, E.164 first.
func PhoneVariants(phone string) []string {
	num, ok := parsePhone(phone)
	if !ok {
		return nil
	}

	national := strconv.FormatUint(num.GetNationalNumber(), 10)
	code := strconv.Itoa(int(num.GetCountryCode()))

	variants := []string{
		libphonenumber.Format(num, libphonenumber.E164),
		libphonenumber.Format(num, libphonenumber.INTERNATIONAL),
		libphonenumber.Format(num, libphonenumber.NATIONAL),
		code + national,
	}
	if len(national) == 10 {
		variants = append(variants, fmt.Sprintf("+%s (%s) %s-%s-%s", code, national[:3], national[3:6], national[6:8], national[8:]))
	}
	return variants
}

func IsValidPhone(phone string) bool {
	_, ok := parsePhone(phone)
	return ok
}

func GetText(key string) string {
	return config.Texts[key]
}

func GetFormattedMessage(key string, args ...interface{}) string {
	return fmt.Sprintf(GetText(key), args...)
}
