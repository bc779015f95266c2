package helper

import (
	"testing"

	"github.com/RudinMaxim/BarberMarket/config"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+7 912 345-67-89", "+79123456789"},
		{"+7 (912) 345-67-89", "+79123456789"},
		{"89123456789", "+79123456789"},
		{"9123456789", "+79123456789"},
		{"12345", ""},
		{"not a phone", ""},
		{"", ""},
	}

	for _, tt := range tests {
		got := NormalizePhoneNumber(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.want != "", IsValidPhone(tt.in), tt.in)
	}
}

func TestPhoneVariants(t *testing.T) {
	variants := PhoneVariants("8 912 345 67 89")

	assert.Equal(t, "+79123456789", variants[0])
	assert.Contains(t, variants, "79123456789")
	assert.Contains(t, variants, "+7 (912) 345-67-89")

	assert.Nil(t, PhoneVariants("12345"))
}

func TestGetFormattedMessage(t *testing.T) {
	prev := config.Texts
	t.Cleanup(func() { config.Texts = prev })

	config.Texts = map[string]string{"hello_user": "Hello, %s!"}
	assert.Equal(t, "Hello, Ivan!", GetFormattedMessage("hello_user", "Ivan"))
	assert.Equal(t, "", GetText("missing"))
}
