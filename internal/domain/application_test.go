package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{AppStatusSubmitted, AppStatusReviewing, true},
		{AppStatusSubmitted, AppStatusOffered, false},
		{AppStatusReviewing, AppStatusInterviewing, true},
		{AppStatusInterviewing, AppStatusOffered, true},
		{AppStatusInterviewing, AppStatusWithdrawn, true},
		{AppStatusOffered, AppStatusRejected, false},
		{AppStatusWithdrawn, AppStatusReviewing, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestIsFinalStatus(t *testing.T) {
	assert.False(t, IsFinalStatus(AppStatusSubmitted))
	assert.True(t, IsFinalStatus(AppStatusOffered))
	assert.True(t, IsFinalStatus(AppStatusRejected))
	assert.True(t, IsFinalStatus(AppStatusWithdrawn))
}

func TestParseLocale(t *testing.T) {
	l, ok := ParseLocale("zh-CN")
	assert.True(t, ok)
	assert.Equal(t, LocaleZH, l)

	l, ok = ParseLocale("en_US")
	assert.True(t, ok)
	assert.Equal(t, LocaleEN, l)

	_, ok = ParseLocale("fr")
	assert.False(t, ok)
}
