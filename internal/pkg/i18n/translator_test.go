package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslator(t *testing.T) {
	tr := NewTranslator("en")
	data := map[string]any{"Name": "Ada", "Event": "Go Meetup"}

	assert.Equal(t, `Congratulations Ada, you have been approved for the event "Go Meetup".`,
		tr.T("", "notify.approved", data))
	assert.Equal(t, "Bonjour Ada, votre inscription à « Go Meetup » est en attente.",
		tr.T("fr", "notify.pending", data))
	assert.Equal(t, `Hi Ada, here is an update regarding "Go Meetup".`,
		tr.T("de", "notify.generic", data))
	assert.Equal(t, "notify.unknown", tr.T("en", "notify.unknown", data))
	assert.Empty(t, tr.T("en", "", data))
}

func TestNewTranslatorBadLocale(t *testing.T) {
	tr := NewTranslator("???")
	assert.Equal(t, "Event Organizer", tr.T("", "email.from", nil))
}
