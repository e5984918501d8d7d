package whatsapp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatfold/chatfold/internal/model"
)

func parseIndented(t *testing.T, s string) (*model.ContentSharedContact, error) {
	t.Helper()
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(s), "\n") {
		lines = append(lines, strings.TrimSpace(l))
	}
	return parseVCard(strings.Join(lines, "\n"))
}

func vc(firstName, phone string) *model.ContentSharedContact {
	return &model.ContentSharedContact{
		FirstName:   model.StrPtr(firstName),
		PhoneNumber: model.StrPtr(phone),
	}
}

func TestParseVCard(t *testing.T) {
	t.Run("full name wins over name components", func(t *testing.T) {
		got, err := parseIndented(t, `
			BEGIN:VCARD
			VERSION:3.0
			N:;Name (comment);;;
			FN:Name (comment)
			TEL;type=Mobile;waid=112223456543:+11 222-3456-543
			END:VCARD
		`)
		require.NoError(t, err)
		assert.Equal(t, vc("Name (comment)", "+11 222-3456-543"), got)
	})

	t.Run("mobile number wins over home", func(t *testing.T) {
		got, err := parseIndented(t, `
			BEGIN:VCARD
			VERSION:3.0
			N:Name3;Name1;Name2;;
			FN:Name1 Name2 Name3
			TEL;type=Home:+12 345-6789-8765
			TEL;type=Mobile;waid=9876543212345:+98 765-4321-2345
			END:VCARD
		`)
		require.NoError(t, err)
		assert.Equal(t, vc("Name1 Name2 Name3", "+98 765-4321-2345"), got)
	})

	t.Run("CELL counts as mobile, business extensions ignored", func(t *testing.T) {
		got, err := parseIndented(t, `
			BEGIN:VCARD
			VERSION:3.0
			N:;+11 222-3333-4444;;;
			FN:+11 222-3333-4444
			TEL;type=CELL;waid=1122233334444:+11 222-3333-4444
			X-WA-BIZ-NAME:+11 222-3333-4444
			X-WA-BIZ-DESCRIPTION:My Fancy Description!
			END:VCARD
		`)
		require.NoError(t, err)
		assert.Equal(t, vc("+11 222-3333-4444", "+11 222-3333-4444"), got)
	})

	t.Run("grouped untyped TEL with waid", func(t *testing.T) {
		got, err := parseIndented(t, `
			BEGIN:VCARD
			VERSION:3.0
			N:Name;Full;;;
			FN:Full Name
			item1.TEL;waid=1122233334444:+11 222-3333-4444
			item1.X-ABLabel:Ponsel
			X-WA-BIZ-DESCRIPTION:My Fancy Description!
			X-WA-BIZ-NAME:Full Name
			END:VCARD
		`)
		require.NoError(t, err)
		assert.Equal(t, vc("Full Name", "+11 222-3333-4444"), got)
	})

	t.Run("falls back to first non-empty N component", func(t *testing.T) {
		got, err := parseIndented(t, `
			BEGIN:VCARD
			VERSION:3.0
			N:;Given;;;
			TEL:+1 23
			END:VCARD
		`)
		require.NoError(t, err)
		assert.Equal(t, vc("Given", "+1 23"), got)
	})

	t.Run("waid wins over plain when no mobile", func(t *testing.T) {
		got, err := parseIndented(t, `
			BEGIN:VCARD
			VERSION:3.0
			FN:X
			TEL;type=Home:+1 11
			TEL;waid=222:+2 22
			END:VCARD
		`)
		require.NoError(t, err)
		assert.Equal(t, vc("X", "+2 22"), got)
	})

	t.Run("empty card fails", func(t *testing.T) {
		_, err := parseIndented(t, `
			BEGIN:VCARD
			VERSION:3.0
			END:VCARD
		`)
		assert.ErrorIs(t, err, model.ErrParseFailure)
	})
}
