package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSearchable(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"run of spaces", "hello   world", "hello world"},
		{"nbsp and zero-width", "hello ​world", "hello world"},
		{"newlines", "hello\n\nworld\n", "hello world"},
		{"leading and trailing", "  hello  ", "hello"},
		{"empty", "", ""},
		{"only separators", " \n​", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeSearchable(tc.in))
		})
	}
}

func TestMakeLinkSearchable(t *testing.T) {
	href := "https://example.org/page"

	// Text repeating the href contributes nothing extra.
	same := MakeLink(StrPtr(href), href, false)
	assert.Equal(t, href, same.SearchableString)

	// Absent text falls back to the href alone.
	bare := MakeLink(nil, href, true)
	assert.Equal(t, href, bare.SearchableString)

	titled := MakeLink(StrPtr("Example  Page"), href, false)
	assert.Equal(t, "Example Page "+href, titled.SearchableString)
}

func TestMakeSearchableString_TextOnly(t *testing.T) {
	text := []RichTextElement{
		MakePlain("Hello"),
		MakeBold("brave  new"),
		MakePlain(""),
		MakeItalic("world"),
	}
	got := MakeSearchableString(text, &MessageRegular{})
	assert.Equal(t, "Hello brave new world", got)
}

func TestMakeSearchableString_ContentComponents(t *testing.T) {
	t.Run("location", func(t *testing.T) {
		loc := &ContentLocation{
			Title:   StrPtr("New Bahari"),
			Address: StrPtr("Jl. Gurita No.21x, Denpasar, Bali"),
			LatStr:  "-8.70385650",
			LonStr:  "115.21673666",
		}
		got := MakeSearchableString(nil, &MessageRegular{Content: loc})
		assert.Equal(t, "Jl. Gurita No.21x, Denpasar, Bali New Bahari -8.70385650 115.21673666", got)
	})

	t.Run("sticker emoji", func(t *testing.T) {
		st := &ContentSticker{Path: StrPtr("Media/sticker.webp"), Emoji: StrPtr("👍")}
		got := MakeSearchableString(nil, &MessageRegular{Content: st})
		assert.Equal(t, "👍", got)
	})

	t.Run("poll question after text", func(t *testing.T) {
		poll := &ContentPoll{Question: "Soup or salad?"}
		got := MakeSearchableString([]RichTextElement{MakePlain("vote!")}, &MessageRegular{Content: poll})
		assert.Equal(t, "vote! Soup or salad?", got)
	})

	t.Run("shared contact", func(t *testing.T) {
		contact := &ContentSharedContact{FirstName: StrPtr("John"), PhoneNumber: StrPtr("+998 91 1234567")}
		got := MakeSearchableString(nil, &MessageRegular{Content: contact})
		assert.Equal(t, "John +998 91 1234567", got)
	})

	t.Run("photo adds nothing", func(t *testing.T) {
		photo := &ContentPhoto{Path: StrPtr("p.jpg"), Width: 100, Height: 200}
		got := MakeSearchableString([]RichTextElement{MakePlain("caption")}, &MessageRegular{Content: photo})
		assert.Equal(t, "caption", got)
	})
}

func TestMakeSearchableString_ServiceComponents(t *testing.T) {
	t.Run("group create", func(t *testing.T) {
		ev := &ServiceGroupCreate{Title: "Board", Members: []string{"Alice A", "Bob"}}
		got := MakeSearchableString(nil, &MessageService{Event: ev})
		assert.Equal(t, "Board Alice A Bob", got)
	})

	t.Run("invite members", func(t *testing.T) {
		ev := &ServiceGroupInviteMembers{Members: []string{"Aaaaa Aaaaaaaaaaa"}}
		got := MakeSearchableString(nil, &MessageService{Event: ev})
		assert.Equal(t, "Aaaaa Aaaaaaaaaaa", got)
	})

	t.Run("pin message adds nothing", func(t *testing.T) {
		ev := &ServicePinMessage{MessageSourceID: 42}
		got := MakeSearchableString([]RichTextElement{MakePlain("pinned")}, &MessageService{Event: ev})
		assert.Equal(t, "pinned", got)
	})
}

func TestNewMessage_DerivesSearchableString(t *testing.T) {
	srcID := MessageSourceID(100)
	m := NewMessage(0, &srcID, 1693993938, 1,
		[]RichTextElement{MakePlain("Hello there")}, &MessageRegular{})
	assert.Equal(t, "Hello there", m.SearchableString)

	// A deleted message with no text and no content searches as empty.
	deleted := NewMessage(1, nil, 1693993939, 1, nil, &MessageRegular{IsDeleted: true})
	assert.Equal(t, "", deleted.SearchableString)
}

func TestMessageFilesRelative(t *testing.T) {
	sticker := NewMessage(0, nil, 1, 1, nil, &MessageRegular{
		Content: &ContentSticker{Path: StrPtr("Media/s.webp"), ThumbnailPath: StrPtr("Media/s_thumb.jpg")},
	})
	assert.Equal(t, []string{"Media/s.webp", "Media/s_thumb.jpg"}, sticker.FilesRelative())

	editPhoto := NewMessage(1, nil, 2, 1, nil, &MessageService{
		Event: &ServiceGroupEditPhoto{Photo: ContentPhoto{Path: StrPtr("Media/group.jpg")}},
	})
	assert.Equal(t, []string{"Media/group.jpg"}, editPhoto.FilesRelative())

	plain := NewMessage(2, nil, 3, 1, []RichTextElement{MakePlain("hi")}, &MessageRegular{})
	assert.Empty(t, plain.FilesRelative())
}
