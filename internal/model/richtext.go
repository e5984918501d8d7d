package model

// RichTextValue is the closed set of text styling variants. Every consumer
// switches over all of them; a missed case is a bug.
type RichTextValue interface{ richTextValue() }

type RtePlain struct {
	Text string `json:"text"`
}

type RteBold struct {
	Text string `json:"text"`
}

type RteItalic struct {
	Text string `json:"text"`
}

type RteUnderline struct {
	Text string `json:"text"`
}

type RteStrikethrough struct {
	Text string `json:"text"`
}

type RteBlockquote struct {
	Text string `json:"text"`
}

type RteSpoiler struct {
	Text string `json:"text"`
}

// RteLink is a hyperlink. Hidden links contribute no visible text of their
// own (e.g. a bare URL attached to a media message).
type RteLink struct {
	Text   *string `json:"text,omitempty"`
	Href   string  `json:"href"`
	Hidden bool    `json:"hidden,omitempty"`
}

type RtePrefmtInline struct {
	Text string `json:"text"`
}

type RtePrefmtBlock struct {
	Text     string  `json:"text"`
	Language *string `json:"language,omitempty"`
}

func (*RtePlain) richTextValue()         {}
func (*RteBold) richTextValue()          {}
func (*RteItalic) richTextValue()        {}
func (*RteUnderline) richTextValue()     {}
func (*RteStrikethrough) richTextValue() {}
func (*RteBlockquote) richTextValue()    {}
func (*RteSpoiler) richTextValue()       {}
func (*RteLink) richTextValue()          {}
func (*RtePrefmtInline) richTextValue()  {}
func (*RtePrefmtBlock) richTextValue()   {}

// RichTextElement is one styled span of message text. SearchableString is
// derived at construction and kept alongside the variant.
type RichTextElement struct {
	SearchableString string        `json:"searchableString"`
	Val              RichTextValue `json:"-"`
}

func makeRte(text string, val RichTextValue) RichTextElement {
	return RichTextElement{SearchableString: NormalizeSearchable(text), Val: val}
}

func MakePlain(text string) RichTextElement {
	return makeRte(text, &RtePlain{Text: text})
}

func MakeBold(text string) RichTextElement {
	return makeRte(text, &RteBold{Text: text})
}

func MakeItalic(text string) RichTextElement {
	return makeRte(text, &RteItalic{Text: text})
}

func MakeUnderline(text string) RichTextElement {
	return makeRte(text, &RteUnderline{Text: text})
}

func MakeStrikethrough(text string) RichTextElement {
	return makeRte(text, &RteStrikethrough{Text: text})
}

func MakeBlockquote(text string) RichTextElement {
	return makeRte(text, &RteBlockquote{Text: text})
}

func MakeSpoiler(text string) RichTextElement {
	return makeRte(text, &RteSpoiler{Text: text})
}

func MakePrefmtInline(text string) RichTextElement {
	return makeRte(text, &RtePrefmtInline{Text: text})
}

func MakePrefmtBlock(text string, language *string) RichTextElement {
	return makeRte(text, &RtePrefmtBlock{Text: text, Language: language})
}

// MakeLink derives the searchable form "text href", or just the href when
// the text repeats it or is absent.
func MakeLink(text *string, href string, hidden bool) RichTextElement {
	searchable := href
	if t := strOrEmpty(text); t != "" && t != href {
		searchable = t + " " + href
	}
	return RichTextElement{
		SearchableString: NormalizeSearchable(searchable),
		Val:              &RteLink{Text: text, Href: href, Hidden: hidden},
	}
}

// Equal reports deep equality, variant included.
func (e RichTextElement) Equal(o RichTextElement) bool {
	switch a := e.Val.(type) {
	case *RtePlain:
		b, ok := o.Val.(*RtePlain)
		return ok && a.Text == b.Text
	case *RteBold:
		b, ok := o.Val.(*RteBold)
		return ok && a.Text == b.Text
	case *RteItalic:
		b, ok := o.Val.(*RteItalic)
		return ok && a.Text == b.Text
	case *RteUnderline:
		b, ok := o.Val.(*RteUnderline)
		return ok && a.Text == b.Text
	case *RteStrikethrough:
		b, ok := o.Val.(*RteStrikethrough)
		return ok && a.Text == b.Text
	case *RteBlockquote:
		b, ok := o.Val.(*RteBlockquote)
		return ok && a.Text == b.Text
	case *RteSpoiler:
		b, ok := o.Val.(*RteSpoiler)
		return ok && a.Text == b.Text
	case *RteLink:
		b, ok := o.Val.(*RteLink)
		return ok && strOrEmpty(a.Text) == strOrEmpty(b.Text) && a.Href == b.Href && a.Hidden == b.Hidden
	case *RtePrefmtInline:
		b, ok := o.Val.(*RtePrefmtInline)
		return ok && a.Text == b.Text
	case *RtePrefmtBlock:
		b, ok := o.Val.(*RtePrefmtBlock)
		return ok && a.Text == b.Text && strOrEmpty(a.Language) == strOrEmpty(b.Language)
	case nil:
		return o.Val == nil
	}
	return false
}

// RichTextEqual compares two text runs element-wise.
func RichTextEqual(a, b []RichTextElement) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// JoinSearchable renders a text run as one normalized plain string.
func JoinSearchable(text []RichTextElement) string {
	var parts []string
	for _, e := range text {
		if e.SearchableString != "" {
			parts = append(parts, e.SearchableString)
		}
	}
	return joinNonEmpty(parts)
}
