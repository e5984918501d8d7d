package whatsapp

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/chatfold/chatfold/internal/model"
)

// parseVCard reduces a contact card to the shared-contact payload.
//
// Name: FN wins; otherwise the first non-empty N component. Phone: a TEL
// typed Mobile/CELL wins, then a TEL carrying a waid parameter, then any TEL.
// WhatsApp business extensions (X-WA-*) and grouped property prefixes
// ("item1.TEL") are tolerated.
func parseVCard(raw string) (*model.ContentSharedContact, error) {
	var fullName, nFallback string
	var phoneMobile, phoneWaid, phoneAny string

	for _, line := range unfoldLines(raw) {
		name, params, value, ok := splitProperty(line)
		if !ok {
			continue
		}
		switch name {
		case "FN":
			fullName = value
		case "N":
			if nFallback == "" {
				for _, comp := range strings.Split(value, ";") {
					if comp = strings.TrimSpace(comp); comp != "" {
						nFallback = comp
						break
					}
				}
			}
		case "TEL":
			if value == "" {
				continue
			}
			if phoneAny == "" {
				phoneAny = value
			}
			if phoneWaid == "" && hasParam(params, "waid") {
				phoneWaid = value
			}
			if phoneMobile == "" && isMobileType(params) {
				phoneMobile = value
			}
		}
	}

	name := fullName
	if name == "" {
		name = nFallback
	}
	phone := phoneMobile
	if phone == "" {
		phone = phoneWaid
	}
	if phone == "" {
		phone = phoneAny
	}

	if name == "" && phone == "" {
		return nil, errors.Wrap(model.ErrParseFailure, "vcard carries neither name nor phone")
	}

	contact := &model.ContentSharedContact{}
	if name != "" {
		contact.FirstName = model.StrPtr(name)
	}
	if phone != "" {
		contact.PhoneNumber = model.StrPtr(phone)
	}
	return contact, nil
}

// unfoldLines splits the card into logical lines, joining RFC 6350
// continuation lines (leading space or tab) back to their parent.
func unfoldLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && len(out) > 0 {
			out[len(out)-1] += strings.TrimLeft(line, " \t")
			continue
		}
		out = append(out, strings.TrimSpace(line))
	}
	return out
}

// splitProperty breaks "item1.TEL;type=CELL;waid=123:+1 23" into the property
// name, its parameters and the value.
func splitProperty(line string) (name string, params []string, value string, ok bool) {
	colon := strings.Index(line, ":")
	if colon < 0 {
		return "", nil, "", false
	}
	head, value := line[:colon], strings.TrimSpace(line[colon+1:])

	parts := strings.Split(head, ";")
	name = parts[0]
	// Drop the group prefix, e.g. "item1.TEL" -> "TEL".
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		name = name[dot+1:]
	}
	return strings.ToUpper(strings.TrimSpace(name)), parts[1:], value, true
}

func hasParam(params []string, key string) bool {
	for _, p := range params {
		k, _, _ := strings.Cut(p, "=")
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return true
		}
	}
	return false
}

func isMobileType(params []string) bool {
	for _, p := range params {
		k, v, _ := strings.Cut(p, "=")
		if !strings.EqualFold(strings.TrimSpace(k), "type") {
			continue
		}
		if strings.EqualFold(v, "Mobile") || strings.EqualFold(v, "CELL") {
			return true
		}
	}
	return false
}
