package model

// Placeholder names used when identity information is missing.
const (
	Unnamed = "[unnamed]"
	Unknown = "[unknown]"
	Someone = "[someone]"
)

// User is a chat participant. All identity fields are optional; ids are
// assigned per dataset at load time.
type User struct {
	DsUUID      UUID    `json:"dsUuid"`
	ID          UserID  `json:"id"`
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	Username    *string `json:"username,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

// PrettyNameOption resolves a display name: full name first, then phone
// number, then username. Returns nil when nothing is available.
func (u *User) PrettyNameOption() *string {
	first := strOrEmpty(u.FirstName)
	last := strOrEmpty(u.LastName)
	switch {
	case first != "" && last != "":
		s := first + " " + last
		return &s
	case first != "":
		return &first
	case last != "":
		return &last
	case strOrEmpty(u.PhoneNumber) != "":
		return u.PhoneNumber
	case strOrEmpty(u.Username) != "":
		return u.Username
	}
	return nil
}

// PrettyName is PrettyNameOption with the "[unnamed]" fallback.
func (u *User) PrettyName() string {
	if s := u.PrettyNameOption(); s != nil {
		return *s
	}
	return Unnamed
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StrPtr returns a pointer to s, a convenience for optional fields.
func StrPtr(s string) *string { return &s }
