package model

// ServiceEvent is the closed set of system-generated chat events.
type ServiceEvent interface{ serviceEvent() }

// ServicePhoneCall covers one-on-one and group calls alike; Members carries
// pretty names of participants when the source lists them.
type ServicePhoneCall struct {
	DurationSec   *int32   `json:"durationSec,omitempty"`
	DiscardReason *string  `json:"discardReason,omitempty"`
	Members       []string `json:"members,omitempty"`
}

type ServiceSuggestProfilePhoto struct {
	Photo ContentPhoto `json:"photo"`
}

// ServicePinMessage references the pinned message by its source id.
type ServicePinMessage struct {
	MessageSourceID MessageSourceID `json:"messageSourceId"`
}

type ServiceClearHistory struct{}

type ServiceBlockUser struct {
	IsBlocked bool `json:"isBlocked"`
}

type ServiceStatusTextChanged struct{}

type ServiceNotice struct{}

// ServiceGroupCreate members are pretty names, resolved against chat members
// by consumers that need User records.
type ServiceGroupCreate struct {
	Title   string   `json:"title"`
	Members []string `json:"members"`
}

type ServiceGroupEditTitle struct {
	Title string `json:"title"`
}

type ServiceGroupEditPhoto struct {
	Photo ContentPhoto `json:"photo"`
}

type ServiceGroupDeletePhoto struct{}

type ServiceGroupInviteMembers struct {
	Members []string `json:"members"`
}

type ServiceGroupRemoveMembers struct {
	Members []string `json:"members"`
}

type ServiceGroupMigrateFrom struct {
	Title string `json:"title"`
}

type ServiceGroupMigrateTo struct{}

type ServiceGroupCall struct {
	Members []string `json:"members"`
}

func (*ServicePhoneCall) serviceEvent()           {}
func (*ServiceSuggestProfilePhoto) serviceEvent() {}
func (*ServicePinMessage) serviceEvent()          {}
func (*ServiceClearHistory) serviceEvent()        {}
func (*ServiceBlockUser) serviceEvent()           {}
func (*ServiceStatusTextChanged) serviceEvent()   {}
func (*ServiceNotice) serviceEvent()              {}
func (*ServiceGroupCreate) serviceEvent()         {}
func (*ServiceGroupEditTitle) serviceEvent()      {}
func (*ServiceGroupEditPhoto) serviceEvent()      {}
func (*ServiceGroupDeletePhoto) serviceEvent()    {}
func (*ServiceGroupInviteMembers) serviceEvent()  {}
func (*ServiceGroupRemoveMembers) serviceEvent()  {}
func (*ServiceGroupMigrateFrom) serviceEvent()    {}
func (*ServiceGroupMigrateTo) serviceEvent()      {}
func (*ServiceGroupCall) serviceEvent()           {}

// serviceFilesRelative enumerates file paths referenced by an event.
// Only photo-bearing events carry any.
func serviceFilesRelative(ev ServiceEvent) []string {
	switch v := ev.(type) {
	case *ServicePhoneCall:
		return nil
	case *ServiceSuggestProfilePhoto:
		return collectPaths(v.Photo.Path)
	case *ServicePinMessage:
		return nil
	case *ServiceClearHistory:
		return nil
	case *ServiceBlockUser:
		return nil
	case *ServiceStatusTextChanged:
		return nil
	case *ServiceNotice:
		return nil
	case *ServiceGroupCreate:
		return nil
	case *ServiceGroupEditTitle:
		return nil
	case *ServiceGroupEditPhoto:
		return collectPaths(v.Photo.Path)
	case *ServiceGroupDeletePhoto:
		return nil
	case *ServiceGroupInviteMembers:
		return nil
	case *ServiceGroupRemoveMembers:
		return nil
	case *ServiceGroupMigrateFrom:
		return nil
	case *ServiceGroupMigrateTo:
		return nil
	case *ServiceGroupCall:
		return nil
	case nil:
		return nil
	}
	panic("unhandled service event variant")
}

// serviceSearchable lists the search-relevant components of an event.
func serviceSearchable(ev ServiceEvent) []string {
	switch v := ev.(type) {
	case *ServiceGroupCreate:
		return append([]string{v.Title}, v.Members...)
	case *ServiceGroupInviteMembers:
		return v.Members
	case *ServiceGroupRemoveMembers:
		return v.Members
	case *ServiceGroupMigrateFrom:
		return []string{v.Title}
	case *ServiceGroupCall:
		return v.Members
	default:
		return nil
	}
}
