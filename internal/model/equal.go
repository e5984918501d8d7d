package model

// Equality helpers used by the merge engine. Pointer fields compare by
// value, absent vs present is a mismatch unless both are absent.

// ContentEqual reports whether two content payloads are the same variant
// with the same fields. Two nils are equal.
func ContentEqual(a, b Content) bool {
	switch av := a.(type) {
	case *ContentSticker:
		bv, ok := b.(*ContentSticker)
		return ok && strPtrEq(av.Path, bv.Path) && av.Width == bv.Width && av.Height == bv.Height &&
			strPtrEq(av.ThumbnailPath, bv.ThumbnailPath) && strPtrEq(av.Emoji, bv.Emoji)
	case *ContentPhoto:
		bv, ok := b.(*ContentPhoto)
		return ok && photoEq(*av, *bv)
	case *ContentVoiceMsg:
		bv, ok := b.(*ContentVoiceMsg)
		return ok && strPtrEq(av.Path, bv.Path) && strPtrEq(av.MimeType, bv.MimeType) &&
			i32PtrEq(av.DurationSec, bv.DurationSec)
	case *ContentAudio:
		bv, ok := b.(*ContentAudio)
		return ok && strPtrEq(av.Path, bv.Path) && strPtrEq(av.Title, bv.Title) &&
			strPtrEq(av.Performer, bv.Performer) && strPtrEq(av.MimeType, bv.MimeType) &&
			i32PtrEq(av.DurationSec, bv.DurationSec)
	case *ContentVideoMsg:
		bv, ok := b.(*ContentVideoMsg)
		return ok && strPtrEq(av.Path, bv.Path) && av.Width == bv.Width && av.Height == bv.Height &&
			strPtrEq(av.MimeType, bv.MimeType) && i32PtrEq(av.DurationSec, bv.DurationSec) &&
			strPtrEq(av.ThumbnailPath, bv.ThumbnailPath)
	case *ContentVideo:
		bv, ok := b.(*ContentVideo)
		return ok && strPtrEq(av.Path, bv.Path) && strPtrEq(av.Title, bv.Title) &&
			strPtrEq(av.Performer, bv.Performer) && av.Width == bv.Width && av.Height == bv.Height &&
			strPtrEq(av.MimeType, bv.MimeType) && i32PtrEq(av.DurationSec, bv.DurationSec) &&
			strPtrEq(av.ThumbnailPath, bv.ThumbnailPath)
	case *ContentFile:
		bv, ok := b.(*ContentFile)
		return ok && strPtrEq(av.Path, bv.Path) && strPtrEq(av.FileName, bv.FileName) &&
			strPtrEq(av.MimeType, bv.MimeType) && strPtrEq(av.ThumbnailPath, bv.ThumbnailPath)
	case *ContentLocation:
		bv, ok := b.(*ContentLocation)
		return ok && strPtrEq(av.Title, bv.Title) && strPtrEq(av.Address, bv.Address) &&
			av.LatStr == bv.LatStr && av.LonStr == bv.LonStr && i32PtrEq(av.DurationSec, bv.DurationSec)
	case *ContentPoll:
		bv, ok := b.(*ContentPoll)
		return ok && av.Question == bv.Question
	case *ContentSharedContact:
		bv, ok := b.(*ContentSharedContact)
		return ok && strPtrEq(av.FirstName, bv.FirstName) && strPtrEq(av.LastName, bv.LastName) &&
			strPtrEq(av.PhoneNumber, bv.PhoneNumber) && strPtrEq(av.VcardPath, bv.VcardPath)
	case nil:
		return b == nil
	}
	panic("unhandled content variant")
}

// ServiceEventEqual reports whether two events are the same variant with the
// same fields.
func ServiceEventEqual(a, b ServiceEvent) bool {
	switch av := a.(type) {
	case *ServicePhoneCall:
		bv, ok := b.(*ServicePhoneCall)
		return ok && i32PtrEq(av.DurationSec, bv.DurationSec) &&
			strPtrEq(av.DiscardReason, bv.DiscardReason) && strSliceEq(av.Members, bv.Members)
	case *ServiceSuggestProfilePhoto:
		bv, ok := b.(*ServiceSuggestProfilePhoto)
		return ok && photoEq(av.Photo, bv.Photo)
	case *ServicePinMessage:
		bv, ok := b.(*ServicePinMessage)
		return ok && av.MessageSourceID == bv.MessageSourceID
	case *ServiceClearHistory:
		_, ok := b.(*ServiceClearHistory)
		return ok
	case *ServiceBlockUser:
		bv, ok := b.(*ServiceBlockUser)
		return ok && av.IsBlocked == bv.IsBlocked
	case *ServiceStatusTextChanged:
		_, ok := b.(*ServiceStatusTextChanged)
		return ok
	case *ServiceNotice:
		_, ok := b.(*ServiceNotice)
		return ok
	case *ServiceGroupCreate:
		bv, ok := b.(*ServiceGroupCreate)
		return ok && av.Title == bv.Title && strSliceEq(av.Members, bv.Members)
	case *ServiceGroupEditTitle:
		bv, ok := b.(*ServiceGroupEditTitle)
		return ok && av.Title == bv.Title
	case *ServiceGroupEditPhoto:
		bv, ok := b.(*ServiceGroupEditPhoto)
		return ok && photoEq(av.Photo, bv.Photo)
	case *ServiceGroupDeletePhoto:
		_, ok := b.(*ServiceGroupDeletePhoto)
		return ok
	case *ServiceGroupInviteMembers:
		bv, ok := b.(*ServiceGroupInviteMembers)
		return ok && strSliceEq(av.Members, bv.Members)
	case *ServiceGroupRemoveMembers:
		bv, ok := b.(*ServiceGroupRemoveMembers)
		return ok && strSliceEq(av.Members, bv.Members)
	case *ServiceGroupMigrateFrom:
		bv, ok := b.(*ServiceGroupMigrateFrom)
		return ok && av.Title == bv.Title
	case *ServiceGroupMigrateTo:
		_, ok := b.(*ServiceGroupMigrateTo)
		return ok
	case *ServiceGroupCall:
		bv, ok := b.(*ServiceGroupCall)
		return ok && strSliceEq(av.Members, bv.Members)
	case nil:
		return b == nil
	}
	panic("unhandled service event variant")
}

func photoEq(a, b ContentPhoto) bool {
	return strPtrEq(a.Path, b.Path) && a.Width == b.Width && a.Height == b.Height
}

func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func i32PtrEq(a, b *int32) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// TimestampPtrEq compares optional timestamps by value.
func TimestampPtrEq(a, b *Timestamp) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// SourceIDPtrEq compares optional source ids by value.
func SourceIDPtrEq(a, b *MessageSourceID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func strSliceEq(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
