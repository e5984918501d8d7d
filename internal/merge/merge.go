// Package merge aligns two independently loaded histories of logically the
// same conversation and reports their differences. Master is the baseline,
// slave the incoming side. Merge never mutates its inputs.
package merge

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/chatfold/chatfold/internal/model"
)

// WrapMaster marks a message sequence as the baseline side.
func WrapMaster(msgs []model.Message) []model.MasterMessage {
	out := make([]model.MasterMessage, len(msgs))
	for i, m := range msgs {
		out[i] = model.MasterMessage{Message: m}
	}
	return out
}

// WrapSlave marks a message sequence as the incoming side.
func WrapSlave(msgs []model.Message) []model.SlaveMessage {
	out := make([]model.SlaveMessage, len(msgs))
	for i, m := range msgs {
		out[i] = model.SlaveMessage{Message: m}
	}
	return out
}

// DiffMessages walks both sequences in ascending (timestamp, source id)
// order, ties broken by original position. Messages are aligned by source id
// alone; internal ids are load-local and never used for alignment. Master-only
// messages report as removed in slave, slave-only ones as added, and aligned
// pairs compare field by field.
func DiffMessages(master []model.MasterMessage, slave []model.SlaveMessage) []model.Difference {
	ms := append([]model.MasterMessage(nil), master...)
	ss := append([]model.SlaveMessage(nil), slave...)
	sort.SliceStable(ms, func(i, j int) bool { return walkLess(ms[i].Message, ms[j].Message) })
	sort.SliceStable(ss, func(i, j int) bool { return walkLess(ss[i].Message, ss[j].Message) })

	var diffs []model.Difference
	i, j := 0, 0
	for i < len(ms) || j < len(ss) {
		switch {
		case i >= len(ms):
			diffs = append(diffs, added(ss[j]))
			j++
		case j >= len(ss):
			diffs = append(diffs, removed(ms[i]))
			i++
		default:
			a, b := ms[i], ss[j]
			if a.SourceID != nil && b.SourceID != nil && *a.SourceID == *b.SourceID {
				diffs = append(diffs, comparePair(a, b)...)
				i++
				j++
			} else if walkCmp(a.Message, b.Message) <= 0 {
				// Ties drain the master side first.
				diffs = append(diffs, removed(a))
				i++
			} else {
				diffs = append(diffs, added(b))
				j++
			}
		}
	}
	return diffs
}

func walkLess(a, b model.Message) bool { return walkCmp(a, b) < 0 }

func walkCmp(a, b model.Message) int {
	if a.Timestamp != b.Timestamp {
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	}
	return srcCmp(a.SourceID, b.SourceID)
}

// srcCmp orders absent source ids before present ones.
func srcCmp(a, b *model.MessageSourceID) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

func removed(m model.MasterMessage) model.Difference {
	return model.Difference{Message: describeShort(m.Message) + " removed in slave"}
}

func added(m model.SlaveMessage) model.Difference {
	return model.Difference{Message: describeShort(m.Message) + " added in slave"}
}

// comparePair emits one Difference per mismatching field of an aligned pair.
func comparePair(a model.MasterMessage, b model.SlaveMessage) []model.Difference {
	prefix := describeShort(a.Message)
	var diffs []model.Difference

	if !model.RichTextEqual(a.Text, b.Text) {
		diffs = append(diffs, model.Difference{
			Message: prefix + ": text differs",
			Values: &model.DifferenceValues{
				Old: strconv.Quote(model.JoinSearchable(a.Text)),
				New: strconv.Quote(model.JoinSearchable(b.Text)),
			},
		})
	}

	ar, br := a.Regular(), b.Regular()
	as, bs := a.Service(), b.Service()
	switch {
	case ar != nil && br != nil:
		diffs = append(diffs, compareRegular(prefix, ar, br)...)
	case as != nil && bs != nil:
		if !model.ServiceEventEqual(as.Event, bs.Event) {
			diffs = append(diffs, model.Difference{
				Message: prefix + ": service event differs",
				Values: &model.DifferenceValues{
					Old: describeService(as.Event),
					New: describeService(bs.Event),
				},
			})
		}
	default:
		diffs = append(diffs, model.Difference{
			Message: prefix + ": message type differs",
			Values: &model.DifferenceValues{
				Old: typedKind(a.Message),
				New: typedKind(b.Message),
			},
		})
	}
	return diffs
}

func compareRegular(prefix string, a, b *model.MessageRegular) []model.Difference {
	var diffs []model.Difference
	if !model.TimestampPtrEq(a.EditTimestamp, b.EditTimestamp) {
		diffs = append(diffs, model.Difference{
			Message: prefix + ": edit timestamp differs",
			Values: &model.DifferenceValues{
				Old: tsOpt(a.EditTimestamp),
				New: tsOpt(b.EditTimestamp),
			},
		})
	}
	if a.IsDeleted != b.IsDeleted {
		diffs = append(diffs, model.Difference{
			Message: prefix + ": deletion flag differs",
			Values: &model.DifferenceValues{
				Old: strconv.FormatBool(a.IsDeleted),
				New: strconv.FormatBool(b.IsDeleted),
			},
		})
	}
	if !model.ContentEqual(a.Content, b.Content) {
		diffs = append(diffs, model.Difference{
			Message: prefix + ": content differs",
			Values: &model.DifferenceValues{
				Old: describeContent(a.Content),
				New: describeContent(b.Content),
			},
		})
	}
	return diffs
}

func typedKind(m model.Message) string {
	if m.Service() != nil {
		return "service"
	}
	return "regular"
}

func describeShort(m model.Message) string {
	if m.SourceID != nil {
		return fmt.Sprintf("message with source id %d (timestamp %d)", *m.SourceID, m.Timestamp)
	}
	return fmt.Sprintf("message without source id (timestamp %d)", m.Timestamp)
}

func tsOpt(t *model.Timestamp) string {
	if t == nil {
		return "none"
	}
	return strconv.FormatInt(int64(*t), 10)
}

func pathOr(p *string) string {
	if p == nil || *p == "" {
		return "no file"
	}
	return *p
}

// describeContent renders a payload for difference output. The switch is
// exhaustive over all content variants.
func describeContent(c model.Content) string {
	switch v := c.(type) {
	case nil:
		return "none"
	case *model.ContentSticker:
		return fmt.Sprintf("sticker (%s, %dx%d)", pathOr(v.Path), v.Width, v.Height)
	case *model.ContentPhoto:
		return fmt.Sprintf("photo (%s, %dx%d)", pathOr(v.Path), v.Width, v.Height)
	case *model.ContentVoiceMsg:
		return fmt.Sprintf("voice message (%s)", pathOr(v.Path))
	case *model.ContentAudio:
		return fmt.Sprintf("audio (%s)", pathOr(v.Path))
	case *model.ContentVideoMsg:
		return fmt.Sprintf("video message (%s, %dx%d)", pathOr(v.Path), v.Width, v.Height)
	case *model.ContentVideo:
		return fmt.Sprintf("video (%s, %dx%d)", pathOr(v.Path), v.Width, v.Height)
	case *model.ContentFile:
		name := pathOr(v.Path)
		if v.FileName != nil {
			name = *v.FileName
		}
		return fmt.Sprintf("file (%s)", name)
	case *model.ContentLocation:
		return fmt.Sprintf("location (%s, %s)", v.LatStr, v.LonStr)
	case *model.ContentPoll:
		return fmt.Sprintf("poll (%q)", v.Question)
	case *model.ContentSharedContact:
		return fmt.Sprintf("shared contact (%s)", v.PrettyName())
	}
	panic("unhandled content variant")
}

// describeService renders an event for difference output. The switch is
// exhaustive over all service variants.
func describeService(ev model.ServiceEvent) string {
	switch v := ev.(type) {
	case *model.ServicePhoneCall:
		if v.DurationSec != nil {
			return fmt.Sprintf("phone call (%ds)", *v.DurationSec)
		}
		if v.DiscardReason != nil {
			return fmt.Sprintf("phone call (%s)", *v.DiscardReason)
		}
		return "phone call"
	case *model.ServiceSuggestProfilePhoto:
		return fmt.Sprintf("profile photo suggestion (%s)", pathOr(v.Photo.Path))
	case *model.ServicePinMessage:
		return fmt.Sprintf("pin of message %d", v.MessageSourceID)
	case *model.ServiceClearHistory:
		return "history cleared"
	case *model.ServiceBlockUser:
		if v.IsBlocked {
			return "user blocked"
		}
		return "user unblocked"
	case *model.ServiceStatusTextChanged:
		return "status text changed"
	case *model.ServiceNotice:
		return "notice"
	case *model.ServiceGroupCreate:
		return fmt.Sprintf("group %q created with %d members", v.Title, len(v.Members))
	case *model.ServiceGroupEditTitle:
		return fmt.Sprintf("group title changed to %q", v.Title)
	case *model.ServiceGroupEditPhoto:
		return fmt.Sprintf("group photo changed (%s)", pathOr(v.Photo.Path))
	case *model.ServiceGroupDeletePhoto:
		return "group photo deleted"
	case *model.ServiceGroupInviteMembers:
		return fmt.Sprintf("invited %d members", len(v.Members))
	case *model.ServiceGroupRemoveMembers:
		return fmt.Sprintf("removed %d members", len(v.Members))
	case *model.ServiceGroupMigrateFrom:
		return fmt.Sprintf("migrated from group %q", v.Title)
	case *model.ServiceGroupMigrateTo:
		return "migrated to supergroup"
	case *model.ServiceGroupCall:
		return fmt.Sprintf("group call with %d members", len(v.Members))
	case nil:
		return "none"
	}
	panic("unhandled service event variant")
}
