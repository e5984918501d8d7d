package api

import (
	"context"
	"net/http"

	"github.com/chatfold/chatfold/internal/api/respond"
	"github.com/chatfold/chatfold/internal/api/validate"
	"github.com/chatfold/chatfold/internal/history"
	"github.com/chatfold/chatfold/internal/merge"
	"github.com/chatfold/chatfold/internal/model"
	"github.com/chatfold/chatfold/internal/registry"
)

type MergeHandler struct {
	proc *Processor
	reg  *registry.Registry
}

func NewMergeHandler(proc *Processor, reg *registry.Registry) *MergeHandler {
	return &MergeHandler{proc: proc, reg: reg}
}

// Diff POST /api/merge/diff
//
// Copies both message sequences out under their datasets' guards, one guard
// at a time in master-then-slave order (taken once when the keys coincide),
// then diffs the copies without holding anything.
func (h *MergeHandler) Diff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MasterKey    string `json:"masterKey"`
		MasterChatID int64  `json:"masterChatId"`
		SlaveKey     string `json:"slaveKey"`
		SlaveChatID  int64  `json:"slaveChatId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Key("masterKey", req.MasterKey); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Key("slaveKey", req.SlaveKey); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	h.proc.Run(w, r, "MergeDiff", req, func(ctx context.Context) (interface{}, error) {
		var masterMsgs, slaveMsgs []model.Message
		if req.MasterKey == req.SlaveKey {
			err := h.reg.With(req.MasterKey, func(l *history.Loaded) error {
				var err error
				if masterMsgs, err = l.Messages(model.ChatID(req.MasterChatID)); err != nil {
					return err
				}
				slaveMsgs, err = l.Messages(model.ChatID(req.SlaveChatID))
				return err
			})
			if err != nil {
				return nil, err
			}
		} else {
			if err := h.reg.With(req.MasterKey, func(l *history.Loaded) error {
				var err error
				masterMsgs, err = l.Messages(model.ChatID(req.MasterChatID))
				return err
			}); err != nil {
				return nil, err
			}
			if err := h.reg.With(req.SlaveKey, func(l *history.Loaded) error {
				var err error
				slaveMsgs, err = l.Messages(model.ChatID(req.SlaveChatID))
				return err
			}); err != nil {
				return nil, err
			}
		}

		diffs := merge.DiffMessages(merge.WrapMaster(masterMsgs), merge.WrapSlave(slaveMsgs))
		if diffs == nil {
			diffs = []model.Difference{}
		}
		return map[string]interface{}{"differences": diffs, "count": len(diffs)}, nil
	})
}
