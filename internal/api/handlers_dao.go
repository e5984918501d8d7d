package api

import (
	"context"
	"net/http"

	"github.com/chatfold/chatfold/internal/api/respond"
	"github.com/chatfold/chatfold/internal/api/validate"
	"github.com/chatfold/chatfold/internal/history"
	"github.com/chatfold/chatfold/internal/model"
	"github.com/chatfold/chatfold/internal/registry"
)

// DaoHandler serves read queries against loaded datasets. Every operation
// addresses a dataset by its registry key and runs under that dataset's guard.
type DaoHandler struct {
	proc *Processor
	reg  *registry.Registry
}

func NewDaoHandler(proc *Processor, reg *registry.Registry) *DaoHandler {
	return &DaoHandler{proc: proc, reg: reg}
}

// keyed decodes the common {key} request shape and validates it. Returns
// false after writing the error response.
func keyed(w http.ResponseWriter, r *http.Request, req interface{}, key *string) bool {
	if !decodeJSON(w, r, req) {
		return false
	}
	if err := validate.Key("key", *key); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// Dataset POST /api/dao/dataset
func (h *DaoHandler) Dataset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if !keyed(w, r, &req, &req.Key) {
		return
	}
	h.proc.Run(w, r, "GetDataset", req, func(ctx context.Context) (interface{}, error) {
		var ds model.Dataset
		var root string
		err := h.reg.With(req.Key, func(l *history.Loaded) error {
			ds = l.Dataset()
			root = string(l.Root())
			return nil
		})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"dataset": ds, "root": root}, nil
	})
}

// Users POST /api/dao/users
func (h *DaoHandler) Users(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if !keyed(w, r, &req, &req.Key) {
		return
	}
	h.proc.Run(w, r, "GetUsers", req, func(ctx context.Context) (interface{}, error) {
		var users []model.User
		err := h.reg.With(req.Key, func(l *history.Loaded) error {
			users = l.Users()
			return nil
		})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"users": users, "count": len(users)}, nil
	})
}

// Chats POST /api/dao/chats
func (h *DaoHandler) Chats(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if !keyed(w, r, &req, &req.Key) {
		return
	}
	h.proc.Run(w, r, "GetChats", req, func(ctx context.Context) (interface{}, error) {
		var chats []model.ChatWithDetails
		err := h.reg.With(req.Key, func(l *history.Loaded) error {
			chats = l.Chats()
			return nil
		})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"chats": chats, "count": len(chats)}, nil
	})
}

// MessagesFirst POST /api/dao/messages/first
func (h *DaoHandler) MessagesFirst(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key    string `json:"key"`
		ChatID int64  `json:"chatId"`
		Limit  int    `json:"limit"`
	}
	if !keyed(w, r, &req, &req.Key) {
		return
	}
	if err := validate.Limit(req.Limit); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	h.proc.Run(w, r, "MessagesFirst", req, func(ctx context.Context) (interface{}, error) {
		var msgs []model.Message
		err := h.reg.With(req.Key, func(l *history.Loaded) error {
			var err error
			msgs, err = l.FirstMessages(model.ChatID(req.ChatID), req.Limit)
			return err
		})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"messages": msgs, "count": len(msgs)}, nil
	})
}

// MessagesLast POST /api/dao/messages/last
func (h *DaoHandler) MessagesLast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key    string `json:"key"`
		ChatID int64  `json:"chatId"`
		Limit  int    `json:"limit"`
	}
	if !keyed(w, r, &req, &req.Key) {
		return
	}
	if err := validate.Limit(req.Limit); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	h.proc.Run(w, r, "MessagesLast", req, func(ctx context.Context) (interface{}, error) {
		var msgs []model.Message
		err := h.reg.With(req.Key, func(l *history.Loaded) error {
			var err error
			msgs, err = l.LastMessages(model.ChatID(req.ChatID), req.Limit)
			return err
		})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"messages": msgs, "count": len(msgs)}, nil
	})
}

// MessagesSlice POST /api/dao/messages/slice
func (h *DaoHandler) MessagesSlice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key    string `json:"key"`
		ChatID int64  `json:"chatId"`
		Offset int    `json:"offset"`
		Limit  int    `json:"limit"`
	}
	if !keyed(w, r, &req, &req.Key) {
		return
	}
	if err := validate.Offset(req.Offset); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Limit(req.Limit); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	h.proc.Run(w, r, "MessagesSlice", req, func(ctx context.Context) (interface{}, error) {
		var msgs []model.Message
		err := h.reg.With(req.Key, func(l *history.Loaded) error {
			var err error
			msgs, err = l.MessagesSlice(model.ChatID(req.ChatID), req.Offset, req.Limit)
			return err
		})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"messages": msgs, "count": len(msgs)}, nil
	})
}

// MessageBySourceID POST /api/dao/message
func (h *DaoHandler) MessageBySourceID(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key      string `json:"key"`
		ChatID   int64  `json:"chatId"`
		SourceID int64  `json:"sourceId"`
	}
	if !keyed(w, r, &req, &req.Key) {
		return
	}
	h.proc.Run(w, r, "MessageBySourceID", req, func(ctx context.Context) (interface{}, error) {
		var msg *model.Message
		err := h.reg.With(req.Key, func(l *history.Loaded) error {
			var err error
			msg, err = l.MessageBySourceID(model.ChatID(req.ChatID), model.MessageSourceID(req.SourceID))
			return err
		})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"message": msg}, nil
	})
}
