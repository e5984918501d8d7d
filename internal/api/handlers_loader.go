package api

import (
	"context"
	"net/http"

	"github.com/chatfold/chatfold/internal/api/respond"
	"github.com/chatfold/chatfold/internal/api/validate"
	"github.com/chatfold/chatfold/internal/chooser"
	"github.com/chatfold/chatfold/internal/history"
	"github.com/chatfold/chatfold/internal/loader"
	"github.com/chatfold/chatfold/internal/model"
	"github.com/chatfold/chatfold/internal/registry"
)

type LoaderHandler struct {
	proc  *Processor
	front *loader.Front
	reg   *registry.Registry
	ch    chooser.Chooser
}

// NewLoaderHandler wires the loader operations. ch is the resolver used for
// registered loads; one-shot parses always use the rejecting resolver.
func NewLoaderHandler(proc *Processor, front *loader.Front, reg *registry.Registry, ch chooser.Chooser) *LoaderHandler {
	return &LoaderHandler{proc: proc, front: front, reg: reg, ch: ch}
}

// sourceSummary is the dataset-free parse result: everything a caller needs
// to inspect a source without the dataset being registered.
type sourceSummary struct {
	Dataset model.Dataset `json:"dataset"`
	Root    string        `json:"root"`
	Myself  model.User    `json:"myself"`
	Users   []model.User  `json:"users"`
	Chats   []model.Chat  `json:"chats"`
}

func summarize(loaded *history.Loaded) sourceSummary {
	details := loaded.Chats()
	chats := make([]model.Chat, 0, len(details))
	for _, d := range details {
		chats = append(chats, d.Chat)
	}
	return sourceSummary{
		Dataset: loaded.Dataset(),
		Root:    string(loaded.Root()),
		Myself:  loaded.Myself(),
		Users:   loaded.Users(),
		Chats:   chats,
	}
}

// ParseSource POST /api/loader/parse
//
// Parses a source without registering it. Runs with the rejecting resolver,
// so sources that need identity resolution (Telegram) fail here.
func (h *LoaderHandler) ParseSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Path("path", req.Path); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	h.proc.Run(w, r, "ParseSource", req, func(ctx context.Context) (interface{}, error) {
		loaded, err := h.front.DetectAndLoad(ctx, req.Path, chooser.NoChooser{})
		if err != nil {
			return nil, err
		}
		return summarize(loaded), nil
	})
}

// Load POST /api/loader/load
func (h *LoaderHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Key("key", req.Key); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	h.proc.Run(w, r, "Load", req, func(ctx context.Context) (interface{}, error) {
		already, err := h.reg.ResolveOrLoad(ctx, req.Key, func(ctx context.Context) (*history.Loaded, error) {
			return h.front.DetectAndLoad(ctx, req.Key, h.ch)
		})
		if err != nil {
			return nil, err
		}
		var ds model.Dataset
		if err := h.reg.With(req.Key, func(l *history.Loaded) error {
			ds = l.Dataset()
			return nil
		}); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"key":           req.Key,
			"dataset":       ds,
			"alreadyLoaded": already,
		}, nil
	})
}

// ListLoaded GET /api/loader/loaded
func (h *LoaderHandler) ListLoaded(w http.ResponseWriter, r *http.Request) {
	h.proc.Run(w, r, "ListLoaded", nil, func(ctx context.Context) (interface{}, error) {
		keys := h.reg.Keys()
		return map[string]interface{}{"keys": keys, "count": len(keys)}, nil
	})
}

// Unload POST /api/loader/unload
func (h *LoaderHandler) Unload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Key("key", req.Key); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	h.proc.Run(w, r, "Unload", req, func(ctx context.Context) (interface{}, error) {
		if err := h.reg.Unload(req.Key); err != nil {
			return nil, err
		}
		return map[string]interface{}{"key": req.Key}, nil
	})
}
