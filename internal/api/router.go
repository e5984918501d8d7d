package api

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/chatfold/chatfold/internal/api/recovery"
	"github.com/chatfold/chatfold/internal/chooser"
	"github.com/chatfold/chatfold/internal/config"
	"github.com/chatfold/chatfold/internal/loader"
	"github.com/chatfold/chatfold/internal/registry"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(
	log zerolog.Logger,
	cfg *config.Config,
	front *loader.Front,
	reg *registry.Registry,
	ch chooser.Chooser,
) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	proc := NewProcessor(log, cfg.LogTruncateLen)

	// Create handlers
	healthHandler := NewHealthHandler()
	loaderHandler := NewLoaderHandler(proc, front, reg, ch)
	daoHandler := NewDaoHandler(proc, reg)
	mergeHandler := NewMergeHandler(proc, reg)

	// Health endpoint
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// Loader endpoints
	router.HandleFunc("/api/loader/parse", loaderHandler.ParseSource).Methods("POST")
	router.HandleFunc("/api/loader/load", loaderHandler.Load).Methods("POST")
	router.HandleFunc("/api/loader/loaded", loaderHandler.ListLoaded).Methods("GET")
	router.HandleFunc("/api/loader/unload", loaderHandler.Unload).Methods("POST")

	// Dataset read endpoints
	router.HandleFunc("/api/dao/dataset", daoHandler.Dataset).Methods("POST")
	router.HandleFunc("/api/dao/users", daoHandler.Users).Methods("POST")
	router.HandleFunc("/api/dao/chats", daoHandler.Chats).Methods("POST")
	router.HandleFunc("/api/dao/messages/first", daoHandler.MessagesFirst).Methods("POST")
	router.HandleFunc("/api/dao/messages/last", daoHandler.MessagesLast).Methods("POST")
	router.HandleFunc("/api/dao/messages/slice", daoHandler.MessagesSlice).Methods("POST")
	router.HandleFunc("/api/dao/message", daoHandler.MessageBySourceID).Methods("POST")

	// Merge endpoint
	router.HandleFunc("/api/merge/diff", mergeHandler.Diff).Methods("POST")

	return router
}
