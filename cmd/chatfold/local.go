package main

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/chatfold/chatfold/internal/loader"
	"github.com/chatfold/chatfold/internal/loader/telegram"
	"github.com/chatfold/chatfold/internal/loader/tinder"
	"github.com/chatfold/chatfold/internal/loader/whatsapp"
)

// mediaFetchTimeout bounds outbound media downloads in one-shot commands.
const mediaFetchTimeout = 60 * time.Second

// newLocalFront builds the loader front for one-shot commands. They print
// their own results, so loader logging stays off.
func newLocalFront() *loader.Front {
	return loader.NewFront(zerolog.Nop(),
		telegram.New(),
		whatsapp.New(),
		tinder.New(loader.NewHTTPClient(mediaFetchTimeout)),
	)
}
